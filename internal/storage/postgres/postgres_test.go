package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/MikhailRaia/golinks/internal/storage"
	"github.com/MikhailRaia/golinks/internal/storage/storagetest"
)

// startPostgres runs a disposable PostgreSQL container and returns its DSN.
// The test is skipped in -short mode or when Docker is not reachable.
func startPostgres(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "golinks",
			"POSTGRES_PASSWORD": "golinks",
			"POSTGRES_DB":       "golinks",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://golinks:golinks@%s:%s/golinks?sslmode=disable", host, port.Port())
}

func TestStorage_Contract(t *testing.T) {
	dsn := startPostgres(t)

	storagetest.Run(t, func(t *testing.T) storage.URLStorage {
		ctx := context.Background()

		s, err := NewStorage(ctx, dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		_, err = s.pool.Exec(ctx, "TRUNCATE urls")
		require.NoError(t, err)

		return s
	})
}

func TestStorage_PingAndClose(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	s, err := NewStorage(ctx, dsn)
	require.NoError(t, err)

	assert.NoError(t, s.Ping(ctx))

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Ping(ctx), storage.ErrPersistence)
}

func TestNewStorage_EmptyDSN(t *testing.T) {
	_, err := NewStorage(context.Background(), "")
	assert.Error(t, err)
}
