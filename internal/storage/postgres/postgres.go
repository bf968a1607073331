package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/MikhailRaia/golinks/internal/storage"
)

const backendName = "postgres"

type Storage struct {
	pool *pgxpool.Pool
}

func NewStorage(ctx context.Context, dsn string) (*Storage, error) {
	if dsn == "" {
		return nil, errors.New("database connection string is empty")
	}

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &Storage{
		pool: pool,
	}

	if err := s.createTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) createTable(ctx context.Context) error {
	createTableQuery := `
		CREATE TABLE IF NOT EXISTS urls (
			code VARCHAR(16) PRIMARY KEY,
			target_url TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`

	_, err := s.pool.Exec(ctx, createTableQuery)
	return err
}

// Put relies on the primary key: a duplicate code fails the INSERT with
// unique_violation, which is reported as storage.ErrCollision.
func (s *Storage) Put(ctx context.Context, code, targetURL string) error {
	_, err := s.pool.Exec(ctx, "INSERT INTO urls (code, target_url) VALUES ($1, $2)", code, targetURL)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return storage.ErrCollision
	}

	return storage.NewPersistenceError(backendName, "put", fmt.Errorf("error inserting URL into database: %w", err))
}

func (s *Storage) Get(ctx context.Context, code string) (string, error) {
	var targetURL string
	err := s.pool.QueryRow(ctx, "SELECT target_url FROM urls WHERE code = $1", code).Scan(&targetURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", storage.NewPersistenceError(backendName, "get", fmt.Errorf("error querying database: %w", err))
	}

	return targetURL, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return storage.NewPersistenceError(backendName, "ping", s.pool.Ping(ctx))
}

func (s *Storage) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
