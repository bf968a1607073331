package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/golinks/internal/model"
	"github.com/MikhailRaia/golinks/internal/pool"
	"github.com/MikhailRaia/golinks/internal/storage"
	"github.com/MikhailRaia/golinks/internal/storage/memory"
)

const backendName = "file"

// Storage implements URLStorage backed by an append-only JSON-lines file.
// Every mapping is written and synced before it becomes visible; the file is
// replayed into an in-memory index on open.
type Storage struct {
	filePath    string
	index       *memory.Storage
	file        *os.File
	buffers     *pool.Pool[*bytes.Buffer]
	fileWriteMu sync.Mutex
}

// NewStorage opens (or creates) the file at filePath and loads existing mappings.
func NewStorage(filePath string) (*Storage, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	s := &Storage{
		filePath: filePath,
		index:    memory.NewStorage(),
		buffers:  pool.New(32, func() *bytes.Buffer { return new(bytes.Buffer) }),
	}

	if err := s.loadFromFile(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for writing: %w", err)
	}
	s.file = f

	return s, nil
}

// Put appends a new mapping to the file. The code's index shard stays locked
// until the record is on disk, so the existence check and the write are atomic.
func (s *Storage) Put(ctx context.Context, code, targetURL string) error {
	record := model.URLMapping{Code: code, TargetURL: targetURL}

	return s.index.PutWith(ctx, code, targetURL, func() error {
		return storage.NewPersistenceError(backendName, "put", s.appendRecord(record))
	})
}

// Get returns the target URL for code from the in-memory index.
func (s *Storage) Get(ctx context.Context, code string) (string, error) {
	return s.index.Get(ctx, code)
}

// Ping checks that the backing file is still reachable.
func (s *Storage) Ping(_ context.Context) error {
	_, err := os.Stat(s.filePath)
	return storage.NewPersistenceError(backendName, "ping", err)
}

// Close flushes and closes the backing file.
func (s *Storage) Close() error {
	s.fileWriteMu.Lock()
	defer s.fileWriteMu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// loadFromFile replays the file into the index. A last line without a
// newline is the remains of an interrupted append: it is kept if it decodes
// and cut off otherwise.
func (s *Storage) loadFromFile() error {
	f, err := os.OpenFile(s.filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	var offset int64
	for {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			return s.repairTail(f, offset, line)
		}
		if err != nil {
			return fmt.Errorf("error reading file: %w", err)
		}
		start := offset
		offset += int64(len(line))

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var record model.URLMapping
		if err := json.Unmarshal(line, &record); err != nil {
			return fmt.Errorf("failed to unmarshal record at offset %d: %w", start, err)
		}

		s.index.Load(record.Code, record.TargetURL)
	}
}

func (s *Storage) repairTail(f *os.File, offset int64, tail []byte) error {
	if len(bytes.TrimSpace(tail)) == 0 {
		return nil
	}

	var record model.URLMapping
	if err := json.Unmarshal(tail, &record); err == nil {
		s.index.Load(record.Code, record.TargetURL)
		if _, err := f.WriteAt([]byte{'\n'}, offset+int64(len(tail))); err != nil {
			return fmt.Errorf("failed to terminate last record: %w", err)
		}
		return nil
	}

	log.Warn().
		Str("path", s.filePath).
		Int64("offset", offset).
		Int("bytes", len(tail)).
		Msg("Dropping incomplete record at end of file")

	if err := f.Truncate(offset); err != nil {
		return fmt.Errorf("failed to truncate incomplete record: %w", err)
	}
	return nil
}

// appendRecord writes one JSON line. On failure the file is cut back to its
// previous size so a partial line never precedes the next record.
func (s *Storage) appendRecord(record model.URLMapping) error {
	buf := s.buffers.Get()
	defer s.buffers.Put(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	s.fileWriteMu.Lock()
	defer s.fileWriteMu.Unlock()

	if s.file == nil {
		return os.ErrClosed
	}

	info, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if _, err := s.file.Write(buf.Bytes()); err != nil {
		return s.rollback(info.Size(), fmt.Errorf("failed to write to file: %w", err))
	}

	if err := s.file.Sync(); err != nil {
		return s.rollback(info.Size(), fmt.Errorf("failed to sync file: %w", err))
	}

	return nil
}

func (s *Storage) rollback(size int64, cause error) error {
	if err := s.file.Truncate(size); err != nil {
		log.Error().Err(err).Str("path", s.filePath).Msg("Failed to roll back partial record")
	}
	return cause
}
