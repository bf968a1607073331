package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/golinks/internal/metrics"
	"github.com/MikhailRaia/golinks/internal/storage"
)

const (
	// DefaultMaxAttempts bounds generate+insert attempts per shorten request.
	DefaultMaxAttempts = 3
	// MaxURLLength is the longest target URL accepted, in bytes.
	MaxURLLength = 8 << 10
)

var (
	// ErrInvalidURL is returned when the target is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid target URL")
	// ErrRetriesExhausted is returned when every generated code collided.
	ErrRetriesExhausted = errors.New("could not allocate a free short code")
)

// CodeGenerator produces candidate short codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// URLService provides business logic for creating and resolving short URLs.
type URLService struct {
	storage     storage.URLStorage
	generator   CodeGenerator
	maxAttempts int
}

// NewURLService constructs a URLService. maxAttempts below 1 falls back to DefaultMaxAttempts.
func NewURLService(storage storage.URLStorage, generator CodeGenerator, maxAttempts int) *URLService {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &URLService{
		storage:     storage,
		generator:   generator,
		maxAttempts: maxAttempts,
	}
}

// Shorten stores targetURL under a freshly generated code and returns the code.
// A collision regenerates the code; other storage errors are returned as is.
func (s *URLService) Shorten(ctx context.Context, targetURL string) (string, error) {
	if err := ValidateURL(targetURL); err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.generator.Generate()
		if err != nil {
			return "", fmt.Errorf("error generating code: %w", err)
		}

		err = s.storage.Put(ctx, code, targetURL)
		if err == nil {
			metrics.RecordURLShortened()
			return code, nil
		}

		if !errors.Is(err, storage.ErrCollision) {
			return "", err
		}

		metrics.RecordCollision()
		log.Warn().
			Str("code", code).
			Int("attempt", attempt).
			Msg("Short code collision, regenerating")
		lastErr = err
	}

	return "", fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, s.maxAttempts, lastErr)
}

// Resolve returns the target URL stored for code.
func (s *URLService) Resolve(ctx context.Context, code string) (string, error) {
	return s.storage.Get(ctx, code)
}

// Ping reports storage health when the backend supports it.
func (s *URLService) Ping(ctx context.Context) error {
	if p, ok := s.storage.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs with a host, valid UTF-8
// and at most MaxURLLength bytes long.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	if len(raw) > MaxURLLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidURL, MaxURLLength)
	}

	if !utf8.ValidString(raw) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidURL)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	return nil
}

// ShortURL builds the public redirect URL for code under baseURL.
func ShortURL(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + "/go/" + url.PathEscape(code)
}
