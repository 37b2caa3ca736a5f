package auth

import (
	"io"
	"log/slog"
	"time"
)

// Option customises an Issuer, Validator or Refresher.
type Option func(*settings)

type settings struct {
	now func() time.Time
	log *slog.Logger
}

// WithClock replaces time.Now. Tests use it to move across expiry boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for debug traces of token failures.
func WithLogger(log *slog.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		now: time.Now,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
