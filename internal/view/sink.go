package view

import (
	"context"
	"log/slog"
)

// Sink receives transport failures. They are never shown to the bidder.
type Sink interface {
	Report(ctx context.Context, op string, err error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, op string, err error)

// Report calls f.
func (f SinkFunc) Report(ctx context.Context, op string, err error) {
	f(ctx, op, err)
}

// SlogSink reports failures to a structured logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a Sink writing to logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger.With(slog.String("component", "view"))}
}

// Report logs err at error level.
func (s *SlogSink) Report(ctx context.Context, op string, err error) {
	s.logger.ErrorContext(ctx, "view: "+op+" failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}
