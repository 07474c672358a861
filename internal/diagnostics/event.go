// Package diagnostics records every failed model call so bad replies can be
// inspected after the request has been answered.
package diagnostics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"careerpath/internal/model"

	"github.com/google/uuid"
)

type Event struct {
	ID         string    `json:"id"`
	Task       string    `json:"task"`
	Kind       string    `json:"kind"`
	Raw        string    `json:"raw,omitempty"`
	Diagnostic string    `json:"diagnostic"`
	Fields     []string  `json:"fields,omitempty"`
	Model      string    `json:"model,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type requestIDKey struct{}

// WithRequestID tags ctx so events recorded under it carry the caller's
// request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func NewEvent(task, kind, raw, diagnostic string, fields []string, modelName string) Event {
	return Event{
		ID:         uuid.NewString(),
		Task:       task,
		Kind:       kind,
		Raw:        raw,
		Diagnostic: diagnostic,
		Fields:     fields,
		Model:      modelName,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) Failure() model.ExtractionFailure {
	return model.ExtractionFailure{
		EventID:    e.ID,
		Task:       e.Task,
		Kind:       e.Kind,
		Raw:        e.Raw,
		Diagnostic: e.Diagnostic,
		Fields:     e.Fields,
		Model:      e.Model,
		OccurredAt: e.OccurredAt,
	}
}

type Sink interface {
	Record(ctx context.Context, e Event) error
}

// Multi fans an event out to every sink. A failing sink does not stop the
// others; all errors are joined.
type Multi []Sink

func (m Multi) Record(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(ctx context.Context, e Event) error {
	s.logger.ErrorContext(ctx, "model call failed",
		"event_id", e.ID,
		"task", e.Task,
		"kind", e.Kind,
		"diagnostic", e.Diagnostic,
		"fields", e.Fields,
		"model", e.Model,
		"request_id", e.RequestID,
		"raw", e.Raw,
	)
	return nil
}
