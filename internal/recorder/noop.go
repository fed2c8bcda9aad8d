package recorder

import (
	"context"

	"TrendLens/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(_ context.Context, _ *model.Analysis) error { return nil }
func (n *NoopRecorder) Recent(_ context.Context, _ string, _ int) ([]Snapshot, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
