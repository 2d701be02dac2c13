package recorder

import "context"

// NoopRecorder is a no-op implementation used when history is disabled.
type NoopRecorder struct{}

// NewNoopRecorder returns a recorder that discards everything.
func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

// RecordRun discards run.
func (n *NoopRecorder) RecordRun(_ context.Context, _ *RunRecord) error { return nil }
// ListRuns always returns no runs.
func (n *NoopRecorder) ListRuns(_ context.Context, _ int) ([]RunRecord, error) {
	return nil, nil
}
// Close is a no-op.
func (n *NoopRecorder) Close() error { return nil }
