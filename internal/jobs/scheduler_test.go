package jobs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type fakeCleaner struct {
	removed int64
	err     error
	calls   int
}

func (f *fakeCleaner) CleanupExpired(ctx context.Context) (int64, error) {
	f.calls++
	return f.removed, f.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestCleanupIdempotencyKeys(t *testing.T) {
	cleaner := &fakeCleaner{removed: 3}
	assert.Equal(t, int64(3), CleanupIdempotencyKeys(context.Background(), cleaner, quietLogger()))
	assert.Equal(t, 1, cleaner.calls)

	failing := &fakeCleaner{removed: 7, err: errors.New("db down")}
	assert.Equal(t, int64(0), CleanupIdempotencyKeys(context.Background(), failing, quietLogger()))
}

func TestScheduler_ScheduleIdempotencyCleanup(t *testing.T) {
	s := NewScheduler(quietLogger())

	assert.NoError(t, s.ScheduleIdempotencyCleanup("@every 1h", &fakeCleaner{}))
	assert.Error(t, s.ScheduleIdempotencyCleanup("not a schedule", &fakeCleaner{}))

	s.Start()
	<-s.Stop().Done()
}
