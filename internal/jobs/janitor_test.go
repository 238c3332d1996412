package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingPurger struct {
	calls     atomic.Int32
	retention atomic.Int64
}

func (p *countingPurger) PurgeTokens(_ context.Context, retention time.Duration) (int64, error) {
	p.retention.Store(int64(retention))
	p.calls.Add(1)
	return 2, nil
}

func TestJanitor_RunsOnSchedule(t *testing.T) {
	p := &countingPurger{}
	j, err := NewJanitor("@every 1s", time.Hour, p, zap.NewNop())
	require.NoError(t, err)
	j.Start()
	defer j.Stop(context.Background())

	assert.Eventually(t, func() bool { return p.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	assert.Equal(t, int64(time.Hour), p.retention.Load())
}

func TestJanitor_EmptySpecDisables(t *testing.T) {
	j, err := NewJanitor("", time.Hour, &countingPurger{}, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, j.c.Entries())
}

func TestJanitor_BadSpec(t *testing.T) {
	_, err := NewJanitor("every now and then", time.Hour, &countingPurger{}, zap.NewNop())
	assert.Error(t, err)
}
