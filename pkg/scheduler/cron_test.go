package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronRunsJobs(t *testing.T) {
	cr := NewCron(time.UTC)
	var runs int32
	_, err := cr.AddWithCtx("@every 1s", func(ctx context.Context) { atomic.AddInt32(&runs, 1) })
	require.NoError(t, err)
	assert.Len(t, cr.Entries(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cr.Run(ctx) }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) > 0 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestCronRejectsBadExpression(t *testing.T) {
	_, err := NewCron(nil).Add("every now and then", FuncJob(func(context.Context) {}))
	assert.Error(t, err)
}
