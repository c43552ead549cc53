package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingJob struct {
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	return j.err
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := NewCronScheduler(zap.NewNop())
	require.Error(t, s.AddJob(&countingJob{}, "every minute"))
	require.Error(t, s.AddJob(&countingJob{}, "*/5 * * * * *"))
	require.NoError(t, s.AddJob(&countingJob{}, "*/30 * * * *"))
	assert.Len(t, s.entries, 1)
}

func TestWrapRunsJobAndSkipsOverlap(t *testing.T) {
	s := NewCronScheduler(zap.NewNop())
	s.Start(context.Background())
	defer s.Stop()

	job := &countingJob{block: make(chan struct{}), err: errors.New("boom")}
	run := s.wrap(job, "@manual")

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	run()
	assert.EqualValues(t, 1, job.runs.Load())

	close(job.block)
	<-done
	job.block = nil
	run()
	assert.EqualValues(t, 2, job.runs.Load())
}
