package main

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingPurger struct{ calls atomic.Int32 }

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls.Add(1)
	return 3, nil
}

func TestScheduleJobsRejectsInvalidWarmSchedule(t *testing.T) {
	c := cron.New()
	err := scheduleJobs(context.Background(), c, "every day", nil, &countingPurger{}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warm schedule")
	assert.Empty(t, c.Entries())
}

func TestScheduleJobsRegistersPurgeOnlyWithPurger(t *testing.T) {
	c := cron.New()
	require.NoError(t, scheduleJobs(context.Background(), c, "0 3 * * *", nil, nil, zaptest.NewLogger(t)))
	assert.Len(t, c.Entries(), 1)

	p := &countingPurger{}
	c = cron.New()
	require.NoError(t, scheduleJobs(context.Background(), c, "0 3 * * *", nil, p, zaptest.NewLogger(t)))
	entries := c.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		if e.ID == 2 {
			e.Job.Run()
		}
	}
	assert.Equal(t, int32(1), p.calls.Load())
}
