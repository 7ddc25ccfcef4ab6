package scheduler

import (
	"testing"
	"time"

	"rentalyard/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler_RegistersCAAudit(t *testing.T) {
	s, err := NewScheduler(jobs.NewJobRunner(nil, nil), Schedules{CAAudit: "0 30 2 * * *"}, time.UTC, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())

	s.Start()
	s.Stop()
}

func TestNewScheduler_EmptyScheduleDisablesJob(t *testing.T) {
	s, err := NewScheduler(jobs.NewJobRunner(nil, nil), Schedules{}, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, s.Entries())
}

func TestNewScheduler_RejectsFiveFieldExpression(t *testing.T) {
	_, err := NewScheduler(jobs.NewJobRunner(nil, nil), Schedules{CAAudit: "30 2 * * *"}, time.UTC, nil)
	assert.Error(t, err)
}
