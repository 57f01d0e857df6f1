package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestWaitMinutes(t *testing.T) {
	checkedIn := time.Date(2026, 3, 16, 9, 0, 0, 0, time.Local)
	now := checkedIn.Add(25 * time.Minute)

	uncalled := QueueEntry{CheckedInAt: checkedIn}
	assert.Equal(t, 25, uncalled.WaitMinutes(now))

	called := QueueEntry{CheckedInAt: checkedIn, CalledAt: timePtr(checkedIn.Add(10 * time.Minute))}
	assert.Equal(t, 10, called.WaitMinutes(now))

	// Clock skew never yields a negative wait.
	skewed := QueueEntry{CheckedInAt: checkedIn, CalledAt: timePtr(checkedIn.Add(-5 * time.Minute))}
	assert.Equal(t, 0, skewed.WaitMinutes(now))
}

func TestConsultMinutes(t *testing.T) {
	start := time.Date(2026, 3, 16, 9, 30, 0, 0, time.Local)

	done := QueueEntry{
		ConsultationStartedAt: timePtr(start),
		CompletedAt:           timePtr(start.Add(20 * time.Minute)),
	}
	assert.Equal(t, 20.0, done.ConsultMinutes())

	open := QueueEntry{ConsultationStartedAt: timePtr(start)}
	assert.Equal(t, 0.0, open.ConsultMinutes())
}

func TestAverageConsultMinutes(t *testing.T) {
	start := time.Date(2026, 3, 16, 9, 0, 0, 0, time.Local)
	entry := func(minutes int) QueueEntry {
		return QueueEntry{
			ConsultationStartedAt: timePtr(start),
			CompletedAt:           timePtr(start.Add(time.Duration(minutes) * time.Minute)),
		}
	}

	// No completed consults yet: fall back to the configured default.
	assert.Equal(t, 15.0, AverageConsultMinutes(nil, 15))

	completed := []QueueEntry{entry(10), entry(20), entry(30)}
	assert.Equal(t, 20.0, AverageConsultMinutes(completed, 15))

	// Entries without timestamps are ignored rather than dragging the
	// average to zero.
	withBroken := append(completed, QueueEntry{})
	assert.Equal(t, 20.0, AverageConsultMinutes(withBroken, 15))
}

func TestQueuePosition(t *testing.T) {
	peers := []QueueEntry{
		{Model: gorm.Model{ID: 1}, QueueNumber: 1, Status: QueueCompleted},
		{Model: gorm.Model{ID: 2}, QueueNumber: 2, Status: QueueWaiting},
		{Model: gorm.Model{ID: 3}, QueueNumber: 3, Status: QueueSkipped},
		{Model: gorm.Model{ID: 4}, QueueNumber: 4, Status: QueueWaiting},
		{Model: gorm.Model{ID: 5}, QueueNumber: 5, Status: QueueWaiting},
	}

	// Entry 4 waits behind entry 2 only: completed and skipped peers do not
	// count.
	assert.Equal(t, 2, QueuePosition(&peers[3], peers))
	assert.Equal(t, 1, QueuePosition(&peers[1], peers))
	assert.Equal(t, 3, QueuePosition(&peers[4], peers))

	// A non-waiting entry has no position.
	assert.Equal(t, 0, QueuePosition(&peers[2], peers))
}
