package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const buffer = 24 * time.Hour

func scheduled(start time.Time, minutes int) *Maintenance {
	return &Maintenance{ScheduledStart: start, DurationMinutes: minutes, Status: MaintenanceScheduled}
}

func TestMaintenance_ConflictsWith_Scenario(t *testing.T) {
	a := scheduled(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), 60)

	// B пересекается с A напрямую
	assert.True(t, a.ConflictsWith(time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC), 30*time.Minute, buffer))

	// C начинается после окончания A, буфер после окна не применяется
	assert.False(t, a.ConflictsWith(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC), 30*time.Minute, buffer))
}

func TestMaintenance_ConflictsWith_BufferBeforeExisting(t *testing.T) {
	existingStart := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	m := scheduled(existingStart, 60)

	cases := []struct {
		name     string
		start    time.Time
		conflict bool
	}{
		{"ровно за 24 часа", existingStart.Add(-24 * time.Hour), true},
		{"за 23 часа", existingStart.Add(-23 * time.Hour), true},
		{"за 25 часов", existingStart.Add(-25 * time.Hour), false},
		{"за 2 часа, окно 30 минут", existingStart.Add(-2 * time.Hour), true},
		{"вплотную после окончания", existingStart.Add(time.Hour), false},
		{"через 2 часа после окончания", existingStart.Add(3 * time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.conflict, m.ConflictsWith(tc.start, 30*time.Minute, buffer))
		})
	}
}

func TestMaintenance_ConflictsWith_IgnoresInactive(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	for _, status := range []MaintenanceStatus{MaintenanceCompleted, MaintenanceCancelled} {
		m := scheduled(start, 60)
		m.Status = status
		assert.False(t, m.ConflictsWith(start, time.Hour, buffer))
	}

	m := scheduled(start, 60)
	m.Status = MaintenanceInProgress
	assert.True(t, m.ConflictsWith(start, time.Hour, buffer))
}

func TestMaintenance_ConflictsWith_ExistingAlreadyStarted(t *testing.T) {
	m := scheduled(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), 240)

	assert.True(t, m.ConflictsWith(time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC), 30*time.Minute, buffer))
	assert.False(t, m.ConflictsWith(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), 30*time.Minute, buffer))
}

func TestConflictSearchEnd(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, start.Add(buffer), ConflictSearchEnd(start, time.Hour, buffer))
	assert.Equal(t, start.Add(48*time.Hour), ConflictSearchEnd(start, 48*time.Hour, buffer))
}

func TestMaintenance_IsOverdue(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, scheduled(now.Add(-time.Minute), 30).IsOverdue(now))
	assert.False(t, scheduled(now.Add(time.Minute), 30).IsOverdue(now))

	started := scheduled(now.Add(-time.Hour), 30)
	started.Status = MaintenanceInProgress
	assert.False(t, started.IsOverdue(now))
}
