package domain

import (
	"fmt"
	"time"
)

// MaintenanceType тип работ по обслуживанию корта
type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "PREVENTIVE"
	MaintenanceCorrective MaintenanceType = "CORRECTIVE"
	MaintenanceEmergency  MaintenanceType = "EMERGENCY"
)

// MaintenanceStatus статус работ
type MaintenanceStatus string

const (
	MaintenanceScheduled  MaintenanceStatus = "SCHEDULED"
	MaintenanceInProgress MaintenanceStatus = "IN_PROGRESS"
	MaintenanceCompleted  MaintenanceStatus = "COMPLETED"
	MaintenanceCancelled  MaintenanceStatus = "CANCELLED"
)

// MaintenancePriority приоритет работ
type MaintenancePriority string

const (
	PriorityLow    MaintenancePriority = "LOW"
	PriorityMedium MaintenancePriority = "MEDIUM"
	PriorityHigh   MaintenancePriority = "HIGH"
	PriorityUrgent MaintenancePriority = "URGENT"
)

// ActiveMaintenanceStatuses статусы, участвующие в проверке пересечений
var ActiveMaintenanceStatuses = []MaintenanceStatus{
	MaintenanceScheduled,
	MaintenanceInProgress,
}

func ParseMaintenanceType(s string) (MaintenanceType, error) {
	switch t := MaintenanceType(s); t {
	case MaintenancePreventive, MaintenanceCorrective, MaintenanceEmergency:
		return t, nil
	}
	return "", fmt.Errorf("unknown maintenance type %q", s)
}

func ParseMaintenanceStatus(s string) (MaintenanceStatus, error) {
	switch st := MaintenanceStatus(s); st {
	case MaintenanceScheduled, MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown maintenance status %q", s)
}

func ParseMaintenancePriority(s string) (MaintenancePriority, error) {
	switch p := MaintenancePriority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", fmt.Errorf("unknown maintenance priority %q", s)
}

// Maintenance плановые или аварийные работы на корте
type Maintenance struct {
	ID              int64
	CourtID         int64
	Type            MaintenanceType
	Title           string
	Description     *string
	ScheduledStart  time.Time
	DurationMinutes int
	Priority        MaintenancePriority
	AssigneeID      *int64
	Status          MaintenanceStatus
	Materials       []string
	Notes           *string
	ActualStart     *time.Time
	CompletedAt     *time.Time
	ActualDuration  *int // минуты
	Cost            *float64
	CreatedBy       *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// End конец запланированного окна
func (m *Maintenance) End() time.Time {
	return m.ScheduledStart.Add(time.Duration(m.DurationMinutes) * time.Minute)
}

// IsActive SCHEDULED или IN_PROGRESS
func (m *Maintenance) IsActive() bool {
	return m.Status == MaintenanceScheduled || m.Status == MaintenanceInProgress
}

// IsOverdue запланированные работы, начало которых уже прошло
func (m *Maintenance) IsOverdue(now time.Time) bool {
	return m.Status == MaintenanceScheduled && m.ScheduledStart.Before(now)
}

// ConflictsWith проверяет, конфликтует ли новое окно [start, start+duration) с существующим.
// Конфликт: прямое пересечение окон или начало нового окна не более чем за buffer
// до начала существующего. После существующего окна буфер не применяется.
func (m *Maintenance) ConflictsWith(start time.Time, duration, buffer time.Duration) bool {
	if !m.IsActive() {
		return false
	}

	end := start.Add(duration)
	if m.ScheduledStart.Before(end) && start.Before(m.End()) {
		return true
	}

	return start.Before(m.ScheduledStart) && !start.Before(m.ScheduledStart.Add(-buffer))
}

// ConflictSearchEnd верхняя граница (включительно) начала существующих окон, которые могут конфликтовать
// с новым окном. Нижняя граница задаётся концом существующего окна (> start)
func ConflictSearchEnd(start time.Time, duration, buffer time.Duration) time.Time {
	end := start.Add(duration)
	if b := start.Add(buffer); b.After(end) {
		return b
	}
	return end
}

// MaintenanceFilter фильтр списка работ
type MaintenanceFilter struct {
	CourtID  *int64
	Status   *MaintenanceStatus
	Type     *MaintenanceType
	Priority *MaintenancePriority
	Page     int
	Limit    int
}

// MaintenanceStats агрегаты по работам
type MaintenanceStats struct {
	Total      int
	ByStatus   map[MaintenanceStatus]int
	ByType     map[MaintenanceType]int
	ByPriority map[MaintenancePriority]int
	Overdue    int
}
