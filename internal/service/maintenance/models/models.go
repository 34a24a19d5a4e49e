package models

import (
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
)

// Request модели

// CreateRequest запрос на планирование работ
type CreateRequest struct {
	CourtID         int64
	Type            string
	Title           string
	Description     *string
	ScheduledStart  time.Time
	DurationMinutes int
	Priority        string
	AssigneeID      *int64
	Materials       []string
	Notes           *string
}

// UpdateRequest частичное обновление, nil поля не меняются
type UpdateRequest struct {
	Type            *string
	Title           *string
	Description     *string
	ScheduledStart  *time.Time
	DurationMinutes *int
	Priority        *string
	AssigneeID      *int64
	Materials       []string
	Notes           *string
}

// CompleteRequest данные о завершении работ
type CompleteRequest struct {
	ActualDuration *int
	Cost           *float64
	Notes          *string

	// Если задано, создаётся следующее плановое обслуживание (PREVENTIVE)
	NextMaintenanceDate *time.Time
}

// ListRequest фильтры списка работ
type ListRequest struct {
	CourtID  *int64
	Status   *string
	Type     *string
	Priority *string
	Page     int
	Limit    int
}

// Response модели

// MaintenanceResponse ответ с данными работ
type MaintenanceResponse struct {
	ID              int64      `json:"id"`
	CourtID         int64      `json:"courtId"`
	Type            string     `json:"type"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	ScheduledStart  time.Time  `json:"scheduledStart"`
	ScheduledEnd    time.Time  `json:"scheduledEnd"`
	DurationMinutes int        `json:"durationMinutes"`
	Priority        string     `json:"priority"`
	AssigneeID      *int64     `json:"assigneeId,omitempty"`
	Status          string     `json:"status"`
	Materials       []string   `json:"materials"`
	Notes           *string    `json:"notes,omitempty"`
	ActualStart     *time.Time `json:"actualStart,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	ActualDuration  *int       `json:"actualDuration,omitempty"`
	Cost            *float64   `json:"cost,omitempty"`
	CreatedBy       *int64     `json:"createdBy,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// CompleteResponse завершённые работы и, если было запрошено, следующее обслуживание
type CompleteResponse struct {
	Maintenance *MaintenanceResponse `json:"maintenance"`
	FollowUp    *MaintenanceResponse `json:"followUp,omitempty"`
}

// ListResponse страница списка работ
type ListResponse struct {
	Items []*MaintenanceResponse `json:"items"`
	Total int                    `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
	Pages int                    `json:"pages"`
}

// StatsResponse агрегаты по работам
type StatsResponse struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	ByType     map[string]int `json:"byType"`
	ByPriority map[string]int `json:"byPriority"`
	Overdue    int            `json:"overdue"`
}

// FromDomainMaintenance конвертирует domain модель в DTO
func FromDomainMaintenance(m *domain.Maintenance) *MaintenanceResponse {
	if m == nil {
		return nil
	}

	materials := m.Materials
	if materials == nil {
		materials = []string{}
	}

	return &MaintenanceResponse{
		ID:              m.ID,
		CourtID:         m.CourtID,
		Type:            string(m.Type),
		Title:           m.Title,
		Description:     m.Description,
		ScheduledStart:  m.ScheduledStart,
		ScheduledEnd:    m.End(),
		DurationMinutes: m.DurationMinutes,
		Priority:        string(m.Priority),
		AssigneeID:      m.AssigneeID,
		Status:          string(m.Status),
		Materials:       materials,
		Notes:           m.Notes,
		ActualStart:     m.ActualStart,
		CompletedAt:     m.CompletedAt,
		ActualDuration:  m.ActualDuration,
		Cost:            m.Cost,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomainStats конвертирует агрегаты, все значения перечислений присутствуют в ответе
func FromDomainStats(s *domain.MaintenanceStats) *StatsResponse {
	resp := &StatsResponse{
		Total:      s.Total,
		ByStatus:   make(map[string]int),
		ByType:     make(map[string]int),
		ByPriority: make(map[string]int),
		Overdue:    s.Overdue,
	}

	for _, st := range []domain.MaintenanceStatus{
		domain.MaintenanceScheduled, domain.MaintenanceInProgress, domain.MaintenanceCompleted, domain.MaintenanceCancelled,
	} {
		resp.ByStatus[string(st)] = s.ByStatus[st]
	}
	for _, t := range []domain.MaintenanceType{
		domain.MaintenancePreventive, domain.MaintenanceCorrective, domain.MaintenanceEmergency,
	} {
		resp.ByType[string(t)] = s.ByType[t]
	}
	for _, p := range []domain.MaintenancePriority{
		domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityUrgent,
	} {
		resp.ByPriority[string(p)] = s.ByPriority[p]
	}

	return resp
}
