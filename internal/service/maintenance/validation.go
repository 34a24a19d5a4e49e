package maintenance

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	"github.com/m04kA/SMC-FacilityService/internal/service/maintenance/models"
)

// buildMaintenance валидирует запрос и собирает новые работы в статусе SCHEDULED
func buildMaintenance(req *models.CreateRequest) (*domain.Maintenance, error) {
	if req.CourtID <= 0 {
		return nil, fmt.Errorf("%w: courtId must be positive", ErrInvalidInput)
	}

	mType, err := domain.ParseMaintenanceType(req.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	priority := domain.PriorityMedium
	if req.Priority != "" {
		if priority, err = domain.ParseMaintenancePriority(req.Priority); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	title := strings.TrimSpace(req.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	if req.ScheduledStart.IsZero() {
		return nil, fmt.Errorf("%w: scheduledStart is required", ErrInvalidInput)
	}

	if err := validateDuration(req.DurationMinutes); err != nil {
		return nil, err
	}

	if err := validateNotes(req.Notes); err != nil {
		return nil, err
	}

	return &domain.Maintenance{
		CourtID:         req.CourtID,
		Type:            mType,
		Title:           title,
		Description:     req.Description,
		ScheduledStart:  req.ScheduledStart,
		DurationMinutes: req.DurationMinutes,
		Priority:        priority,
		AssigneeID:      req.AssigneeID,
		Status:          domain.MaintenanceScheduled,
		Materials:       req.Materials,
		Notes:           req.Notes,
	}, nil
}

// applyUpdate применяет заданные поля запроса.
// Возвращает признаки изменения окна работ и исполнителя
func applyUpdate(m *domain.Maintenance, req *models.UpdateRequest) (windowChanged, assigneeChanged bool, err error) {
	if req.Type != nil {
		t, err := domain.ParseMaintenanceType(*req.Type)
		if err != nil {
			return false, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		m.Type = t
	}

	if req.Priority != nil {
		p, err := domain.ParseMaintenancePriority(*req.Priority)
		if err != nil {
			return false, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		m.Priority = p
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := validateTitle(title); err != nil {
			return false, false, err
		}
		m.Title = title
	}

	if req.ScheduledStart != nil && !req.ScheduledStart.Equal(m.ScheduledStart) {
		if req.ScheduledStart.IsZero() {
			return false, false, fmt.Errorf("%w: scheduledStart is required", ErrInvalidInput)
		}
		m.ScheduledStart = *req.ScheduledStart
		windowChanged = true
	}

	if req.DurationMinutes != nil && *req.DurationMinutes != m.DurationMinutes {
		if err := validateDuration(*req.DurationMinutes); err != nil {
			return false, false, err
		}
		m.DurationMinutes = *req.DurationMinutes
		windowChanged = true
	}

	if req.AssigneeID != nil && (m.AssigneeID == nil || *m.AssigneeID != *req.AssigneeID) {
		m.AssigneeID = req.AssigneeID
		assigneeChanged = true
	}

	if req.Notes != nil {
		if err := validateNotes(req.Notes); err != nil {
			return false, false, err
		}
		m.Notes = req.Notes
	}

	if req.Description != nil {
		m.Description = req.Description
	}
	if req.Materials != nil {
		m.Materials = req.Materials
	}

	return windowChanged, assigneeChanged, nil
}

func validateComplete(req *models.CompleteRequest, now time.Time) error {
	if req.NextMaintenanceDate != nil && !req.NextMaintenanceDate.After(now) {
		return fmt.Errorf("%w: nextMaintenanceDate must be in the future", ErrInvalidInput)
	}
	if req.ActualDuration != nil && *req.ActualDuration < 0 {
		return fmt.Errorf("%w: actualDuration must not be negative", ErrInvalidInput)
	}
	if req.Cost != nil && *req.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", ErrInvalidInput)
	}
	return validateNotes(req.Notes)
}

// buildFilter переводит строковые фильтры в значения перечислений
func buildFilter(req *models.ListRequest) (domain.MaintenanceFilter, error) {
	filter := domain.MaintenanceFilter{CourtID: req.CourtID}

	if req.Status != nil {
		st, err := domain.ParseMaintenanceStatus(*req.Status)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Status = &st
	}
	if req.Type != nil {
		t, err := domain.ParseMaintenanceType(*req.Type)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Type = &t
	}
	if req.Priority != nil {
		p, err := domain.ParseMaintenancePriority(*req.Priority)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Priority = &p
	}

	return filter, nil
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(title) > domain.MaxTitleLength {
		return fmt.Errorf("%w: title too long", ErrInvalidInput)
	}
	return nil
}

func validateDuration(minutes int) error {
	if minutes <= 0 || minutes > domain.MaxMaintenanceMinutes {
		return fmt.Errorf("%w: durationMinutes must be between 1 and %d", ErrInvalidInput, domain.MaxMaintenanceMinutes)
	}
	return nil
}

func validateNotes(notes *string) error {
	if notes != nil && len(*notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes too long", ErrInvalidInput)
	}
	return nil
}
