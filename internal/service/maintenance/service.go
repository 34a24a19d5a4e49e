package maintenance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	courtRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/court"
	maintenanceRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/maintenance"
	userRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/user"
	"github.com/m04kA/SMC-FacilityService/internal/service/maintenance/models"
	"github.com/m04kA/SMC-FacilityService/pkg/txmanager"
)

// Config параметры планировщика
type Config struct {
	// Буфер перед началом существующего окна, в который нельзя начинать новые работы
	ConflictBuffer time.Duration
}

// Service планировщик работ по обслуживанию кортов
type Service struct {
	maintenanceRepo MaintenanceRepository
	courtRepo       CourtRepository
	userRepo        UserRepository
	notifier        Notifier
	txManager       TransactionManager
	timeProvider    TimeProvider
	logger          Logger
	cfg             Config
}

// NewService создает новый экземпляр сервиса обслуживания
func NewService(
	maintenanceRepo MaintenanceRepository,
	courtRepo CourtRepository,
	userRepo UserRepository,
	notifier Notifier,
	txManager TransactionManager,
	logger Logger,
	cfg Config,
) *Service {
	return &Service{
		maintenanceRepo: maintenanceRepo,
		courtRepo:       courtRepo,
		userRepo:        userRepo,
		notifier:        notifier,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
		cfg:             cfg,
	}
}

// Create планирует работы на корте
func (s *Service) Create(ctx context.Context, actorID int64, req *models.CreateRequest) (*models.MaintenanceResponse, error) {
	s.logger.Info("Create: maintenance on court=%d at %s for %d min by user=%d",
		req.CourtID, req.ScheduledStart.Format(time.RFC3339), req.DurationMinutes, actorID)

	m, err := buildMaintenance(req)
	if err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}
	m.CreatedBy = &actorID

	if err := s.checkCourt(ctx, "Create", m.CourtID); err != nil {
		return nil, err
	}

	if err := s.checkAssignee(ctx, "Create", m.AssigneeID); err != nil {
		return nil, err
	}

	var created *domain.Maintenance

	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.schedule(txCtx, "Create", m)
		return err
	})
	if err != nil {
		return nil, s.txError("Create", 0, err)
	}

	s.logger.Info("Create: maintenance id=%d scheduled on court=%d", created.ID, created.CourtID)
	return models.FromDomainMaintenance(created), nil
}

// Update изменяет запланированные работы
// Проверка пересечений повторяется только при изменении начала или длительности
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateRequest) (*models.MaintenanceResponse, error) {
	s.logger.Info("Update: maintenance id=%d", id)

	var result *domain.Maintenance

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		m, err := s.load(txCtx, "Update", id)
		if err != nil {
			return err
		}

		if m.Status == domain.MaintenanceCompleted {
			s.logger.Warn("Update: maintenance id=%d is completed", id)
			return ErrImmutableState
		}

		windowChanged, assigneeChanged, err := applyUpdate(m, req)
		if err != nil {
			s.logger.Warn("Update: validation failed for maintenance id=%d: %v", id, err)
			return err
		}

		if assigneeChanged {
			if err := s.checkAssignee(txCtx, "Update", m.AssigneeID); err != nil {
				return err
			}
		}

		if windowChanged {
			if err := s.checkConflicts(txCtx, "Update", m.CourtID, m.ScheduledStart, m.DurationMinutes, &m.ID); err != nil {
				return err
			}
		}

		if err := s.maintenanceRepo.Update(txCtx, m); err != nil {
			return s.repoError("Update", id, err)
		}

		result = m
		return nil
	})
	if err != nil {
		return nil, s.txError("Update", id, err)
	}

	s.logger.Info("Update: maintenance id=%d updated", id)
	return models.FromDomainMaintenance(result), nil
}

// Start начинает работы, допустимо только из SCHEDULED
func (s *Service) Start(ctx context.Context, id int64) (*models.MaintenanceResponse, error) {
	s.logger.Info("Start: maintenance id=%d", id)

	var result *domain.Maintenance

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		m, err := s.load(txCtx, "Start", id)
		if err != nil {
			return err
		}

		if m.Status != domain.MaintenanceScheduled {
			s.logger.Warn("Start: maintenance id=%d in status=%s", id, m.Status)
			return ErrInvalidState
		}

		now := s.timeProvider.Now()
		m.Status = domain.MaintenanceInProgress
		m.ActualStart = &now

		if err := s.maintenanceRepo.Update(txCtx, m); err != nil {
			return s.repoError("Start", id, err)
		}

		result = m
		return nil
	})
	if err != nil {
		return nil, s.txError("Start", id, err)
	}

	s.logger.Info("Start: maintenance id=%d in progress", id)
	return models.FromDomainMaintenance(result), nil
}

// Complete завершает работы из любого статуса, кроме COMPLETED
// При NextMaintenanceDate в той же транзакции планируется следующее обслуживание
func (s *Service) Complete(ctx context.Context, actorID, id int64, req *models.CompleteRequest) (*models.CompleteResponse, error) {
	s.logger.Info("Complete: maintenance id=%d by user=%d", id, actorID)

	if err := validateComplete(req, s.timeProvider.Now()); err != nil {
		s.logger.Warn("Complete: validation failed for maintenance id=%d: %v", id, err)
		return nil, err
	}

	resp := &models.CompleteResponse{}

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		m, err := s.load(txCtx, "Complete", id)
		if err != nil {
			return err
		}

		if m.Status == domain.MaintenanceCompleted {
			s.logger.Warn("Complete: maintenance id=%d already completed", id)
			return ErrInvalidState
		}

		now := s.timeProvider.Now()
		m.Status = domain.MaintenanceCompleted
		m.CompletedAt = &now
		m.Cost = req.Cost
		m.ActualDuration = req.ActualDuration
		if m.ActualDuration == nil && m.ActualStart != nil {
			minutes := int(now.Sub(*m.ActualStart).Minutes())
			m.ActualDuration = &minutes
		}
		if req.Notes != nil && strings.TrimSpace(*req.Notes) != "" {
			m.Notes = appendNote(m.Notes, "Completed: "+strings.TrimSpace(*req.Notes))
		}

		if err := s.maintenanceRepo.Update(txCtx, m); err != nil {
			return s.repoError("Complete", id, err)
		}

		if err := s.enqueue(txCtx, "Complete", domain.TemplateMaintenanceCompleted, m.CreatedBy, m); err != nil {
			return err
		}

		resp.Maintenance = models.FromDomainMaintenance(m)

		if req.NextMaintenanceDate == nil {
			return nil
		}

		next := &domain.Maintenance{
			CourtID:         m.CourtID,
			Type:            domain.MaintenancePreventive,
			Title:           m.Title,
			Description:     m.Description,
			ScheduledStart:  *req.NextMaintenanceDate,
			DurationMinutes: m.DurationMinutes,
			Priority:        m.Priority,
			AssigneeID:      m.AssigneeID,
			Status:          domain.MaintenanceScheduled,
			Materials:       m.Materials,
			CreatedBy:       &actorID,
		}

		followUp, err := s.schedule(txCtx, "Complete", next)
		if err != nil {
			return err
		}

		resp.FollowUp = models.FromDomainMaintenance(followUp)
		return nil
	})
	if err != nil {
		return nil, s.txError("Complete", id, err)
	}

	s.logger.Info("Complete: maintenance id=%d completed, follow-up=%t", id, resp.FollowUp != nil)
	return resp, nil
}

// Cancel отменяет работы, кроме завершённых. Причина дописывается в заметки
func (s *Service) Cancel(ctx context.Context, id int64, reason string) (*models.MaintenanceResponse, error) {
	s.logger.Info("Cancel: maintenance id=%d", id)

	reason = strings.TrimSpace(reason)
	if len(reason) > domain.MaxReasonLength {
		return nil, fmt.Errorf("%w: reason too long", ErrInvalidInput)
	}

	var result *domain.Maintenance

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		m, err := s.load(txCtx, "Cancel", id)
		if err != nil {
			return err
		}

		switch m.Status {
		case domain.MaintenanceCompleted:
			s.logger.Warn("Cancel: maintenance id=%d is completed", id)
			return ErrImmutableState
		case domain.MaintenanceCancelled:
			s.logger.Warn("Cancel: maintenance id=%d already cancelled", id)
			return ErrInvalidState
		}

		m.Status = domain.MaintenanceCancelled
		if reason != "" {
			m.Notes = appendNote(m.Notes, "Cancelled: "+reason)
		}

		if err := s.maintenanceRepo.Update(txCtx, m); err != nil {
			return s.repoError("Cancel", id, err)
		}

		result = m
		return nil
	})
	if err != nil {
		return nil, s.txError("Cancel", id, err)
	}

	s.logger.Info("Cancel: maintenance id=%d cancelled", id)
	return models.FromDomainMaintenance(result), nil
}

// GetByID получает работы по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.MaintenanceResponse, error) {
	s.logger.Info("GetByID: fetching maintenance id=%d", id)

	m, err := s.load(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	return models.FromDomainMaintenance(m), nil
}

// List возвращает страницу работ по фильтрам
func (s *Service) List(ctx context.Context, req *models.ListRequest) (*models.ListResponse, error) {
	filter, err := buildFilter(req)
	if err != nil {
		s.logger.Warn("List: invalid filter: %v", err)
		return nil, err
	}

	page := domain.NormalizePage(req.Page, req.Limit)
	filter.Page, filter.Limit = page.Page, page.Limit

	var (
		items []*domain.Maintenance
		total int
	)
	err = s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var listErr error
		items, total, listErr = s.maintenanceRepo.List(txCtx, filter)
		return listErr
	})
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	resp := &models.ListResponse{
		Items: make([]*models.MaintenanceResponse, 0, len(items)),
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
		Pages: page.Pages(total),
	}
	for _, m := range items {
		resp.Items = append(resp.Items, models.FromDomainMaintenance(m))
	}

	s.logger.Info("List: returned %d of %d maintenance records", len(items), total)
	return resp, nil
}

// Stats агрегаты по статусу, типу и приоритету плюс количество просроченных
func (s *Service) Stats(ctx context.Context) (*models.StatsResponse, error) {
	stats, err := s.maintenanceRepo.GetStats(ctx, s.timeProvider.Now())
	if err != nil {
		s.logger.Error("Stats: repository error: %v", err)
		return nil, fmt.Errorf("%w: Stats - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainStats(stats), nil
}

// schedule проверяет пересечения и создаёт работы. Вызывается внутри транзакции
func (s *Service) schedule(ctx context.Context, op string, m *domain.Maintenance) (*domain.Maintenance, error) {
	if err := s.checkConflicts(ctx, op, m.CourtID, m.ScheduledStart, m.DurationMinutes, nil); err != nil {
		return nil, err
	}

	created, err := s.maintenanceRepo.Create(ctx, m)
	if err != nil {
		s.logger.Error("%s: failed to create maintenance on court=%d: %v", op, m.CourtID, err)
		return nil, fmt.Errorf("%w: %s - create maintenance: %v", ErrInternal, op, err)
	}

	if err := s.enqueue(ctx, op, domain.TemplateMaintenanceScheduled, created.AssigneeID, created); err != nil {
		return nil, err
	}

	return created, nil
}

// checkConflicts ищет активные окна корта, конфликтующие с [start, start+duration)
func (s *Service) checkConflicts(ctx context.Context, op string, courtID int64, start time.Time, durationMinutes int, excludeID *int64) error {
	duration := time.Duration(durationMinutes) * time.Minute
	searchEnd := domain.ConflictSearchEnd(start, duration, s.cfg.ConflictBuffer)

	candidates, err := s.maintenanceRepo.GetConflictCandidates(ctx, courtID, start, searchEnd, excludeID)
	if err != nil {
		s.logger.Error("%s: failed to get conflict candidates for court=%d: %v", op, courtID, err)
		return fmt.Errorf("%w: %s - get conflict candidates: %v", ErrInternal, op, err)
	}

	for _, existing := range candidates {
		if existing.ConflictsWith(start, duration, s.cfg.ConflictBuffer) {
			s.logger.Warn("%s: window %s +%dmin on court=%d conflicts with maintenance id=%d",
				op, start.Format(time.RFC3339), durationMinutes, courtID, existing.ID)
			return ErrSchedulingConflict
		}
	}

	return nil
}

func (s *Service) checkCourt(ctx context.Context, op string, courtID int64) error {
	if _, err := s.courtRepo.GetByID(ctx, courtID); err != nil {
		if errors.Is(err, courtRepo.ErrCourtNotFound) {
			s.logger.Warn("%s: court id=%d not found", op, courtID)
			return ErrCourtNotFound
		}
		s.logger.Error("%s: failed to get court id=%d: %v", op, courtID, err)
		return fmt.Errorf("%w: %s - get court: %v", ErrInternal, op, err)
	}
	return nil
}

// checkAssignee исполнитель должен существовать и иметь роль STAFF или ADMIN
func (s *Service) checkAssignee(ctx context.Context, op string, assigneeID *int64) error {
	if assigneeID == nil {
		return nil
	}

	user, err := s.userRepo.GetByID(ctx, *assigneeID)
	if err != nil {
		if errors.Is(err, userRepo.ErrUserNotFound) {
			s.logger.Warn("%s: assignee id=%d not found", op, *assigneeID)
			return ErrAssigneeInvalid
		}
		s.logger.Error("%s: failed to get assignee id=%d: %v", op, *assigneeID, err)
		return fmt.Errorf("%w: %s - get assignee: %v", ErrInternal, op, err)
	}

	if !user.IsStaff() {
		s.logger.Warn("%s: assignee id=%d has role=%s", op, *assigneeID, user.Role)
		return ErrAssigneeInvalid
	}

	return nil
}

func (s *Service) load(ctx context.Context, op string, id int64) (*domain.Maintenance, error) {
	m, err := s.maintenanceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.repoError(op, id, err)
	}
	return m, nil
}

func (s *Service) enqueue(ctx context.Context, op string, template domain.NotificationTemplate, recipientID *int64, m *domain.Maintenance) error {
	payload := map[string]interface{}{
		"maintenanceId":  m.ID,
		"courtId":        m.CourtID,
		"type":           m.Type,
		"title":          m.Title,
		"scheduledStart": m.ScheduledStart,
		"scheduledEnd":   m.End(),
		"priority":       m.Priority,
		"status":         m.Status,
	}

	if err := s.notifier.Enqueue(ctx, template, recipientID, payload); err != nil {
		s.logger.Error("%s: failed to enqueue %s for maintenance id=%d: %v", op, template, m.ID, err)
		return fmt.Errorf("%w: %s - enqueue notification: %v", ErrInternal, op, err)
	}
	return nil
}

func (s *Service) repoError(op string, id int64, err error) error {
	if errors.Is(err, maintenanceRepo.ErrMaintenanceNotFound) {
		s.logger.Warn("%s: maintenance id=%d not found", op, id)
		return ErrMaintenanceNotFound
	}
	s.logger.Error("%s: repository error for maintenance id=%d: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

// txError пропускает ошибки сервиса и переводит ошибки транзакции
func (s *Service) txError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, txmanager.ErrSerialization):
		s.logger.Warn("%s: concurrent update of maintenance id=%d", op, id)
		return ErrConcurrentUpdate
	case errors.Is(err, ErrMaintenanceNotFound),
		errors.Is(err, ErrAssigneeInvalid),
		errors.Is(err, ErrSchedulingConflict),
		errors.Is(err, ErrImmutableState),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInternal):
		return err
	default:
		s.logger.Error("%s: transaction error for maintenance id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %s - transaction: %v", ErrInternal, op, err)
	}
}

func appendNote(notes *string, line string) *string {
	if notes == nil || *notes == "" {
		return &line
	}
	joined := *notes + "\n" + line
	return &joined
}
