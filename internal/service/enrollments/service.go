package enrollments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	enrollmentRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/enrollment"
	tariffRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/tariff"
	userRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/user"
	"github.com/m04kA/SMC-FacilityService/internal/service/enrollments/models"
	"github.com/m04kA/SMC-FacilityService/pkg/txmanager"
)

// Service заявки на возрастные тарифы
type Service struct {
	enrollmentRepo EnrollmentRepository
	tariffRepo     TariffRepository
	userRepo       UserRepository
	notifier       Notifier
	txManager      TransactionManager
	timeProvider   TimeProvider
	logger         Logger
}

// NewService создает новый экземпляр сервиса заявок
func NewService(
	enrollmentRepo EnrollmentRepository,
	tariffRepo TariffRepository,
	userRepo UserRepository,
	notifier Notifier,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		enrollmentRepo: enrollmentRepo,
		tariffRepo:     tariffRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		txManager:      txManager,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// Create создает заявку в статусе PENDING и первую запись аудита
// Возраст считается на момент заявки полными годами
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (*models.EnrollmentResponse, error) {
	s.logger.Info("Create: enrollment of user=%d to tariff=%d", req.UserID, req.TariffID)

	if req.TariffID <= 0 {
		return nil, fmt.Errorf("%w: tariffId must be positive", ErrInvalidInput)
	}
	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return nil, fmt.Errorf("%w: notes too long", ErrInvalidInput)
	}

	var result *domain.TariffEnrollment

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Пользователь и дата рождения
		user, err := s.userRepo.GetByID(txCtx, req.UserID)
		if err != nil {
			if errors.Is(err, userRepo.ErrUserNotFound) {
				s.logger.Warn("Create: user id=%d not found", req.UserID)
				return ErrUserNotFound
			}
			s.logger.Error("Create: failed to get user id=%d: %v", req.UserID, err)
			return fmt.Errorf("%w: Create - get user: %v", ErrInternal, err)
		}

		if user.DateOfBirth == nil {
			s.logger.Warn("Create: user id=%d has no date of birth", req.UserID)
			return ErrMissingData
		}

		// 2. Тариф должен действовать сейчас
		tariff, err := s.tariffRepo.GetByID(txCtx, req.TariffID)
		if err != nil {
			if errors.Is(err, tariffRepo.ErrTariffNotFound) {
				s.logger.Warn("Create: tariff id=%d not found", req.TariffID)
				return ErrTariffNotFound
			}
			s.logger.Error("Create: failed to get tariff id=%d: %v", req.TariffID, err)
			return fmt.Errorf("%w: Create - get tariff: %v", ErrInternal, err)
		}

		now := s.timeProvider.Now()
		if !tariff.IsValidAt(now) {
			s.logger.Warn("Create: tariff id=%d is not active at %s", tariff.ID, now.Format("2006-01-02"))
			return ErrTariffInactive
		}

		// 3. Не больше одной действующей заявки на тариф
		exists, err := s.enrollmentRepo.HasActive(txCtx, req.UserID, req.TariffID)
		if err != nil {
			s.logger.Error("Create: failed to check active enrollments: %v", err)
			return fmt.Errorf("%w: Create - check active: %v", ErrInternal, err)
		}
		if exists {
			s.logger.Warn("Create: user=%d already has active enrollment to tariff=%d", req.UserID, req.TariffID)
			return ErrDuplicateRequest
		}

		// 4. Возраст внутри диапазона тарифа
		age := domain.AgeAt(*user.DateOfBirth, now)
		if !tariff.AcceptsAge(age) {
			s.logger.Warn("Create: user=%d age %d outside band of tariff=%d", req.UserID, age, tariff.ID)
			return ErrAgeIneligible
		}

		created, err := s.enrollmentRepo.Create(txCtx, &domain.TariffEnrollment{
			UserID:      req.UserID,
			TariffID:    req.TariffID,
			Status:      domain.EnrollmentPending,
			RequestedAt: now,
			Notes:       req.Notes,
		})
		if err != nil {
			return s.repoError("Create", 0, err)
		}
		segment := tariff.Segment
		created.Segment = &segment

		if err := s.audit(txCtx, "Create", created, nil, req.UserID); err != nil {
			return err
		}

		result = created
		return nil
	})
	if err != nil {
		return nil, s.txError("Create", 0, err)
	}

	s.logger.Info("Create: enrollment id=%d created", result.ID)
	return models.FromDomainEnrollment(result), nil
}

// Approve одобряет заявку. Повторное одобрение возвращает заявку без изменений
func (s *Service) Approve(ctx context.Context, id, actorID int64) (*models.EnrollmentResponse, error) {
	s.logger.Info("Approve: enrollment id=%d by user=%d", id, actorID)

	var result *domain.TariffEnrollment

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		e, err := s.enrollmentRepo.GetByID(txCtx, id)
		if err != nil {
			return s.repoError("Approve", id, err)
		}

		if e.Status == domain.EnrollmentApproved {
			s.logger.Info("Approve: enrollment id=%d already approved", id)
			result = e
			return nil
		}

		prev := e.Status
		now := s.timeProvider.Now()
		e.Status = domain.EnrollmentApproved
		e.ApprovedAt = &now
		e.ApprovedBy = &actorID

		if err := s.enrollmentRepo.UpdateStatus(txCtx, e); err != nil {
			return s.repoError("Approve", id, err)
		}

		if err := s.audit(txCtx, "Approve", e, &prev, actorID); err != nil {
			return err
		}

		if err := s.enqueue(txCtx, "Approve", domain.TemplateEnrollmentApproved, e); err != nil {
			return err
		}

		result = e
		return nil
	})
	if err != nil {
		return nil, s.txError("Approve", id, err)
	}

	return models.FromDomainEnrollment(result), nil
}

// Reject отклоняет заявку с обязательной причиной. Повторное отклонение ничего не меняет
func (s *Service) Reject(ctx context.Context, id, actorID int64, reason string) (*models.EnrollmentResponse, error) {
	s.logger.Info("Reject: enrollment id=%d by user=%d", id, actorID)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		s.logger.Warn("Reject: empty reason for enrollment id=%d", id)
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}
	if len(reason) > domain.MaxReasonLength {
		return nil, fmt.Errorf("%w: reason too long", ErrInvalidInput)
	}

	var result *domain.TariffEnrollment

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		e, err := s.enrollmentRepo.GetByID(txCtx, id)
		if err != nil {
			return s.repoError("Reject", id, err)
		}

		if e.Status == domain.EnrollmentRejected {
			s.logger.Info("Reject: enrollment id=%d already rejected", id)
			result = e
			return nil
		}

		prev := e.Status
		e.Status = domain.EnrollmentRejected
		e.Notes = appendNote(e.Notes, "Rejected: "+reason)

		if err := s.enrollmentRepo.UpdateStatus(txCtx, e); err != nil {
			return s.repoError("Reject", id, err)
		}

		if err := s.audit(txCtx, "Reject", e, &prev, actorID); err != nil {
			return err
		}

		if err := s.enqueue(txCtx, "Reject", domain.TemplateEnrollmentRejected, e); err != nil {
			return err
		}

		result = e
		return nil
	})
	if err != nil {
		return nil, s.txError("Reject", id, err)
	}

	return models.FromDomainEnrollment(result), nil
}

// List страница заявок с фильтрами по статусу, пользователю и сегменту
func (s *Service) List(ctx context.Context, req *models.ListRequest) (*models.ListResponse, error) {
	page := domain.NormalizePage(req.Page, req.Limit)
	filter := domain.EnrollmentFilter{UserID: req.UserID, Page: page.Page, Limit: page.Limit}

	if req.Status != nil {
		st, err := domain.ParseEnrollmentStatus(*req.Status)
		if err != nil {
			s.logger.Warn("List: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Status = &st
	}
	if req.Segment != nil {
		seg, err := domain.ParseTariffSegment(*req.Segment)
		if err != nil {
			s.logger.Warn("List: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Segment = &seg
	}

	var (
		items []*domain.TariffEnrollment
		total int
	)
	err := s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var listErr error
		items, total, listErr = s.enrollmentRepo.List(txCtx, filter)
		return listErr
	})
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	resp := &models.ListResponse{
		Items: make([]*models.EnrollmentResponse, 0, len(items)),
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
		Pages: page.Pages(total),
	}
	for _, e := range items {
		resp.Items = append(resp.Items, models.FromDomainEnrollment(e))
	}

	s.logger.Info("List: returned %d of %d enrollments", len(items), total)
	return resp, nil
}

// History записи аудита заявки, от старых к новым
func (s *Service) History(ctx context.Context, id int64) ([]models.AuditResponse, error) {
	var rows []*domain.EnrollmentAudit
	err := s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		if _, err := s.enrollmentRepo.GetByID(txCtx, id); err != nil {
			return s.repoError("History", id, err)
		}

		var err error
		rows, err = s.enrollmentRepo.GetAudit(txCtx, id)
		if err != nil {
			s.logger.Error("History: repository error for enrollment id=%d: %v", id, err)
			return fmt.Errorf("%w: History - repository error: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, s.txError("History", id, err)
	}

	return models.FromDomainAudit(rows), nil
}

// audit добавляет неизменяемую запись об изменении статуса со снимком заметок
func (s *Service) audit(ctx context.Context, op string, e *domain.TariffEnrollment, prev *domain.EnrollmentStatus, actorID int64) error {
	row := &domain.EnrollmentAudit{
		EnrollmentID: e.ID,
		OldStatus:    prev,
		NewStatus:    e.Status,
		ActorID:      &actorID,
		Notes:        e.Notes,
	}
	if err := s.enrollmentRepo.AddAudit(ctx, row); err != nil {
		s.logger.Error("%s: failed to append audit for enrollment id=%d: %v", op, e.ID, err)
		return fmt.Errorf("%w: %s - append audit: %v", ErrInternal, op, err)
	}
	return nil
}

func (s *Service) enqueue(ctx context.Context, op string, template domain.NotificationTemplate, e *domain.TariffEnrollment) error {
	userID := e.UserID
	payload := map[string]interface{}{
		"enrollmentId": e.ID,
		"tariffId":     e.TariffID,
		"status":       e.Status,
		"notes":        e.Notes,
	}
	if err := s.notifier.Enqueue(ctx, template, &userID, payload); err != nil {
		s.logger.Error("%s: failed to enqueue %s for enrollment id=%d: %v", op, template, e.ID, err)
		return fmt.Errorf("%w: %s - enqueue notification: %v", ErrInternal, op, err)
	}
	return nil
}

func (s *Service) repoError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, enrollmentRepo.ErrEnrollmentNotFound):
		s.logger.Warn("%s: enrollment id=%d not found", op, id)
		return ErrEnrollmentNotFound
	case errors.Is(err, enrollmentRepo.ErrDuplicateEnrollment):
		s.logger.Warn("%s: active enrollment unique index violated, enrollment id=%d", op, id)
		return ErrDuplicateRequest
	default:
		s.logger.Error("%s: repository error for enrollment id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
}

// txError пропускает ошибки сервиса и переводит ошибки транзакции
func (s *Service) txError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, txmanager.ErrSerialization):
		s.logger.Warn("%s: concurrent update of enrollment id=%d", op, id)
		return ErrConcurrentUpdate
	case errors.Is(err, ErrEnrollmentNotFound),
		errors.Is(err, ErrTariffNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrMissingData),
		errors.Is(err, ErrTariffInactive),
		errors.Is(err, ErrDuplicateRequest),
		errors.Is(err, ErrAgeIneligible),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInternal):
		return err
	default:
		s.logger.Error("%s: transaction error for enrollment id=%d: %v", op, id, err)
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
