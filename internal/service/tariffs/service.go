package tariffs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	tariffRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/tariff"
	"github.com/m04kA/SMC-FacilityService/internal/service/tariffs/models"
	"github.com/m04kA/SMC-FacilityService/pkg/txmanager"
)

// Service управление возрастными тарифами
type Service struct {
	tariffRepo     TariffRepository
	courtRepo      CourtRepository
	enrollmentRepo EnrollmentRepository
	txManager      TransactionManager
	logger         Logger
}

// NewService создает новый экземпляр сервиса тарифов
func NewService(
	tariffRepo TariffRepository,
	courtRepo CourtRepository,
	enrollmentRepo EnrollmentRepository,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		tariffRepo:     tariffRepo,
		courtRepo:      courtRepo,
		enrollmentRepo: enrollmentRepo,
		txManager:      txManager,
		logger:         logger,
	}
}

// Create создает тариф и привязку к кортам в одной транзакции
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (*models.TariffResponse, error) {
	s.logger.Info("Create: tariff segment=%s name=%q", req.Segment, req.Name)

	t := &domain.AgeBasedTariff{
		Name:       strings.TrimSpace(req.Name),
		MinAge:     req.MinAge,
		MaxAge:     req.MaxAge,
		IsActive:   true,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
		CourtIDs:   uniqueIDs(req.CourtIDs),
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	var err error
	if t.Segment, err = domain.ParseTariffSegment(req.Segment); err != nil {
		s.logger.Warn("Create: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if t.Discount, err = domain.NormalizeDiscount(req.Discount); err != nil {
		s.logger.Warn("Create: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validateTariff(t); err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}

	var created *domain.AgeBasedTariff

	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		if t.IsActive {
			if err := s.checkSegmentFree(txCtx, "Create", t.Segment, nil); err != nil {
				return err
			}
		}

		if err := s.checkCourts(txCtx, "Create", t.CourtIDs); err != nil {
			return err
		}

		res, err := s.tariffRepo.Create(txCtx, t)
		if err != nil {
			return s.repoError("Create", 0, err)
		}

		if err := s.tariffRepo.ReplaceCourts(txCtx, res.ID, t.CourtIDs); err != nil {
			return s.repoError("Create", res.ID, err)
		}

		res.CourtIDs = t.CourtIDs
		created = res
		return nil
	})
	if err != nil {
		return nil, s.txError("Create", 0, err)
	}

	s.logger.Info("Create: tariff id=%d created for segment=%s", created.ID, created.Segment)
	return models.FromDomainTariff(created), nil
}

// Update изменяет тариф. Список кортов, если передан, пересоздаётся целиком
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateRequest) (*models.TariffResponse, error) {
	s.logger.Info("Update: tariff id=%d", id)

	var result *domain.AgeBasedTariff

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		t, err := s.tariffRepo.GetByID(txCtx, id)
		if err != nil {
			return s.repoError("Update", id, err)
		}

		if err := applyUpdate(t, req); err != nil {
			s.logger.Warn("Update: validation failed for tariff id=%d: %v", id, err)
			return err
		}

		if t.IsActive {
			if err := s.checkSegmentFree(txCtx, "Update", t.Segment, &t.ID); err != nil {
				return err
			}
		}

		if req.CourtIDs != nil {
			t.CourtIDs = uniqueIDs(*req.CourtIDs)
			if err := s.checkCourts(txCtx, "Update", t.CourtIDs); err != nil {
				return err
			}
			if err := s.tariffRepo.ReplaceCourts(txCtx, t.ID, t.CourtIDs); err != nil {
				return s.repoError("Update", id, err)
			}
		}

		if err := s.tariffRepo.Update(txCtx, t); err != nil {
			return s.repoError("Update", id, err)
		}

		result = t
		return nil
	})
	if err != nil {
		return nil, s.txError("Update", id, err)
	}

	s.logger.Info("Update: tariff id=%d updated", id)
	return models.FromDomainTariff(result), nil
}

// Delete удаляет тариф без заявок
// Действующие (PENDING/APPROVED) проверяются заранее, историю отсекает внешний ключ
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.logger.Info("Delete: tariff id=%d", id)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if _, err := s.tariffRepo.GetByID(txCtx, id); err != nil {
			return s.repoError("Delete", id, err)
		}

		active, err := s.enrollmentRepo.CountActiveByTariff(txCtx, id)
		if err != nil {
			s.logger.Error("Delete: failed to count enrollments of tariff id=%d: %v", id, err)
			return fmt.Errorf("%w: Delete - count enrollments: %v", ErrInternal, err)
		}

		if active > 0 {
			s.logger.Warn("Delete: tariff id=%d has %d active enrollments", id, active)
			return ErrTariffInUse
		}

		if err := s.tariffRepo.Delete(txCtx, id); err != nil {
			return s.repoError("Delete", id, err)
		}
		return nil
	})
	if err != nil {
		return s.txError("Delete", id, err)
	}

	s.logger.Info("Delete: tariff id=%d deleted", id)
	return nil
}

// GetByID получает тариф по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.TariffResponse, error) {
	s.logger.Info("GetByID: fetching tariff id=%d", id)

	t, err := s.tariffRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.repoError("GetByID", id, err)
	}

	return models.FromDomainTariff(t), nil
}

// List возвращает тарифы по фильтру
func (s *Service) List(ctx context.Context, req *models.ListRequest) ([]*models.TariffResponse, error) {
	filter := domain.TariffFilter{ActiveOnly: req.ActiveOnly}

	if req.Segment != nil {
		seg, err := domain.ParseTariffSegment(*req.Segment)
		if err != nil {
			s.logger.Warn("List: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Segment = &seg
	}

	items, err := s.tariffRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	resp := make([]*models.TariffResponse, 0, len(items))
	for _, t := range items {
		resp = append(resp, models.FromDomainTariff(t))
	}

	s.logger.Info("List: returned %d tariffs", len(resp))
	return resp, nil
}

// checkSegmentFree у сегмента не должно быть другого активного тарифа
func (s *Service) checkSegmentFree(ctx context.Context, op string, segment domain.TariffSegment, excludeID *int64) error {
	existing, err := s.tariffRepo.GetActiveBySegment(ctx, segment, excludeID)
	if errors.Is(err, tariffRepo.ErrTariffNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Error("%s: failed to check segment=%s: %v", op, segment, err)
		return fmt.Errorf("%w: %s - check segment: %v", ErrInternal, op, err)
	}

	s.logger.Warn("%s: segment=%s already has active tariff id=%d", op, segment, existing.ID)
	return ErrSegmentTaken
}

func (s *Service) checkCourts(ctx context.Context, op string, courtIDs []int64) error {
	if len(courtIDs) == 0 {
		return nil
	}

	found, err := s.courtRepo.CountExisting(ctx, courtIDs)
	if err != nil {
		s.logger.Error("%s: failed to check courts: %v", op, err)
		return fmt.Errorf("%w: %s - check courts: %v", ErrInternal, op, err)
	}

	if found != len(courtIDs) {
		s.logger.Warn("%s: %d of %d courts exist", op, found, len(courtIDs))
		return ErrCourtNotFound
	}
	return nil
}

func (s *Service) repoError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, tariffRepo.ErrTariffNotFound):
		s.logger.Warn("%s: tariff id=%d not found", op, id)
		return ErrTariffNotFound
	case errors.Is(err, tariffRepo.ErrSegmentTaken):
		s.logger.Warn("%s: segment unique index violated for tariff id=%d", op, id)
		return ErrSegmentTaken
	case errors.Is(err, tariffRepo.ErrTariffReferenced):
		s.logger.Warn("%s: tariff id=%d is referenced by enrollments", op, id)
		return ErrTariffInUse
	default:
		s.logger.Error("%s: repository error for tariff id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
}

// txError пропускает ошибки сервиса и переводит ошибки транзакции
func (s *Service) txError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, txmanager.ErrSerialization):
		s.logger.Warn("%s: concurrent update of tariff id=%d", op, id)
		return ErrConcurrentUpdate
	case errors.Is(err, ErrTariffNotFound),
		errors.Is(err, ErrSegmentTaken),
		errors.Is(err, ErrCourtNotFound),
		errors.Is(err, ErrTariffInUse),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInternal):
		return err
	default:
		s.logger.Error("%s: transaction error for tariff id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %s - transaction: %v", ErrInternal, op, err)
	}
}

// applyUpdate применяет заданные поля и проверяет итоговый тариф целиком
func applyUpdate(t *domain.AgeBasedTariff, req *models.UpdateRequest) error {
	if req.Segment != nil {
		seg, err := domain.ParseTariffSegment(*req.Segment)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		t.Segment = seg
	}
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.MinAge != nil {
		t.MinAge = *req.MinAge
	}
	if req.MaxAge != nil {
		t.MaxAge = req.MaxAge
	}
	if req.ClearMax {
		t.MaxAge = nil
	}
	if req.Discount != nil {
		d, err := domain.NormalizeDiscount(*req.Discount)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		t.Discount = d
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if req.ValidFrom != nil {
		t.ValidFrom = req.ValidFrom
	}
	if req.ValidUntil != nil {
		t.ValidUntil = req.ValidUntil
	}

	return validateTariff(t)
}

func validateTariff(t *domain.AgeBasedTariff) error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(t.Name) > domain.MaxTitleLength {
		return fmt.Errorf("%w: name too long", ErrInvalidInput)
	}
	if err := domain.ValidateAgeBand(t.MinAge, t.MaxAge); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := domain.ValidateValidity(t.ValidFrom, t.ValidUntil); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	for _, id := range t.CourtIDs {
		if id <= 0 {
			return fmt.Errorf("%w: court ids must be positive", ErrInvalidInput)
		}
	}
	return nil
}

// uniqueIDs убирает повторы, порядок первых вхождений сохраняется
func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
