package create_reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	courtRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/court"
	userRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/user"
	"github.com/m04kA/SMC-FacilityService/internal/service/reservations/models"
	"github.com/m04kA/SMC-FacilityService/pkg/txmanager"
)

// UseCase use case для создания бронирования корта
type UseCase struct {
	reservationRepo ReservationRepository
	maintenanceRepo MaintenanceRepository
	courtRepo       CourtRepository
	userRepo        UserRepository
	notifier        Notifier
	txManager       TransactionManager
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	maintenanceRepo MaintenanceRepository,
	courtRepo CourtRepository,
	userRepo UserRepository,
	notifier Notifier,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		maintenanceRepo: maintenanceRepo,
		courtRepo:       courtRepo,
		userRepo:        userRepo,
		notifier:        notifier,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case создания бронирования
// Проверка пересечений и вставка выполняются в сериализуемой транзакции
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*models.ReservationResponse, error) {
	uc.logger.Info("CreateReservation: user=%d, court=%d, start=%s, end=%s",
		req.UserID, req.CourtID, req.StartTime.Format("2006-01-02T15:04"), req.EndTime.Format("2006-01-02T15:04"))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}

	if err := validateTimeRange(req.StartTime, req.EndTime, uc.timeProvider.Now()); err != nil {
		uc.logger.Warn("CreateReservation: time range validation failed: %v", err)
		return nil, err
	}

	// 2. Корт должен существовать и быть активным
	court, err := uc.courtRepo.GetByID(ctx, req.CourtID)
	if err != nil {
		if errors.Is(err, courtRepo.ErrCourtNotFound) {
			uc.logger.Warn("CreateReservation: court id=%d not found", req.CourtID)
			return nil, ErrCourtNotFound
		}
		uc.logger.Error("CreateReservation: failed to get court id=%d: %v", req.CourtID, err)
		return nil, fmt.Errorf("%w: failed to get court: %v", ErrInternal, err)
	}

	if !court.IsActive {
		uc.logger.Warn("CreateReservation: court id=%d is not active", req.CourtID)
		return nil, ErrCourtInactive
	}

	// 3. Пользователь должен существовать
	user, err := uc.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, userRepo.ErrUserNotFound) {
			uc.logger.Warn("CreateReservation: user id=%d not found", req.UserID)
			return nil, ErrUserNotFound
		}
		uc.logger.Error("CreateReservation: failed to get user id=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: failed to get user: %v", ErrInternal, err)
	}

	if req.WalletAmount > 0 && user.WalletBalance < req.WalletAmount {
		uc.logger.Warn("CreateReservation: user id=%d balance %.2f < %.2f", req.UserID, user.WalletBalance, req.WalletAmount)
		return nil, ErrInsufficientFunds
	}

	var result *domain.Reservation

	// 4. Проверки занятости и запись в одной сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 4.1. Активные бронирования корта на этот интервал (FOR UPDATE)
		overlapping, err := uc.reservationRepo.GetActiveOverlapping(txCtx, req.CourtID, req.StartTime, req.EndTime)
		if err != nil {
			uc.logger.Error("CreateReservation: failed to get overlapping reservations: %v", err)
			return fmt.Errorf("%w: failed to get reservations: %v", ErrInternal, err)
		}

		if len(overlapping) > 0 {
			uc.logger.Warn("CreateReservation: court id=%d already reserved by id=%d", req.CourtID, overlapping[0].ID)
			return ErrSlotNotAvailable
		}

		// 4.2. Активные работы по обслуживанию, пересекающие интервал
		windows, err := uc.maintenanceRepo.GetConflictCandidates(txCtx, req.CourtID, req.StartTime, req.EndTime, nil)
		if err != nil {
			uc.logger.Error("CreateReservation: failed to get maintenance windows: %v", err)
			return fmt.Errorf("%w: failed to get maintenance: %v", ErrInternal, err)
		}

		for _, w := range windows {
			if w.ConflictsWith(req.StartTime, req.EndTime.Sub(req.StartTime), 0) {
				uc.logger.Warn("CreateReservation: court id=%d under maintenance id=%d", req.CourtID, w.ID)
				return ErrCourtUnderMaintenance
			}
		}

		// 4.3. Списание с кошелька
		if req.WalletAmount > 0 {
			if err := uc.debitWallet(txCtx, req); err != nil {
				return err
			}
		}

		res := &domain.Reservation{
			CourtID:       req.CourtID,
			UserID:        req.UserID,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			Status:        domain.ReservationPending,
			PaymentStatus: domain.PaymentPending,
			TotalPrice:    req.TotalPrice,
			WalletAmount:  req.WalletAmount,
			Notes:         req.Notes,
		}

		// Полностью оплачено с кошелька
		if req.TotalPrice > 0 && req.WalletAmount == req.TotalPrice {
			res.Status = domain.ReservationPaid
			res.PaymentStatus = domain.PaymentPaid
		}

		created, err := uc.reservationRepo.Create(txCtx, res)
		if err != nil {
			uc.logger.Error("CreateReservation: failed to create reservation: %v", err)
			return fmt.Errorf("%w: failed to create reservation: %v", ErrInternal, err)
		}

		if req.WalletAmount > 0 {
			resID := created.ID
			walletTx := &domain.WalletTransaction{
				UserID:        req.UserID,
				ReservationID: &resID,
				Kind:          domain.WalletDebit,
				Amount:        req.WalletAmount,
			}
			if err := uc.userRepo.AddWalletTransaction(txCtx, walletTx); err != nil {
				uc.logger.Error("CreateReservation: failed to record wallet debit: %v", err)
				return fmt.Errorf("%w: failed to record wallet debit: %v", ErrInternal, err)
			}
		}

		userID := req.UserID
		if err := uc.reservationRepo.AddStatusChange(txCtx, &domain.ReservationStatusChange{
			ReservationID: created.ID,
			NewStatus:     created.Status,
			ActorID:       &userID,
		}); err != nil {
			uc.logger.Error("CreateReservation: failed to append history: %v", err)
			return fmt.Errorf("%w: failed to append history: %v", ErrInternal, err)
		}

		if err := uc.notifier.Enqueue(txCtx, domain.TemplateReservationCreated, &userID, map[string]interface{}{
			"reservationId": created.ID,
			"courtId":       created.CourtID,
			"startTime":     created.StartTime,
			"endTime":       created.EndTime,
			"status":        created.Status,
			"totalPrice":    created.TotalPrice,
		}); err != nil {
			uc.logger.Error("CreateReservation: failed to enqueue notification: %v", err)
			return fmt.Errorf("%w: failed to enqueue notification: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, txmanager.ErrSerialization):
			uc.logger.Warn("CreateReservation: serialization conflict for court id=%d", req.CourtID)
			return nil, ErrConcurrentUpdate
		case errors.Is(err, ErrSlotNotAvailable),
			errors.Is(err, ErrCourtUnderMaintenance),
			errors.Is(err, ErrInsufficientFunds),
			errors.Is(err, ErrInternal):
			return nil, err
		default:
			uc.logger.Error("CreateReservation: transaction error for court id=%d: %v", req.CourtID, err)
			return nil, fmt.Errorf("%w: CreateReservation - transaction: %v", ErrInternal, err)
		}
	}

	uc.logger.Info("CreateReservation: reservation id=%d created, status=%s", result.ID, result.Status)
	return models.FromDomainReservation(result), nil
}

// debitWallet списывает WalletAmount с кошелька пользователя
// Условие на баланс проверяется в самом UPDATE
func (uc *UseCase) debitWallet(ctx context.Context, req *Request) error {
	if err := uc.userRepo.AdjustWalletBalance(ctx, req.UserID, -req.WalletAmount); err != nil {
		if errors.Is(err, userRepo.ErrInsufficientFunds) {
			uc.logger.Warn("CreateReservation: user id=%d balance changed concurrently", req.UserID)
			return ErrInsufficientFunds
		}
		uc.logger.Error("CreateReservation: failed to debit wallet of user id=%d: %v", req.UserID, err)
		return fmt.Errorf("%w: failed to debit wallet: %v", ErrInternal, err)
	}

	return nil
}
