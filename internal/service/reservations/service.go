package reservations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-FacilityService/internal/service/reservations/models"
	"github.com/m04kA/SMC-FacilityService/pkg/txmanager"
)

// Config параметры жизненного цикла бронирования
type Config struct {
	// Допуск check-in по умолчанию, если у площадки нет своего значения
	CheckInTolerance time.Duration
}

// Service валидатор жизненного цикла бронирования
type Service struct {
	reservationRepo ReservationRepository
	courtRepo       CourtRepository
	walletRepo      WalletRepository
	notifier        Notifier
	txManager       TransactionManager
	timeProvider    TimeProvider
	logger          Logger
	cfg             Config
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	reservationRepo ReservationRepository,
	courtRepo CourtRepository,
	walletRepo WalletRepository,
	notifier Notifier,
	txManager TransactionManager,
	logger Logger,
	cfg Config,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		courtRepo:       courtRepo,
		walletRepo:      walletRepo,
		notifier:        notifier,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
		cfg:             cfg,
	}
}

// transition результат изменения бронирования внутри mutate
type transition struct {
	override bool
	reason   *string
	notify   domain.NotificationTemplate
}

// GetByID получает бронирование, доступно владельцу и сотрудникам
func (s *Service) GetByID(ctx context.Context, id int64, actor models.Actor) (*models.ReservationResponse, error) {
	s.logger.Info("GetByID: fetching reservation id=%d for user=%d", id, actor.UserID)

	res, err := s.load(ctx, "GetByID", id, actor)
	if err != nil {
		return nil, err
	}

	return models.FromDomainReservation(res), nil
}

// GetHistory история статусов бронирования
func (s *Service) GetHistory(ctx context.Context, id int64, actor models.Actor) ([]models.StatusChangeResponse, error) {
	s.logger.Info("GetHistory: fetching history of reservation id=%d", id)

	if _, err := s.load(ctx, "GetHistory", id, actor); err != nil {
		return nil, err
	}

	history, err := s.reservationRepo.GetStatusHistory(ctx, id)
	if err != nil {
		s.logger.Error("GetHistory: repository error for reservation id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetHistory - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainHistory(history), nil
}

// CheckIn отмечает приход игрока
// Допустим из PENDING или PAID, только внутри окна ±tolerance вокруг начала бронирования
func (s *Service) CheckIn(ctx context.Context, id int64, actor models.Actor) (*models.ReservationResponse, error) {
	s.logger.Info("CheckIn: reservation id=%d by user=%d", id, actor.UserID)

	res, err := s.mutate(ctx, "CheckIn", id, actor, func(txCtx context.Context, res *domain.Reservation) (transition, error) {
		if !res.CanCheckIn() {
			s.logger.Warn("CheckIn: reservation id=%d in status=%s, checked in=%t", id, res.Status, res.CheckInAt != nil)
			return transition{}, ErrInvalidState
		}

		tolerance, err := s.toleranceFor(txCtx, res.CourtID)
		if err != nil {
			return transition{}, err
		}

		now := s.timeProvider.Now()
		window := domain.NewCheckInWindow(res.StartTime, tolerance)
		if !window.Contains(now) {
			s.logger.Warn("CheckIn: reservation id=%d outside window %s - %s",
				id, window.From.Format(time.RFC3339), window.To.Format(time.RFC3339))
			return transition{}, &WindowViolationError{From: window.From, To: window.To}
		}

		res.CheckInAt = &now
		res.Status = domain.ReservationInProgress
		return transition{}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("CheckIn: reservation id=%d checked in", id)
	return models.FromDomainReservation(res), nil
}

// CheckOut завершает игру, допустим только из IN_PROGRESS
func (s *Service) CheckOut(ctx context.Context, id int64, actor models.Actor) (*models.ReservationResponse, error) {
	s.logger.Info("CheckOut: reservation id=%d by user=%d", id, actor.UserID)

	res, err := s.mutate(ctx, "CheckOut", id, actor, func(_ context.Context, res *domain.Reservation) (transition, error) {
		if !res.CanCheckOut() {
			s.logger.Warn("CheckOut: reservation id=%d in status=%s", id, res.Status)
			return transition{}, ErrInvalidState
		}

		now := s.timeProvider.Now()
		res.CheckOutAt = &now
		res.Status = domain.ReservationCompleted
		return transition{}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("CheckOut: reservation id=%d completed", id)
	return models.FromDomainReservation(res), nil
}

// ConfirmPayment переводит PENDING бронирование в PAID
func (s *Service) ConfirmPayment(ctx context.Context, id int64, actor models.Actor) (*models.ReservationResponse, error) {
	s.logger.Info("ConfirmPayment: reservation id=%d by user=%d", id, actor.UserID)

	res, err := s.mutate(ctx, "ConfirmPayment", id, actor, func(_ context.Context, res *domain.Reservation) (transition, error) {
		if res.Status != domain.ReservationPending || res.PaymentStatus != domain.PaymentPending {
			s.logger.Warn("ConfirmPayment: reservation id=%d in status=%s payment=%s", id, res.Status, res.PaymentStatus)
			return transition{}, ErrInvalidState
		}

		res.Status = domain.ReservationPaid
		res.PaymentStatus = domain.PaymentPaid
		return transition{notify: domain.TemplateReservationConfirmation}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ConfirmPayment: reservation id=%d paid", id)
	return models.FromDomainReservation(res), nil
}

// Cancel отменяет PENDING или PAID бронирование
// Отмена оплаченного бронирования не делает возврат, для этого есть Refund
func (s *Service) Cancel(ctx context.Context, id int64, actor models.Actor, reason string) (*models.ReservationResponse, error) {
	s.logger.Info("Cancel: reservation id=%d by user=%d", id, actor.UserID)

	res, err := s.mutate(ctx, "Cancel", id, actor, func(_ context.Context, res *domain.Reservation) (transition, error) {
		if !res.Status.CanTransitionTo(domain.ReservationCancelled) {
			s.logger.Warn("Cancel: reservation id=%d in status=%s", id, res.Status)
			return transition{}, ErrInvalidState
		}

		res.Status = domain.ReservationCancelled
		t := transition{notify: domain.TemplateReservationCancelled}
		if reason = strings.TrimSpace(reason); reason != "" {
			res.Notes = appendNote(res.Notes, "Cancelled: "+reason)
			t.reason = &reason
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cancel: reservation id=%d cancelled", id)
	return models.FromDomainReservation(res), nil
}

// MarkNoShow отмечает неявку по оплаченному бронированию после закрытия окна check-in
func (s *Service) MarkNoShow(ctx context.Context, id int64, actor models.Actor) (*models.ReservationResponse, error) {
	s.logger.Info("MarkNoShow: reservation id=%d by user=%d", id, actor.UserID)

	res, err := s.mutate(ctx, "MarkNoShow", id, actor, func(txCtx context.Context, res *domain.Reservation) (transition, error) {
		if res.Status != domain.ReservationPaid {
			s.logger.Warn("MarkNoShow: reservation id=%d in status=%s", id, res.Status)
			return transition{}, ErrInvalidState
		}

		tolerance, err := s.toleranceFor(txCtx, res.CourtID)
		if err != nil {
			return transition{}, err
		}

		window := domain.NewCheckInWindow(res.StartTime, tolerance)
		if !s.timeProvider.Now().After(window.To) {
			s.logger.Warn("MarkNoShow: reservation id=%d check-in window still open until %s", id, window.To.Format(time.RFC3339))
			return transition{}, ErrInvalidState
		}

		res.Status = domain.ReservationNoShow
		return transition{}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("MarkNoShow: reservation id=%d marked as no-show", id)
	return models.FromDomainReservation(res), nil
}

// AdminSetStatus ручная смена статуса администратором
// Принимается любой из шести статусов. Переход вне графа допускается, но помечается override в истории
func (s *Service) AdminSetStatus(ctx context.Context, id int64, actor models.Actor, req *models.AdminStatusRequest) (*models.ReservationResponse, error) {
	s.logger.Info("AdminSetStatus: reservation id=%d to status=%s by user=%d", id, req.Status, actor.UserID)

	status, err := domain.ParseReservationStatus(req.Status)
	if err != nil {
		s.logger.Warn("AdminSetStatus: invalid status=%q for reservation id=%d", req.Status, id)
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}

	res, err := s.mutate(ctx, "AdminSetStatus", id, actor, func(_ context.Context, res *domain.Reservation) (transition, error) {
		if res.Status == status {
			return transition{}, nil
		}

		override := !res.Status.CanTransitionTo(status)
		if override {
			s.logger.Warn("AdminSetStatus: override %s -> %s for reservation id=%d by user=%d",
				res.Status, status, id, actor.UserID)
		}

		res.Status = status
		return transition{override: override, reason: req.Reason, notify: domain.TemplateReservationStatus}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("AdminSetStatus: reservation id=%d now in status=%s", id, res.Status)
	return models.FromDomainReservation(res), nil
}

// Refund возвращает оплату
// Допустим только при payment_status = PAID. Незавершённое бронирование отменяется и освобождает корт,
// списанные с кошелька средства возвращаются
func (s *Service) Refund(ctx context.Context, id int64, actor models.Actor, reason *string) (*models.ReservationResponse, error) {
	s.logger.Info("Refund: reservation id=%d by user=%d", id, actor.UserID)

	res, err := s.mutate(ctx, "Refund", id, actor, func(txCtx context.Context, res *domain.Reservation) (transition, error) {
		if !res.CanRefund() {
			s.logger.Warn("Refund: reservation id=%d payment status=%s", id, res.PaymentStatus)
			return transition{}, ErrInvalidState
		}

		res.PaymentStatus = domain.PaymentRefunded
		if !res.Status.IsTerminal() {
			res.Status = domain.ReservationCancelled
		}

		if res.WalletAmount > 0 {
			if err := s.walletRepo.AdjustWalletBalance(txCtx, res.UserID, res.WalletAmount); err != nil {
				s.logger.Error("Refund: failed to credit wallet of user=%d: %v", res.UserID, err)
				return transition{}, fmt.Errorf("%w: Refund - credit wallet: %v", ErrInternal, err)
			}

			resID := res.ID
			walletTx := &domain.WalletTransaction{
				UserID:        res.UserID,
				ReservationID: &resID,
				Kind:          domain.WalletRefund,
				Amount:        res.WalletAmount,
			}
			if err := s.walletRepo.AddWalletTransaction(txCtx, walletTx); err != nil {
				s.logger.Error("Refund: failed to record wallet refund for reservation id=%d: %v", id, err)
				return transition{}, fmt.Errorf("%w: Refund - record wallet transaction: %v", ErrInternal, err)
			}
		}

		return transition{reason: reason, notify: domain.TemplateReservationRefunded}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Refund: reservation id=%d refunded, wallet amount=%.2f", id, res.WalletAmount)
	return models.FromDomainReservation(res), nil
}

// ResendConfirmation повторно отправляет подтверждение оплаченного бронирования
func (s *Service) ResendConfirmation(ctx context.Context, id int64, actor models.Actor) error {
	s.logger.Info("ResendConfirmation: reservation id=%d by user=%d", id, actor.UserID)

	res, err := s.load(ctx, "ResendConfirmation", id, actor)
	if err != nil {
		return err
	}

	switch res.Status {
	case domain.ReservationPaid, domain.ReservationInProgress, domain.ReservationCompleted:
	default:
		s.logger.Warn("ResendConfirmation: reservation id=%d in status=%s", id, res.Status)
		return ErrInvalidState
	}

	s.notify(ctx, "ResendConfirmation", domain.TemplateReservationConfirmation, res)
	return nil
}

// SendPaymentLink отправляет ссылку на оплату по неоплаченному бронированию
func (s *Service) SendPaymentLink(ctx context.Context, id int64, actor models.Actor) error {
	s.logger.Info("SendPaymentLink: reservation id=%d by user=%d", id, actor.UserID)

	res, err := s.load(ctx, "SendPaymentLink", id, actor)
	if err != nil {
		return err
	}

	if res.Status != domain.ReservationPending || res.PaymentStatus != domain.PaymentPending {
		s.logger.Warn("SendPaymentLink: reservation id=%d in status=%s payment=%s", id, res.Status, res.PaymentStatus)
		return ErrInvalidState
	}

	s.notify(ctx, "SendPaymentLink", domain.TemplatePaymentLink, res)
	return nil
}

// load читает бронирование и проверяет доступ
func (s *Service) load(ctx context.Context, op string, id int64, actor models.Actor) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.repoError(op, id, err)
	}

	if !canAccess(res, actor) {
		s.logger.Warn("%s: access denied for user=%d to reservation id=%d", op, actor.UserID, id)
		return nil, ErrAccessDenied
	}

	return res, nil
}

// mutate загружает бронирование под блокировкой, применяет apply и сохраняет результат
// вместе со строкой истории и уведомлением в одной транзакции
func (s *Service) mutate(
	ctx context.Context,
	op string,
	id int64,
	actor models.Actor,
	apply func(txCtx context.Context, res *domain.Reservation) (transition, error),
) (*domain.Reservation, error) {
	var result *domain.Reservation

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		res, err := s.load(txCtx, op, id, actor)
		if err != nil {
			return err
		}

		prev := res.Status
		t, err := apply(txCtx, res)
		if err != nil {
			return err
		}

		if err := s.reservationRepo.Update(txCtx, res); err != nil {
			return s.repoError(op, id, err)
		}

		if res.Status != prev {
			actorID := actor.UserID
			change := &domain.ReservationStatusChange{
				ReservationID: id,
				OldStatus:     &prev,
				NewStatus:     res.Status,
				ActorID:       &actorID,
				Override:      t.override,
				Reason:        t.reason,
			}
			if err := s.reservationRepo.AddStatusChange(txCtx, change); err != nil {
				s.logger.Error("%s: failed to append history for reservation id=%d: %v", op, id, err)
				return fmt.Errorf("%w: %s - append history: %v", ErrInternal, op, err)
			}
		}

		if t.notify != "" {
			if err := s.enqueue(txCtx, op, t.notify, res); err != nil {
				return err
			}
		}

		result = res
		return nil
	})
	if err != nil {
		return nil, s.txError(op, id, err)
	}

	return result, nil
}

// toleranceFor допуск check-in площадки корта или значение по умолчанию
func (s *Service) toleranceFor(ctx context.Context, courtID int64) (time.Duration, error) {
	court, err := s.courtRepo.GetByID(ctx, courtID)
	if err != nil {
		s.logger.Error("toleranceFor: failed to get court id=%d: %v", courtID, err)
		return 0, fmt.Errorf("%w: toleranceFor - get court: %v", ErrInternal, err)
	}

	if court.CheckInToleranceMinutes != nil {
		return time.Duration(*court.CheckInToleranceMinutes) * time.Minute, nil
	}
	return s.cfg.CheckInTolerance, nil
}

// notify ставит уведомление вне транзакции, ошибка только логируется
func (s *Service) notify(ctx context.Context, op string, template domain.NotificationTemplate, res *domain.Reservation) {
	userID := res.UserID
	if err := s.notifier.Enqueue(ctx, template, &userID, notificationPayload(res)); err != nil {
		s.logger.Warn("%s: notification %s for reservation id=%d not enqueued: %v", op, template, res.ID, err)
	}
}

func (s *Service) enqueue(ctx context.Context, op string, template domain.NotificationTemplate, res *domain.Reservation) error {
	userID := res.UserID
	if err := s.notifier.Enqueue(ctx, template, &userID, notificationPayload(res)); err != nil {
		s.logger.Error("%s: failed to enqueue %s for reservation id=%d: %v", op, template, res.ID, err)
		return fmt.Errorf("%w: %s - enqueue notification: %v", ErrInternal, op, err)
	}
	return nil
}

func (s *Service) repoError(op string, id int64, err error) error {
	if errors.Is(err, reservationRepo.ErrReservationNotFound) {
		s.logger.Warn("%s: reservation id=%d not found", op, id)
		return ErrReservationNotFound
	}
	s.logger.Error("%s: repository error for reservation id=%d: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

// txError пропускает ошибки сервиса и переводит ошибки транзакции
func (s *Service) txError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, txmanager.ErrSerialization):
		s.logger.Warn("%s: concurrent update of reservation id=%d", op, id)
		return ErrConcurrentUpdate
	case errors.Is(err, ErrReservationNotFound),
		errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrWindowViolation),
		errors.Is(err, ErrInternal):
		return err
	default:
		s.logger.Error("%s: transaction error for reservation id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %s - transaction: %v", ErrInternal, op, err)
	}
}

func canAccess(res *domain.Reservation, actor models.Actor) bool {
	return actor.IsStaff() || res.UserID == actor.UserID
}

func appendNote(notes *string, line string) *string {
	if notes == nil || *notes == "" {
		return &line
	}
	joined := *notes + "\n" + line
	return &joined
}

type reservationNotification struct {
	ReservationID int64     `json:"reservationId"`
	CourtID       int64     `json:"courtId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	TotalPrice    float64   `json:"totalPrice"`
}

func notificationPayload(res *domain.Reservation) reservationNotification {
	return reservationNotification{
		ReservationID: res.ID,
		CourtID:       res.CourtID,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		Status:        string(res.Status),
		PaymentStatus: string(res.PaymentStatus),
		TotalPrice:    res.TotalPrice,
	}
}
