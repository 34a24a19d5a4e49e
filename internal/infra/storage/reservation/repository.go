package reservation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	"github.com/m04kA/SMC-FacilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityService/pkg/psqlbuilder"
)

var reservationColumns = []string{
	"id",
	"court_id",
	"user_id",
	"start_time",
	"end_time",
	"status",
	"payment_status",
	"total_price",
	"wallet_amount",
	"check_in_at",
	"check_out_at",
	"notes",
	"created_at",
	"updated_at",
}

// Repository репозиторий бронирований кортов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает бронирование
// Проверка пересечений выполняется в usecase внутри сериализуемой транзакции
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservations").
		Columns(
			"court_id",
			"user_id",
			"start_time",
			"end_time",
			"status",
			"payment_status",
			"total_price",
			"wallet_amount",
			"notes",
		).
		Values(
			res.CourtID,
			res.UserID,
			res.StartTime,
			res.EndTime,
			res.Status,
			res.PaymentStatus,
			res.TotalPrice,
			res.WalletAmount,
			res.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&res.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return res, nil
}

// GetByID получает бронирование по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %v", ErrScanRow, err)
	}

	return res, nil
}

// GetActiveOverlapping возвращает активные бронирования корта, пересекающие [start, end)
func (r *Repository) GetActiveOverlapping(ctx context.Context, courtID int64, start, end time.Time) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	statuses := make([]string, len(domain.ActiveReservationStatuses))
	for i, s := range domain.ActiveReservationStatuses {
		statuses[i] = string(s)
	}

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"court_id": courtID}).
		Where(squirrel.Eq{"status": statuses}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start}).
		OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	reservations := make([]*domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetActiveOverlapping - scan row: %v", ErrScanRow, err)
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetActiveOverlapping - rows error: %v", ErrScanRow, err)
	}

	return reservations, nil
}

// Update сохраняет изменяемые поля бронирования
func (r *Repository) Update(ctx context.Context, res *domain.Reservation) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("status", res.Status).
		Set("payment_status", res.PaymentStatus).
		Set("check_in_at", res.CheckInAt).
		Set("check_out_at", res.CheckOutAt).
		Set("notes", res.Notes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": res.ID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrReservationNotFound
	}

	return nil
}

// AddStatusChange добавляет строку в историю статусов (append-only)
func (r *Repository) AddStatusChange(ctx context.Context, change *domain.ReservationStatusChange) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservation_status_history").
		Columns("reservation_id", "old_status", "new_status", "actor_id", "override", "reason").
		Values(change.ReservationID, change.OldStatus, change.NewStatus, change.ActorID, change.Override, change.Reason).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: AddStatusChange - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&change.ID, &change.CreatedAt); err != nil {
		return fmt.Errorf("%w: AddStatusChange - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// GetStatusHistory история статусов, от старых к новым
func (r *Repository) GetStatusHistory(ctx context.Context, reservationID int64) ([]*domain.ReservationStatusChange, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"reservation_id",
		"old_status",
		"new_status",
		"actor_id",
		"override",
		"reason",
		"created_at",
	).
		From("reservation_status_history").
		Where(squirrel.Eq{"reservation_id": reservationID}).
		OrderBy("created_at ASC, id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetStatusHistory - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetStatusHistory - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	history := make([]*domain.ReservationStatusChange, 0)
	for rows.Next() {
		var c domain.ReservationStatusChange
		if err := rows.Scan(
			&c.ID,
			&c.ReservationID,
			&c.OldStatus,
			&c.NewStatus,
			&c.ActorID,
			&c.Override,
			&c.Reason,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: GetStatusHistory - scan row: %v", ErrScanRow, err)
		}
		history = append(history, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetStatusHistory - rows error: %v", ErrScanRow, err)
	}

	return history, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&res.ID,
		&res.CourtID,
		&res.UserID,
		&res.StartTime,
		&res.EndTime,
		&res.Status,
		&res.PaymentStatus,
		&res.TotalPrice,
		&res.WalletAmount,
		&res.CheckInAt,
		&res.CheckOutAt,
		&res.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return &res, nil
}
