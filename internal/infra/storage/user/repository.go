package user

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	"github.com/m04kA/SMC-FacilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityService/pkg/psqlbuilder"
)

// Repository репозиторий пользователей и их кошельков
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает пользователя по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"email",
		"name",
		"role",
		"date_of_birth",
		"wallet_balance",
		"created_at",
		"updated_at",
	).
		From("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var u domain.User
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Role,
		&u.DateOfBirth,
		&u.WalletBalance,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan user: %v", ErrScanRow, err)
	}

	u.CreatedAt = createdAt.Time
	u.UpdatedAt = updatedAt.Time

	return &u, nil
}

// AdjustWalletBalance изменяет баланс на delta (отрицательное значение - списание)
// Баланс не может уйти в минус: в этом случае возвращается ErrInsufficientFunds
func (r *Repository) AdjustWalletBalance(ctx context.Context, userID int64, delta float64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("users").
		Set("wallet_balance", squirrel.Expr("wallet_balance + ?", delta)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": userID}).
		Where(squirrel.Expr("wallet_balance + ? >= 0", delta)).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: AdjustWalletBalance - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: AdjustWalletBalance - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: AdjustWalletBalance - get rows affected: %v", ErrExecQuery, err)
	}

	// Существование пользователя проверяется до списания
	if rowsAffected == 0 {
		return ErrInsufficientFunds
	}

	return nil
}

// AddWalletTransaction записывает движение по кошельку
func (r *Repository) AddWalletTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("wallet_transactions").
		Columns("user_id", "reservation_id", "kind", "amount").
		Values(tx.UserID, tx.ReservationID, tx.Kind, tx.Amount).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: AddWalletTransaction - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&tx.ID, &tx.CreatedAt); err != nil {
		return fmt.Errorf("%w: AddWalletTransaction - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}
