package tariff

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	"github.com/m04kA/SMC-FacilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityService/pkg/pgerrors"
	"github.com/m04kA/SMC-FacilityService/pkg/psqlbuilder"
)

var tariffColumns = []string{
	"id",
	"segment",
	"name",
	"min_age",
	"max_age",
	"discount",
	"is_active",
	"valid_from",
	"valid_until",
	"created_at",
	"updated_at",
}

// Repository репозиторий возрастных тарифов
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает тариф (без привязки к кортам, см. ReplaceCourts)
func (r *Repository) Create(ctx context.Context, t *domain.AgeBasedTariff) (*domain.AgeBasedTariff, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("age_based_tariffs").
		Columns("segment", "name", "min_age", "max_age", "discount", "is_active", "valid_from", "valid_until").
		Values(t.Segment, t.Name, t.MinAge, t.MaxAge, t.Discount, t.IsActive, t.ValidFrom, t.ValidUntil).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&t.ID, &createdAt, &updatedAt)
	if pgerrors.IsUniqueViolation(err) {
		return nil, ErrSegmentTaken
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time

	return t, nil
}

// GetByID получает тариф вместе со списком кортов
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.AgeBasedTariff, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(tariffColumns...).
		From("age_based_tariffs").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	t, err := scanTariff(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrTariffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan tariff: %v", ErrScanRow, err)
	}

	if t.CourtIDs, err = r.getCourtIDs(ctx, t.ID); err != nil {
		return nil, err
	}

	return t, nil
}

// GetActiveBySegment активный тариф сегмента, кроме excludeID
// Возвращает ErrTariffNotFound, если такого нет
func (r *Repository) GetActiveBySegment(ctx context.Context, segment domain.TariffSegment, excludeID *int64) (*domain.AgeBasedTariff, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(tariffColumns...).
		From("age_based_tariffs").
		Where(squirrel.Eq{"segment": segment, "is_active": true}).
		Limit(1)

	if excludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveBySegment - build select query: %v", ErrBuildQuery, err)
	}

	t, err := scanTariff(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrTariffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveBySegment - scan tariff: %v", ErrScanRow, err)
	}

	return t, nil
}

// List возвращает тарифы по фильтру, сначала по сегменту и возрасту
func (r *Repository) List(ctx context.Context, filter domain.TariffFilter) ([]*domain.AgeBasedTariff, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(tariffColumns...).
		From("age_based_tariffs").
		OrderBy("min_age ASC", "id ASC")

	if filter.Segment != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"segment": *filter.Segment})
	}
	if filter.ActiveOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"is_active": true})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	tariffs := make([]*domain.AgeBasedTariff, 0)
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan row: %v", ErrScanRow, err)
		}
		tariffs = append(tariffs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %v", ErrScanRow, err)
	}

	for _, t := range tariffs {
		if t.CourtIDs, err = r.getCourtIDs(ctx, t.ID); err != nil {
			return nil, err
		}
	}

	return tariffs, nil
}

// Update сохраняет поля тарифа
func (r *Repository) Update(ctx context.Context, t *domain.AgeBasedTariff) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("age_based_tariffs").
		Set("segment", t.Segment).
		Set("name", t.Name).
		Set("min_age", t.MinAge).
		Set("max_age", t.MaxAge).
		Set("discount", t.Discount).
		Set("is_active", t.IsActive).
		Set("valid_from", t.ValidFrom).
		Set("valid_until", t.ValidUntil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": t.ID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if pgerrors.IsUniqueViolation(err) {
		return ErrSegmentTaken
	}
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrTariffNotFound
	}

	return nil
}

// Delete удаляет тариф, привязки к кортам удаляются каскадно
// История заявок не удаляется: тариф с заявками любого статуса удалить нельзя
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("age_based_tariffs").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if pgerrors.IsForeignKeyViolation(err) {
		return ErrTariffReferenced
	}
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrTariffNotFound
	}

	return nil
}

// ReplaceCourts заменяет список кортов тарифа: удаляет все привязки и создаёт заново
// Вызывается внутри транзакции вместе с Create/Update
func (r *Repository) ReplaceCourts(ctx context.Context, tariffID int64, courtIDs []int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("tariff_courts").
		Where(squirrel.Eq{"tariff_id": tariffID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplaceCourts - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ReplaceCourts - execute delete: %v", ErrExecQuery, err)
	}

	if len(courtIDs) == 0 {
		return nil
	}

	insertBuilder := psqlbuilder.Insert("tariff_courts").Columns("tariff_id", "court_id")
	for _, courtID := range courtIDs {
		insertBuilder = insertBuilder.Values(tariffID, courtID)
	}

	query, args, err = insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplaceCourts - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ReplaceCourts - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

func (r *Repository) getCourtIDs(ctx context.Context, tariffID int64) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("court_id").
		From("tariff_courts").
		Where(squirrel.Eq{"tariff_id": tariffID}).
		OrderBy("court_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getCourtIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getCourtIDs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: getCourtIDs - scan court_id: %v", ErrScanRow, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getCourtIDs - rows error: %v", ErrScanRow, err)
	}

	return ids, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTariff(row rowScanner) (*domain.AgeBasedTariff, error) {
	var t domain.AgeBasedTariff
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&t.ID,
		&t.Segment,
		&t.Name,
		&t.MinAge,
		&t.MaxAge,
		&t.Discount,
		&t.IsActive,
		&t.ValidFrom,
		&t.ValidUntil,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time

	return &t, nil
}
