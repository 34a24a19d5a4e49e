package enrollment

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

var enrollmentColumns = []string{
	"e.id",
	"e.user_id",
	"e.tariff_id",
	"e.status",
	"e.requested_at",
	"e.approved_at",
	"e.approved_by",
	"e.notes",
	"t.segment",
	"e.created_at",
	"e.updated_at",
}

// activeStatuses статусы, для которых действует уникальность (user_id, tariff_id)
var activeStatuses = []string{string(domain.EnrollmentPending), string(domain.EnrollmentApproved)}

// Repository репозиторий заявок на тарифы и их аудита
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает заявку
// Уникальность активной заявки дополнительно гарантируется частичным индексом
func (r *Repository) Create(ctx context.Context, e *domain.TariffEnrollment) (*domain.TariffEnrollment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("tariff_enrollments").
		Columns("user_id", "tariff_id", "status", "requested_at", "notes").
		Values(e.UserID, e.TariffID, e.Status, e.RequestedAt, e.Notes).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&e.ID, &createdAt, &updatedAt)
	if pgerrors.IsUniqueViolation(err) {
		return nil, ErrDuplicateEnrollment
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time

	return e, nil
}

// GetByID получает заявку, внутри транзакции с блокировкой строки
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.TariffEnrollment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(enrollmentColumns...).
		From("tariff_enrollments e").
		Join("age_based_tariffs t ON t.id = e.tariff_id").
		Where(squirrel.Eq{"e.id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE OF e")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	e, err := scanEnrollment(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan enrollment: %v", ErrScanRow, err)
	}

	return e, nil
}

// HasActive есть ли у пользователя PENDING или APPROVED заявка на тариф
func (r *Repository) HasActive(ctx context.Context, userID, tariffID int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("tariff_enrollments").
		Where(squirrel.Eq{"user_id": userID, "tariff_id": tariffID, "status": activeStatuses}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: HasActive - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: HasActive - scan count: %v", ErrScanRow, err)
	}

	return count > 0, nil
}

// CountActiveByTariff количество PENDING/APPROVED заявок на тариф
func (r *Repository) CountActiveByTariff(ctx context.Context, tariffID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("tariff_enrollments").
		Where(squirrel.Eq{"tariff_id": tariffID, "status": activeStatuses}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountActiveByTariff - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActiveByTariff - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// UpdateStatus сохраняет статус, отметку об одобрении и заметки
func (r *Repository) UpdateStatus(ctx context.Context, e *domain.TariffEnrollment) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("tariff_enrollments").
		Set("status", e.Status).
		Set("approved_at", e.ApprovedAt).
		Set("approved_by", e.ApprovedBy).
		Set("notes", e.Notes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": e.ID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if pgerrors.IsUniqueViolation(err) {
		// REJECTED -> APPROVED при уже существующей активной заявке
		return ErrDuplicateEnrollment
	}
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrEnrollmentNotFound
	}

	return nil
}

// AddAudit добавляет запись аудита. Записи не изменяются и не удаляются
func (r *Repository) AddAudit(ctx context.Context, a *domain.EnrollmentAudit) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("tariff_enrollment_audit").
		Columns("enrollment_id", "old_status", "new_status", "actor_id", "notes").
		Values(a.EnrollmentID, a.OldStatus, a.NewStatus, a.ActorID, a.Notes).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: AddAudit - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("%w: AddAudit - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// GetAudit история заявки, от старых записей к новым
func (r *Repository) GetAudit(ctx context.Context, enrollmentID int64) ([]*domain.EnrollmentAudit, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "enrollment_id", "old_status", "new_status", "actor_id", "notes", "created_at").
		From("tariff_enrollment_audit").
		Where(squirrel.Eq{"enrollment_id": enrollmentID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetAudit - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetAudit - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	audit := make([]*domain.EnrollmentAudit, 0)
	for rows.Next() {
		var a domain.EnrollmentAudit
		if err := rows.Scan(&a.ID, &a.EnrollmentID, &a.OldStatus, &a.NewStatus, &a.ActorID, &a.Notes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: GetAudit - scan row: %v", ErrScanRow, err)
		}
		audit = append(audit, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetAudit - rows error: %v", ErrScanRow, err)
	}

	return audit, nil
}

// List возвращает страницу заявок и общее количество по фильтру
func (r *Repository) List(ctx context.Context, filter domain.EnrollmentFilter) ([]*domain.TariffEnrollment, int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	where := squirrel.And{}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"e.status": *filter.Status})
	}
	if filter.UserID != nil {
		where = append(where, squirrel.Eq{"e.user_id": *filter.UserID})
	}
	if filter.Segment != nil {
		where = append(where, squirrel.Eq{"t.segment": *filter.Segment})
	}

	countQuery, countArgs, err := psqlbuilder.Select("COUNT(*)").
		From("tariff_enrollments e").
		Join("age_based_tariffs t ON t.id = e.tariff_id").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: List - build count query: %v", ErrBuildQuery, err)
	}

	var total int
	if err := executor.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: List - scan count: %v", ErrScanRow, err)
	}

	page := domain.NormalizePage(filter.Page, filter.Limit)

	query, args, err := psqlbuilder.Select(enrollmentColumns...).
		From("tariff_enrollments e").
		Join("age_based_tariffs t ON t.id = e.tariff_id").
		Where(where).
		OrderBy("e.requested_at DESC", "e.id DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	items := make([]*domain.TariffEnrollment, 0)
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: List - scan row: %v", ErrScanRow, err)
		}
		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: List - rows error: %v", ErrScanRow, err)
	}

	return items, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEnrollment(row rowScanner) (*domain.TariffEnrollment, error) {
	var e domain.TariffEnrollment
	var segment domain.TariffSegment
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.TariffID,
		&e.Status,
		&e.RequestedAt,
		&e.ApprovedAt,
		&e.ApprovedBy,
		&e.Notes,
		&segment,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Segment = &segment
	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time

	return &e, nil
}
