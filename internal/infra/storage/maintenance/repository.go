package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	"github.com/m04kA/SMC-FacilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityService/pkg/psqlbuilder"
)

var maintenanceColumns = []string{
	"id",
	"court_id",
	"type",
	"title",
	"description",
	"scheduled_start",
	"duration_minutes",
	"priority",
	"assignee_id",
	"status",
	"materials",
	"notes",
	"actual_start",
	"completed_at",
	"actual_duration",
	"cost",
	"created_by",
	"created_at",
	"updated_at",
}

// Repository репозиторий работ по обслуживанию кортов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает запись о работах
func (r *Repository) Create(ctx context.Context, m *domain.Maintenance) (*domain.Maintenance, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("maintenance_schedules").
		Columns(
			"court_id",
			"type",
			"title",
			"description",
			"scheduled_start",
			"duration_minutes",
			"priority",
			"assignee_id",
			"status",
			"materials",
			"notes",
			"created_by",
		).
		Values(
			m.CourtID,
			m.Type,
			m.Title,
			m.Description,
			m.ScheduledStart,
			m.DurationMinutes,
			m.Priority,
			m.AssigneeID,
			m.Status,
			pq.Array(materialsOrEmpty(m.Materials)),
			m.Notes,
			m.CreatedBy,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&m.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	m.CreatedAt = createdAt.Time
	m.UpdatedAt = updatedAt.Time

	return m, nil
}

// GetByID получает работы по ID, внутри транзакции с блокировкой строки
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Maintenance, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(maintenanceColumns...).
		From("maintenance_schedules").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	m, err := scanMaintenance(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrMaintenanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan maintenance: %v", ErrScanRow, err)
	}

	return m, nil
}

// GetConflictCandidates активные окна корта, которые заканчиваются после start
// и начинаются не позже searchEnd. Точная проверка выполняется в domain.Maintenance.ConflictsWith
func (r *Repository) GetConflictCandidates(ctx context.Context, courtID int64, start, searchEnd time.Time, excludeID *int64) ([]*domain.Maintenance, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	statuses := make([]string, len(domain.ActiveMaintenanceStatuses))
	for i, s := range domain.ActiveMaintenanceStatuses {
		statuses[i] = string(s)
	}

	selectBuilder := psqlbuilder.Select(maintenanceColumns...).
		From("maintenance_schedules").
		Where(squirrel.Eq{"court_id": courtID}).
		Where(squirrel.Eq{"status": statuses}).
		Where(squirrel.LtOrEq{"scheduled_start": searchEnd}).
		Where(squirrel.Expr("scheduled_start + make_interval(mins => duration_minutes) > ?", start)).
		OrderBy("scheduled_start ASC")

	if excludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeID})
	}

	// Блокируем кандидатов, чтобы параллельное планирование не проскочило проверку
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetConflictCandidates - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetConflictCandidates - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanMaintenanceRows(rows, "GetConflictCandidates")
}

// Update сохраняет все изменяемые поля
func (r *Repository) Update(ctx context.Context, m *domain.Maintenance) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("maintenance_schedules").
		Set("type", m.Type).
		Set("title", m.Title).
		Set("description", m.Description).
		Set("scheduled_start", m.ScheduledStart).
		Set("duration_minutes", m.DurationMinutes).
		Set("priority", m.Priority).
		Set("assignee_id", m.AssigneeID).
		Set("status", m.Status).
		Set("materials", pq.Array(materialsOrEmpty(m.Materials))).
		Set("notes", m.Notes).
		Set("actual_start", m.ActualStart).
		Set("completed_at", m.CompletedAt).
		Set("actual_duration", m.ActualDuration).
		Set("cost", m.Cost).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": m.ID}).
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
		return ErrMaintenanceNotFound
	}

	return nil
}

// List возвращает страницу работ и общее количество по фильтру
func (r *Repository) List(ctx context.Context, filter domain.MaintenanceFilter) ([]*domain.Maintenance, int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	where := squirrel.And{}
	if filter.CourtID != nil {
		where = append(where, squirrel.Eq{"court_id": *filter.CourtID})
	}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"status": *filter.Status})
	}
	if filter.Type != nil {
		where = append(where, squirrel.Eq{"type": *filter.Type})
	}
	if filter.Priority != nil {
		where = append(where, squirrel.Eq{"priority": *filter.Priority})
	}

	countQuery, countArgs, err := psqlbuilder.Select("COUNT(*)").
		From("maintenance_schedules").
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

	query, args, err := psqlbuilder.Select(maintenanceColumns...).
		From("maintenance_schedules").
		Where(where).
		OrderBy("scheduled_start DESC", "id DESC").
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

	items, err := scanMaintenanceRows(rows, "List")
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// GetStats агрегирует работы по статусу, типу и приоритету
// Просроченными считаются SCHEDULED работы, начало которых раньше now
func (r *Repository) GetStats(ctx context.Context, now time.Time) (*domain.MaintenanceStats, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("status", "type", "priority", "COUNT(*)").
		From("maintenance_schedules").
		GroupBy("status", "type", "priority").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetStats - build group query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetStats - execute group query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	stats := &domain.MaintenanceStats{
		ByStatus:   make(map[domain.MaintenanceStatus]int),
		ByType:     make(map[domain.MaintenanceType]int),
		ByPriority: make(map[domain.MaintenancePriority]int),
	}

	for rows.Next() {
		var (
			status   domain.MaintenanceStatus
			mType    domain.MaintenanceType
			priority domain.MaintenancePriority
			count    int
		)
		if err := rows.Scan(&status, &mType, &priority, &count); err != nil {
			return nil, fmt.Errorf("%w: GetStats - scan group row: %v", ErrScanRow, err)
		}
		stats.Total += count
		stats.ByStatus[status] += count
		stats.ByType[mType] += count
		stats.ByPriority[priority] += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetStats - rows error: %v", ErrScanRow, err)
	}

	overdueQuery, overdueArgs, err := psqlbuilder.Select("COUNT(*)").
		From("maintenance_schedules").
		Where(squirrel.Eq{"status": domain.MaintenanceScheduled}).
		Where(squirrel.Lt{"scheduled_start": now}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetStats - build overdue query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, overdueQuery, overdueArgs...).Scan(&stats.Overdue); err != nil {
		return nil, fmt.Errorf("%w: GetStats - scan overdue: %v", ErrScanRow, err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMaintenance(row rowScanner) (*domain.Maintenance, error) {
	var m domain.Maintenance
	var materials pq.StringArray
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&m.ID,
		&m.CourtID,
		&m.Type,
		&m.Title,
		&m.Description,
		&m.ScheduledStart,
		&m.DurationMinutes,
		&m.Priority,
		&m.AssigneeID,
		&m.Status,
		&materials,
		&m.Notes,
		&m.ActualStart,
		&m.CompletedAt,
		&m.ActualDuration,
		&m.Cost,
		&m.CreatedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Materials = []string(materials)
	m.CreatedAt = createdAt.Time
	m.UpdatedAt = updatedAt.Time

	return &m, nil
}

func scanMaintenanceRows(rows *sql.Rows, op string) ([]*domain.Maintenance, error) {
	items := make([]*domain.Maintenance, 0)
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, op, err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return items, nil
}

func materialsOrEmpty(materials []string) []string {
	if materials == nil {
		return []string{}
	}
	return materials
}
