package outbox

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	"github.com/m04kA/SMC-FacilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityService/pkg/psqlbuilder"
)

// Repository репозиторий outbox уведомлений
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Insert кладёт сообщение в outbox
// Вызывается в той же транзакции, что и изменение состояния
func (r *Repository) Insert(ctx context.Context, n *domain.Notification) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("notification_outbox").
		Columns("id", "template", "recipient_id", "payload").
		Values(n.ID, n.Template, n.RecipientID, []byte(n.Payload)).
		Suffix("RETURNING created_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Insert - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&n.CreatedAt); err != nil {
		return fmt.Errorf("%w: Insert - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// FetchPending выбирает неопубликованные сообщения с attempts < maxAttempts
// Внутри транзакции строки блокируются с SKIP LOCKED, чтобы несколько реле не брали одни и те же сообщения
func (r *Repository) FetchPending(ctx context.Context, limit, maxAttempts int) ([]*domain.Notification, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"id",
		"template",
		"recipient_id",
		"payload",
		"attempts",
		"last_error",
		"published_at",
		"created_at",
	).
		From("notification_outbox").
		Where(squirrel.Eq{"published_at": nil}).
		Where(squirrel.Lt{"attempts": maxAttempts}).
		OrderBy("created_at ASC").
		Limit(uint64(limit))

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE SKIP LOCKED")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FetchPending - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FetchPending - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	items := make([]*domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		var payload []byte
		if err := rows.Scan(
			&n.ID,
			&n.Template,
			&n.RecipientID,
			&payload,
			&n.Attempts,
			&n.LastError,
			&n.PublishedAt,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: FetchPending - scan row: %v", ErrScanRow, err)
		}
		n.Payload = payload
		items = append(items, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FetchPending - rows error: %v", ErrScanRow, err)
	}

	return items, nil
}

// MarkPublished отмечает сообщение как опубликованное
func (r *Repository) MarkPublished(ctx context.Context, id string) error {
	return r.update(ctx, "MarkPublished", psqlbuilder.Update("notification_outbox").
		Set("published_at", squirrel.Expr("NOW()")).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", nil).
		Where(squirrel.Eq{"id": id}))
}

// MarkFailed увеличивает счётчик попыток и сохраняет текст ошибки
func (r *Repository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.update(ctx, "MarkFailed", psqlbuilder.Update("notification_outbox").
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", reason).
		Where(squirrel.Eq{"id": id}))
}

func (r *Repository) update(ctx context.Context, op string, builder squirrel.UpdateBuilder) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}
