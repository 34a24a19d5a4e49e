package dbmetrics

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeTx struct{ DBExecutor }

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

type fakeDB struct{}

func (fakeDB) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (fakeDB) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (fakeDB) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }

func TestGetExecutor(t *testing.T) {
	db := fakeDB{}
	ctx := context.Background()

	assert.Equal(t, DBExecutor(db), GetExecutor(ctx, db))
	assert.False(t, IsInTransaction(ctx))

	tx := fakeTx{}
	txCtx := WithTx(ctx, tx)
	assert.Equal(t, DBExecutor(tx), GetExecutor(txCtx, db))
	assert.True(t, IsInTransaction(txCtx))
}

func TestOperationOf(t *testing.T) {
	cases := map[string]string{
		"SELECT id FROM courts":           "select",
		"  insert into x values ($1)":     "insert",
		"UPDATE reservations SET a = $1":  "update",
		"DELETE FROM tariff_courts":       "delete",
		"WITH t AS (SELECT 1) SELECT 1":   "other",
		"SELECT\n id FROM maintenance":    "select",
	}
	for query, want := range cases {
		assert.Equal(t, want, operationOf(query), query)
	}
}
