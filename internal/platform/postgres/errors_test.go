package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/corkboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) {
	return 0, nil
}

func (m mockResult) RowsAffected() (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.rowsAffected, nil
}

func TestMapError(t *testing.T) {
	generic := errors.New("connection reset")

	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{name: "nil_error", err: nil},
		{name: "sql_no_rows", err: sql.ErrNoRows, sentinel: store.ErrNotFound},
		{
			name:     "unique_violation",
			err:      &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "automation_rules_pkey"},
			sentinel: store.ErrDuplicate,
		},
		{
			name:     "foreign_key_violation",
			err:      &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "cards_board_id_fkey"},
			sentinel: store.ErrInvalidEntity,
			contains: "cards_board_id_fkey",
		},
		{
			name:     "check_constraint_violation",
			err:      &pgconn.PgError{Code: checkViolationCode, ConstraintName: "comments_content_check"},
			sentinel: store.ErrInvalidEntity,
			contains: "check constraint violation",
		},
		{
			name:     "not_null_violation",
			err:      &pgconn.PgError{Code: notNullViolationCode, ColumnName: "title"},
			sentinel: store.ErrInvalidEntity,
			contains: "title",
		},
		{name: "generic_error", err: generic, sentinel: generic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			require.Error(t, got)
			assert.ErrorIs(t, got, tt.sentinel)
			if tt.contains != "" {
				assert.Contains(t, got.Error(), tt.contains)
			}
		})
	}
}

func TestMapForeignKeyViolation(t *testing.T) {
	byConstraint := map[string]error{"card_labels_label_id_fkey": store.ErrLabelNotFound}

	t.Run("registered_constraint", func(t *testing.T) {
		err := MapForeignKeyViolation(
			&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "card_labels_label_id_fkey"},
			byConstraint,
		)
		assert.ErrorIs(t, err, store.ErrLabelNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})

	t.Run("unregistered_constraint_falls_back", func(t *testing.T) {
		err := MapForeignKeyViolation(
			&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "other_fkey"},
			byConstraint,
		)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.NotErrorIs(t, err, store.ErrLabelNotFound)
	})

	t.Run("nil_error", func(t *testing.T) {
		assert.NoError(t, MapForeignKeyViolation(nil, byConstraint))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert rule: %w", &pgconn.PgError{Code: uniqueViolationCode})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: foreignKeyViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}

func TestCheckRowsAffected(t *testing.T) {
	tests := []struct {
		name     string
		result   sql.Result
		entity   string
		wantErr  bool
		sentinel error
	}{
		{name: "one_row", result: mockResult{rowsAffected: 1}, entity: "card"},
		{name: "no_rows", result: mockResult{rowsAffected: 0}, entity: "card", wantErr: true, sentinel: store.ErrNotFound},
		{name: "no_rows_no_entity", result: mockResult{}, wantErr: true, sentinel: store.ErrNotFound},
		{name: "nil_result", result: nil, entity: "card", wantErr: true},
		{name: "rows_affected_error", result: mockResult{err: errors.New("boom")}, entity: "card", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRowsAffected(tt.result, tt.entity)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}
