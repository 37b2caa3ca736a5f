package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/taskhub/apiserver/types"
)

func TestBuildTaskWhere(t *testing.T) {
	author, assignee := int64(3), int64(7)

	tests := []struct {
		name   string
		filter types.TaskFilter
		where  string
		args   []any
	}{
		{name: "empty", filter: types.TaskFilter{}, where: ""},
		{
			name:   "author",
			filter: types.TaskFilter{AuthorID: &author},
			where:  " WHERE author_id = $1",
			args:   []any{author},
		},
		{
			name:   "author and assignee",
			filter: types.TaskFilter{AuthorID: &author, AssigneeID: &assignee},
			where:  " WHERE author_id = $1 AND assignee_id = $2",
			args:   []any{author, assignee},
		},
		{
			name:   "participant reuses one placeholder",
			filter: types.TaskFilter{ParticipantID: &assignee},
			where:  " WHERE (author_id = $1 OR assignee_id = $1)",
			args:   []any{assignee},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildTaskWhere(tt.filter)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestMapWriteError(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pq.Error{Code: uniqueViolation})
	assert.ErrorIs(t, mapWriteError(unique), ErrConflict)

	fk := &pq.Error{Code: "23503"}
	assert.Same(t, fk, mapWriteError(fk))

	plain := errors.New("boom")
	assert.Equal(t, plain, mapWriteError(plain))
}

func TestNullableID(t *testing.T) {
	assert.False(t, nullableID(nil).Valid)

	id := int64(42)
	got := nullableID(&id)
	assert.True(t, got.Valid)
	assert.Equal(t, int64(42), got.Int64)
}
