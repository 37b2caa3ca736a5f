package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/apiserver/internal/auth"
	"github.com/taskhub/apiserver/internal/store"
)

func TestCreateCommentPermissions(t *testing.T) {
	e := newEnv(t)
	admin, member, outsider, task := e.seed(t)

	_, err := e.commentService.Create(anonymous(), task.ID, "hello")
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = e.commentService.Create(as(outsider), task.ID, "hello")
	assert.ErrorIs(t, err, auth.ErrForbidden)

	comment, err := e.commentService.Create(as(member), task.ID, "  on it  ")
	require.NoError(t, err)
	assert.Equal(t, "on it", comment.Content)
	assert.Equal(t, member.ID, comment.AuthorID)

	_, err = e.commentService.Create(as(admin), task.ID, "ship it")
	require.NoError(t, err)

	comments, err := e.commentService.ListByTask(anonymous(), task.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	byMember, err := e.commentService.ListByAuthor(anonymous(), member.ID)
	require.NoError(t, err)
	assert.Len(t, byMember, 1)

	assert.Contains(t, e.events.Names(), EventCommentCreated)
}

func TestCreateCommentValidation(t *testing.T) {
	e := newEnv(t)
	_, member, _, task := e.seed(t)

	_, err := e.commentService.Create(as(member), task.ID, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.commentService.Create(as(member), task.ID, strings.Repeat("a", maxCommentLength+1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.commentService.Create(as(member), 999, "hello")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = e.commentService.ListByTask(anonymous(), 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteComment(t *testing.T) {
	e := newEnv(t)
	admin, member, _, task := e.seed(t)
	comment, err := e.commentService.Create(as(member), task.ID, "hello")
	require.NoError(t, err)

	assert.ErrorIs(t, e.commentService.Delete(as(member), comment.ID), auth.ErrForbidden)
	require.NoError(t, e.commentService.Delete(as(admin), comment.ID))
	assert.ErrorIs(t, e.commentService.Delete(as(admin), comment.ID), store.ErrNotFound)
}
