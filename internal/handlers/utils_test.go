package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/apiserver/internal/auth"
	"github.com/taskhub/apiserver/internal/logging"
	"github.com/taskhub/apiserver/internal/services"
	"github.com/taskhub/apiserver/internal/store"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query               string
		page, limit, offset int
		wantErr             bool
	}{
		{"", 1, 20, 0, false},
		{"page=3&limit=10", 3, 10, 20, false},
		{"page=2&per_page=5", 2, 5, 5, false},
		{"limit=1000", 1, 100, 0, false},
		{"page=0", 0, 0, 0, true},
		{"limit=abc", 0, 0, 0, true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		page, limit, offset, err := parsePagination(req)
		if tt.wantErr {
			assert.Error(t, err, tt.query)
			continue
		}
		require.NoError(t, err, tt.query)
		assert.Equal(t, []int{tt.page, tt.limit, tt.offset}, []int{page, limit, offset}, tt.query)
	}
}

func TestParseID(t *testing.T) {
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("taskID", value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := parseID(withParam("42"), "taskID")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, err := parseID(withParam(bad), "taskID")
		assert.EqualError(t, err, "invalid task id", bad)
	}
}

func TestDecodeJSONValidates(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"not-an-email","password":"hunter22"}`))
	var body RegisterRequest
	err := decodeJSON(rec, req, &body)
	assert.ErrorContains(t, err, "email failed email")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	err = decodeJSON(rec, req, &body)
	assert.EqualError(t, err, "invalid request")
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrUnauthenticated, http.StatusUnauthorized},
		{auth.ErrForbidden, http.StatusForbidden},
		{store.ErrNotFound, http.StatusNotFound},
		{services.ErrValidation, http.StatusBadRequest},
		{services.ErrAssigneeNotFound, http.StatusUnprocessableEntity},
		{services.ErrEmailTaken, http.StatusConflict},
		{services.ErrTitleTaken, http.StatusConflict},
		{services.ErrAttachmentTooLarge, http.StatusRequestEntityTooLarge},
		{services.ErrStorageDisabled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, logging.Discard(), tt.err, "thing not found", "failed")
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
	}

	rec := httptest.NewRecorder()
	writeServiceError(rec, logging.Discard(), errors.New("pq: secret detail"), "x", "failed to list")
	assert.JSONEq(t, `{"error":"failed to list"}`, rec.Body.String())
}
