package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/service"
)

func (a *testApp) adminToken(t *testing.T) string {
	t.Helper()
	resp, body := a.request(t, fiber.MethodPost, "/api/v1/auth/admin/login", fiber.Map{
		"email":    "root@example.com",
		"password": "root-password",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestErrorLogListing(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	a.errorLogs.Record(ctx, domain.ErrorLevelError, "datastore unavailable", "",
		service.HTTPErrorMeta{Route: "/api/v1/users/profile", Method: "GET"})
	a.errorLogs.Record(ctx, domain.ErrorLevelWarning, "slow query", "",
		service.HTTPErrorMeta{Route: "/api/v1/audit-logs/", Method: "GET"})

	adminToken := a.adminToken(t)

	resp, body := a.request(t, fiber.MethodGet, "/api/v1/error-logs/?level=error", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ := body["data"].(map[string]any)
	require.NotNil(t, data)
	logs, _ := data["logs"].([]any)
	require.Len(t, logs, 1)
	first, _ := logs[0].(map[string]any)
	assert.Equal(t, "error", first["level"])
	assert.Equal(t, "datastore unavailable", first["message"])

	// The route filter matches substrings.
	resp, body = a.request(t, fiber.MethodGet, "/api/v1/error-logs/?route=audit", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ = body["data"].(map[string]any)
	logs, _ = data["logs"].([]any)
	require.Len(t, logs, 1)

	id, _ := first["id"].(string)
	require.NotEmpty(t, id)
	resp, body = a.request(t, fiber.MethodGet, fmt.Sprintf("/api/v1/error-logs/%s", id), nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry, _ := body["data"].(map[string]any)
	require.NotNil(t, entry)
	assert.Equal(t, "datastore unavailable", entry["message"])

	resp, _ = a.request(t, fiber.MethodGet, fmt.Sprintf("/api/v1/error-logs/%s", uuid.NewString()), nil, adminToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = a.request(t, fiber.MethodGet, "/api/v1/error-logs/not-a-uuid", nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorLogRoutesAreAdminOnly(t *testing.T) {
	a := newTestApp(t)

	resp, _ := a.request(t, fiber.MethodGet, "/api/v1/error-logs/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, _ := a.signup(t, "Sam", "sam@example.com", "hunter22")
	resp, _ = a.request(t, fiber.MethodGet, "/api/v1/error-logs/", nil, token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServerFaultsLandInErrorLog(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	a.app.Get("/fails", func(c *fiber.Ctx) error {
		return errors.New("datastore exploded")
	})
	a.app.Get("/panics", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, body := a.request(t, fiber.MethodGet, "/fails", nil, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", body["message"])

	page, err := a.errorLogs.List(ctx, domain.ErrorLogFilter{Route: "/fails"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Logs, 1)
	assert.Equal(t, "datastore exploded", page.Logs[0].Message)
	assert.Equal(t, "GET", page.Logs[0].Method)

	resp, _ = a.request(t, fiber.MethodGet, "/panics", nil, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	page, err = a.errorLogs.List(ctx, domain.ErrorLogFilter{Route: "/panics"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Logs, 1)
	assert.Contains(t, page.Logs[0].Message, "boom")
	assert.NotEmpty(t, page.Logs[0].Stack)

	// Client-class fiber errors never land in the error log.
	resp, _ = a.request(t, fiber.MethodGet, "/api/v1/users/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	page, err = a.errorLogs.List(ctx, domain.ErrorLogFilter{Route: "/api/v1/users/profile"}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Logs)
}
