package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendpay/internal/attendance"
	"attendpay/internal/auth"
	"attendpay/internal/config"
	"attendpay/internal/store"
)

func testConfig() config.App {
	return config.App{
		JWTIssuer:       "attendpay-test",
		JWTSigningKey:   "test-signing-key",
		AccessTTL:       time.Hour,
		RateLimitPerMin: 1000,
	}
}

// newTestRouter builds the full route tree over a seeded memory store.
func newTestRouter(t *testing.T) (*gin.Engine, config.App, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	kv := store.NewMemory()
	require.NoError(t, seedDefaults(context.Background(), kv))
	return newRouter(cfg, kv), cfg, kv
}

func issueToken(t *testing.T, cfg config.App, subject, role string) string {
	t.Helper()
	token, _, err := auth.Issue(subject, role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMarkRequiresToken(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/v1/attendance", "", map[string]string{"status": "present"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEmployeeMarksOnlyItself(t *testing.T) {
	r, cfg, kv := newTestRouter(t)
	token := issueToken(t, cfg, "emp1", auth.RoleEmployee)

	// The payload names someone else; the actor's own id wins.
	w := doJSON(t, r, "POST", "/v1/attendance", token, map[string]string{
		"employee_id": "emp2",
		"status":      "leave",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var rec attendance.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "emp1", rec.EmployeeID)

	records, err := attendance.NewRepository(kv).Records(context.Background())
	require.NoError(t, err)
	for _, stored := range records {
		assert.NotEqual(t, "emp2", stored.EmployeeID, "nothing written for the named employee")
	}
}

func TestAdminMarkNeedsEmployeeID(t *testing.T) {
	r, cfg, _ := newTestRouter(t)
	token := issueToken(t, cfg, "1", auth.RoleAdmin)

	w := doJSON(t, r, "POST", "/v1/attendance", token, map[string]string{"status": "present"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Naming an employee works and targets exactly that employee.
	w = doJSON(t, r, "POST", "/v1/attendance", token, map[string]string{
		"employee_id": "emp2",
		"status":      "present",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var rec attendance.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "emp2", rec.EmployeeID)
}

func TestAdminOnlyRoutes(t *testing.T) {
	r, cfg, _ := newTestRouter(t)
	empToken := issueToken(t, cfg, "emp1", auth.RoleEmployee)
	adminToken := issueToken(t, cfg, "1", auth.RoleAdmin)

	employeeBody := map[string]string{
		"name": "Priya", "email": "priya@company.com", "phone": "9876543214",
		"department": "HR", "position": "Manager", "salary": "30000", "joinDate": "2024-02-01",
	}

	w := doJSON(t, r, "POST", "/v1/employees", empToken, employeeBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, "GET", "/v1/payroll", empToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, "DELETE", "/v1/employees/emp1", empToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The same requests pass for an admin.
	w = doJSON(t, r, "POST", "/v1/employees", adminToken, employeeBody)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "GET", "/v1/payroll", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Statements []json.RawMessage `json:"statements"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Statements, 3, "one statement per employee, including the new one")
}

func TestLoginIssuesWorkingToken(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/v1/auth/login", "", map[string]string{
		"email": "admin@demo.com", "password": "admin123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, auth.RoleAdmin, resp.User.Role)

	// The issued token opens an admin-only route.
	w = doJSON(t, r, "GET", "/v1/attendance/day", resp.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// And the session bootstrap returns the persisted copy.
	w = doJSON(t, r, "GET", "/v1/auth/session", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@demo.com")
}
