package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codehivehq/codehive/backend/internal/apperr"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	handler(c)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return resp
}

func TestSuccess(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, map[string]string{"name": "test"})
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
	if resp.Message != "ok" {
		t.Errorf("expected message 'ok', got %q", resp.Message)
	}
}

func TestCreated(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Created(c, map[string]int{"id": 1})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestError_WithAppError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"validation", apperr.Validation("name is required"), http.StatusBadRequest, "Validation"},
		{"not a member", apperr.NotAMember(), http.StatusForbidden, "NotAMember"},
		{"insufficient role", apperr.InsufficientRole(), http.StatusForbidden, "InsufficientRole"},
		{"last owner", apperr.LastOwnerProtection(), http.StatusConflict, "LastOwnerProtection"},
		{"name conflict", apperr.NameConflict(), http.StatusConflict, "NameConflict"},
		{"member not found", apperr.MemberNotFound(), http.StatusNotFound, "MemberNotFound"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) {
				Error(c, tc.err)
			})

			if w.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, w.Code)
			}
			resp := parseResponse(t, w)
			if resp.Kind != tc.wantKind {
				t.Errorf("expected kind %q, got %q", tc.wantKind, resp.Kind)
			}
			if resp.Code != tc.wantStatus {
				t.Errorf("expected code %d, got %d", tc.wantStatus, resp.Code)
			}
		})
	}
}

func TestError_WithWrappedAppError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.Join(errors.New("outer"), apperr.UnknownUser()))
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Kind != "UnknownUser" {
		t.Errorf("expected kind UnknownUser, got %q", resp.Kind)
	}
}

func TestError_WithGenericError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.New("something went wrong"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Code != 500 {
		t.Errorf("expected code 500, got %d", resp.Code)
	}
	if resp.Kind != "" {
		t.Errorf("generic errors carry no kind, got %q", resp.Kind)
	}
}

func TestConvenienceHelpers(t *testing.T) {
	cases := []struct {
		name       string
		handler    gin.HandlerFunc
		wantStatus int
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "invalid input") }, http.StatusBadRequest},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "token expired") }, http.StatusUnauthorized},
		{"not found", func(c *gin.Context) { NotFound(c, "no such project") }, http.StatusNotFound},
		{"server error", func(c *gin.Context) { ServerError(c, "internal error") }, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(tc.handler)
			if w.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, w.Code)
			}
			resp := parseResponse(t, w)
			if resp.Code != tc.wantStatus {
				t.Errorf("expected code %d, got %d", tc.wantStatus, resp.Code)
			}
		})
	}
}
