package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Payphone-Digital/account-service/internal/constants"
	"github.com/Payphone-Digital/account-service/internal/dto"
	apperrors "github.com/Payphone-Digital/account-service/internal/errors"
	ctxutil "github.com/Payphone-Digital/account-service/pkg/context"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct {
	identities map[string]*dto.Identity
}

func (s *stubValidator) ValidateToken(_ context.Context, token string) (*dto.Identity, error) {
	if id, ok := s.identities[token]; ok {
		return id, nil
	}
	return nil, apperrors.ErrInvalidToken
}

func newUserRouter() *gin.Engine {
	v := &stubValidator{identities: map[string]*dto.Identity{
		"good":    {UserID: 7, Roles: []string{constants.RoleUser}},
		"noroles": {UserID: 7},
	}}
	auth := NewAuthMiddleware(v)

	r := gin.New()
	r.GET("/user/:id", NumericParam("id"), auth.RequireAuth(), RequireSelf("id", constants.RoleUser), func(c *gin.Context) {
		uid, _ := ctxutil.GetUserID(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": uid})
	})
	return r
}

func TestUserRouteGuards(t *testing.T) {
	r := newUserRouter()

	tests := []struct {
		name   string
		path   string
		header string
		want   int
		body   string
	}{
		{name: "non numeric id", path: "/user/abc", header: "Bearer good", want: http.StatusBadRequest, body: constants.MsgIDNotNumeric},
		{name: "missing header", path: "/user/7", want: http.StatusUnauthorized},
		{name: "wrong scheme", path: "/user/7", header: "Basic good", want: http.StatusUnauthorized},
		{name: "invalid token", path: "/user/7", header: "Bearer bad", want: http.StatusUnauthorized},
		{name: "other user", path: "/user/8", header: "Bearer good", want: http.StatusForbidden},
		{name: "missing role", path: "/user/7", header: "Bearer noroles", want: http.StatusForbidden},
		{name: "self", path: "/user/7", header: "Bearer good", want: http.StatusOK, body: `"user_id":7`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			if tt.body != "" && !strings.Contains(w.Body.String(), tt.body) {
				t.Errorf("body %s does not contain %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestNumericParam_Empty(t *testing.T) {
	r := gin.New()
	// A catch-all lets the handler see an empty parameter.
	r.GET("/item/*id", func(c *gin.Context) {
		c.Params = gin.Params{{Key: "id", Value: ""}}
		c.Next()
	}, NumericParam("id"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/item/", nil))

	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), constants.MsgIDRequired) {
		t.Errorf("got %d %s, want 400 %q", w.Code, w.Body.String(), constants.MsgIDRequired)
	}
}

func TestRequestContext_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestContext())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.GetRequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Body.Len() == 0 || w.Header().Get(constants.HeaderXRequestID) != w.Body.String() {
		t.Errorf("Expected generated id echoed in header, got body %q header %q", w.Body.String(), w.Header().Get(constants.HeaderXRequestID))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(constants.HeaderXRequestID, "given")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "given" {
		t.Errorf("Expected incoming id to be kept, got %q", w.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		return w.Code
	}

	if do() != http.StatusOK || do() != http.StatusOK {
		t.Fatal("Expected first two requests to pass")
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", code)
	}

	now = now.Add(time.Minute)
	if code := do(); code != http.StatusOK {
		t.Errorf("status after window = %d, want 200", code)
	}
}

func TestValidateRequestBody(t *testing.T) {
	m := NewValidationMiddleware()

	r := gin.New()
	r.POST("/login", m.ValidateRequestBody(func() interface{} { return &dto.LoginRequest{} }), func(c *gin.Context) {
		var req dto.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, req.Email)
	})

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "valid", body: `{"email":"a@x.io","password":"p"}`, want: http.StatusOK},
		{name: "malformed json", body: `{`, want: http.StatusBadRequest},
		{name: "missing password", body: `{"email":"a@x.io"}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS origin header")
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Error("Expected panic value not to leak")
	}
}
