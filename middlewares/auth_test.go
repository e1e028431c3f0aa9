package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWTAuth(testSecret), func(c *gin.Context) {
		companyID, _ := CompanyID(c)
		c.JSON(http.StatusOK, gin.H{"company_id": companyID.String()})
	})
	return r
}

func TestJWTAuthRoundTrip(t *testing.T) {
	userID := uuid.New()
	companyID := uuid.New()

	token, err := IssueToken(testSecret, userID, companyID, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != userID || claims.CompanyID != companyID {
		t.Errorf("claims mismatch: %+v", claims)
	}

	r := authTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestJWTAuthAcceptsQueryToken(t *testing.T) {
	token, err := IssueToken(testSecret, uuid.New(), uuid.New(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	r := authTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for query token, got %d", w.Code)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	r := authTestRouter()

	expired, err := IssueToken(testSecret, uuid.New(), uuid.New(), -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	wrongSecret, err := IssueToken("other-secret", uuid.New(), uuid.New(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name  string
		setup func(req *http.Request)
	}{
		{"missing header", func(req *http.Request) {}},
		{"malformed header", func(req *http.Request) { req.Header.Set("Authorization", "Token abc") }},
		{"expired token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+expired) }},
		{"wrong secret", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+wrongSecret) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tc.setup(req)
			r.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestHashAPIKeyIsStable(t *testing.T) {
	a := HashAPIKey("zs_live_abc123")
	b := HashAPIKey("zs_live_abc123")
	if a != b {
		t.Fatal("hash of the same key differs")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %q", a)
	}
	if a == HashAPIKey("zs_live_other") {
		t.Fatal("distinct keys collide")
	}
}
