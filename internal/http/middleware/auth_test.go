package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"modelhub/internal/controller"
	"modelhub/internal/model"
	"modelhub/internal/store"
)

func currentUserFixture(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *model.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	reg := model.NewRegistry()
	users := reg.Register(&model.Descriptor{
		Name:      "User",
		LoginType: true,
		Fields:    []model.Field{{Name: "username", Kind: model.KindString}},
	})

	var acting model.User
	r := gin.New()
	r.Use(CurrentUser(store.NewSQLStore(db, reg), users, []byte("test-secret")))
	r.GET("/", func(c *gin.Context) {
		acting = controller.CurrentUser(c)
		c.Status(http.StatusOK)
	})
	return r, mock, &acting
}

func signedToken(t *testing.T, secret string, userID int64) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func TestCurrentUser_ResolvesBearerToken(t *testing.T) {
	r, mock, acting := currentUserFixture(t)
	mock.ExpectQuery("SELECT id, username FROM users WHERE id = \\?").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(2, "ada"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "test-secret", 2))
	r.ServeHTTP(httptest.NewRecorder(), req)

	if (*acting).IsGuest() {
		t.Fatalf("valid token should authenticate")
	}
	if got := (*acting).Record().Get("username"); got != "ada" {
		t.Fatalf("acting user = %v", got)
	}
}

func TestCurrentUser_NoHeaderIsGuest(t *testing.T) {
	r, _, acting := currentUserFixture(t)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !(*acting).IsGuest() {
		t.Fatalf("missing credentials should yield the guest identity")
	}
}

func TestCurrentUser_BadSignatureIsGuest(t *testing.T) {
	r, _, acting := currentUserFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "other-secret", 2))
	r.ServeHTTP(httptest.NewRecorder(), req)
	if !(*acting).IsGuest() {
		t.Fatalf("forged token should yield the guest identity")
	}
}
