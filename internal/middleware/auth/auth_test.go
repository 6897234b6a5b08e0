package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/srai007/storefront/internal/models"
	"github.com/srai007/storefront/internal/token"
)

func newMiddleware(t *testing.T) (*Middleware, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return &Middleware{DB: db, Tokens: token.NewManager([]byte("test_secret"))}, db
}

func doRequest(t *testing.T, h echo.HandlerFunc, authHeader string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, h(c)
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	return body.Message
}

func TestRequireAuthMissingHeader(t *testing.T) {
	m, _ := newMiddleware(t)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc"} {
		rec, err := doRequest(t, m.RequireAuth(okHandler), header)
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "No token, authorization denied", message(t, rec))
	}
}

func TestRequireAuthExpiredAndInvalid(t *testing.T) {
	m, db := newMiddleware(t)

	user := models.User{Email: "a@b.c", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&user).Error)

	expired := &token.Manager{Secret: []byte("test_secret"), TTL: -time.Minute}
	raw, err := expired.Issue(user.ID)
	require.NoError(t, err)

	rec, err := doRequest(t, m.RequireAuth(okHandler), "Bearer "+raw)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Token expired", message(t, rec))

	foreign := token.NewManager([]byte("someone_else"))
	raw, err = foreign.Issue(user.ID)
	require.NoError(t, err)

	rec, err = doRequest(t, m.RequireAuth(okHandler), "Bearer "+raw)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid token", message(t, rec))
}

func TestRequireAuthDeletedUser(t *testing.T) {
	m, db := newMiddleware(t)

	user := models.User{Email: "a@b.c", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&user).Error)

	raw, err := m.Tokens.Issue(user.ID)
	require.NoError(t, err)
	require.NoError(t, db.Delete(&models.User{}, user.ID).Error)

	rec, err := doRequest(t, m.RequireAuth(okHandler), "Bearer "+raw)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "User not found", message(t, rec))
}

func TestRequireAuthAttachesUser(t *testing.T) {
	m, db := newMiddleware(t)

	user := models.User{Email: "a@b.c", PasswordHash: "hash", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&user).Error)

	raw, err := m.Tokens.Issue(user.ID)
	require.NoError(t, err)

	var attached models.User
	handler := func(c echo.Context) error {
		got, ok := UserFrom(c)
		require.True(t, ok)
		attached = got
		return c.NoContent(http.StatusOK)
	}

	rec, err := doRequest(t, m.RequireAuth(handler), "Bearer "+raw)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, user.ID, attached.ID)
	require.Equal(t, "a@b.c", attached.Email)
	require.Equal(t, models.RoleAdmin, attached.Role)
	// password hash is excluded from the projection
	require.Empty(t, attached.PasswordHash)
}

func TestRequireRole(t *testing.T) {
	m, db := newMiddleware(t)

	user := models.User{Email: "u@b.c", PasswordHash: "x", Role: models.RoleUser}
	admin := models.User{Email: "a@b.c", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&admin).Error)

	gate := m.RequireAuth(m.RequireRole(models.RoleAdmin)(okHandler))

	rawUser, err := m.Tokens.Issue(user.ID)
	require.NoError(t, err)
	rec, err := doRequest(t, gate, "Bearer "+rawUser)
	require.NoError(t, err)
	// authenticated but not authorized: 403, never 401
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Forbidden", message(t, rec))

	rawAdmin, err := m.Tokens.Issue(admin.ID)
	require.NoError(t, err)
	rec, err = doRequest(t, gate, "Bearer "+rawAdmin)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleWithoutAuth(t *testing.T) {
	m, _ := newMiddleware(t)

	rec, err := doRequest(t, m.RequireRole(models.RoleAdmin)(okHandler), "")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
