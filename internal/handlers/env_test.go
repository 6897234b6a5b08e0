package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/srai007/storefront/internal/hash"
	"github.com/srai007/storefront/internal/models"
	"github.com/srai007/storefront/internal/token"
)

const testAdminEmail = "admin@shop.test"

type publishedEvent struct {
	Topic string
	Key   string
	Event map[string]interface{}
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event interface{}) error {
	f.events = append(f.events, publishedEvent{Topic: topic, Key: key, Event: event.(map[string]interface{})})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) lastType() string {
	if len(f.events) == 0 {
		return ""
	}
	t, _ := f.events[len(f.events)-1].Event["type"].(string)
	return t
}

type fakeIndex struct {
	indexed []models.Product
	deleted []uint
}

func (f *fakeIndex) IndexProduct(_ context.Context, p models.Product) error {
	f.indexed = append(f.indexed, p)
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uint) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *token.Manager
	A      *AuthHandler
	P      *ProductHandler
	C      *CartHandler
	Events *fakePublisher
	Index  *fakeIndex
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.CartItem{}))

	tokens := token.NewManager([]byte("test_secret"))
	events := &fakePublisher{}
	index := &fakeIndex{}

	return &testEnv{
		T:      t,
		E:      echo.New(),
		DB:     db,
		Tokens: tokens,
		A:      &AuthHandler{DB: db, Tokens: tokens, AdminEmails: []string{testAdminEmail}, Producer: events},
		P:      &ProductHandler{DB: db, Producer: events, Index: index},
		C:      &CartHandler{DB: db, Producer: events},
		Events: events,
		Index:  index,
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// asUser mimics what the auth middleware attaches after verifying a token.
func asUser(c echo.Context, user models.User) {
	user.PasswordHash = ""
	c.Set("user", user)
}

func (env *testEnv) createUser(email, password, role string) models.User {
	env.T.Helper()
	passwordHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)
	user := models.User{Email: email, PasswordHash: passwordHash, Role: role}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return user
}

func (env *testEnv) createProduct(p models.Product) models.Product {
	env.T.Helper()
	if p.Description == "" {
		p.Description = "description"
	}
	if p.Category == "" {
		p.Category = "other"
	}
	if p.Image == "" {
		p.Image = "https://img.example/p.png"
	}
	require.NoError(env.T, env.DB.Create(&p).Error)
	return p
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, rec.Code)
	env := decodeEnvelope(t, rec)
	require.False(t, env.Success)
	require.Equal(t, message, env.Message)
}
