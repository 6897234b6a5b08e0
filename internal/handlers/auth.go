package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/srai007/storefront/internal/hash"
	"github.com/srai007/storefront/internal/logging"
	"github.com/srai007/storefront/internal/middleware/auth"
	"github.com/srai007/storefront/internal/models"
	"github.com/srai007/storefront/internal/mykafka"
	"github.com/srai007/storefront/internal/respond"
	"github.com/srai007/storefront/internal/token"
)

var validate = validator.New()

type AuthHandler struct {
	DB          *gorm.DB
	Tokens      *token.Manager
	AdminEmails []string
	Producer    mykafka.Publisher
}

type credentialsRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authPayload struct {
	Token string   `json:"token"`
	User  authUser `json:"user"`
}

func publish(c echo.Context, producer mykafka.Publisher, topic, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := producer.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("event publish failed", "topic", topic, "error", err)
	}
}

func (h *AuthHandler) roleFor(email string) string {
	for _, admin := range h.AdminEmails {
		if email == admin {
			return models.RoleAdmin
		}
	}
	return models.RoleUser
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "Please provide email and password")
	}
	if err := validate.Struct(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "Please provide email and password")
	}

	var existing models.User
	err := h.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return respond.Error(c, http.StatusBadRequest, "User already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.FromContext(c.Request().Context()).Error("register lookup failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         h.roleFor(req.Email),
	}
	if err := h.DB.Create(&user).Error; err != nil {
		logging.FromContext(c.Request().Context()).Error("register create failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	signed, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return respond.OK(c, http.StatusCreated, authPayload{
		Token: signed,
		User:  authUser{ID: user.ID, Email: user.Email, Role: user.Role},
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "Please provide email and password")
	}
	if req.Email == "" || req.Password == "" {
		return respond.Error(c, http.StatusBadRequest, "Please provide email and password")
	}

	// Unknown email and wrong password answer identically so a caller
	// cannot probe which emails are registered.
	var user models.User
	err := h.DB.Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respond.Error(c, http.StatusBadRequest, "Invalid credentials")
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("login lookup failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return respond.Error(c, http.StatusBadRequest, "Invalid credentials")
	}

	signed, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	c.Response().Header().Set(echo.HeaderAuthorization, "Bearer "+signed)
	return respond.OK(c, http.StatusOK, authPayload{
		Token: signed,
		User:  authUser{ID: user.ID, Email: user.Email, Role: user.Role},
	})
}

// Verify re-loads the user behind the verified token. The extra round-trip
// repeats the middleware's load but is the observed contract, and it races
// against concurrent deletion the same way.
func (h *AuthHandler) Verify(c echo.Context) error {
	current, ok := auth.UserFrom(c)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "No token, authorization denied")
	}

	var user models.User
	err := h.DB.Select("id", "email", "role", "created_at").First(&user, current.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respond.Error(c, http.StatusUnauthorized, "User not found")
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("verify reload failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	return respond.OK(c, http.StatusOK, user)
}
