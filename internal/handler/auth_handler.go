package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/models"
	"github.com/noah-isme/courseforge-portal/internal/utils"
	"github.com/noah-isme/courseforge-portal/internal/view"
)

// SessionManager is the session surface the auth endpoints drive.
type SessionManager interface {
	Login(ctx context.Context, req dto.LoginRequest) (models.Session, error)
	Register(ctx context.Context, req dto.RegisterRequest) (models.Session, error)
	Logout(ctx context.Context)
	RefreshProfile(ctx context.Context) (models.User, error)
	RefreshToken(ctx context.Context) (models.Session, error)
	ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error
	ResetPassword(ctx context.Context, email string) error
	Current() (models.Session, bool)
	Expire(ctx context.Context)
	Token() string
}

// FormField describes one input of the login or register form.
type FormField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// FormDescriptor is returned by GET /login and GET /register.
type FormDescriptor struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Fields []FormField `json:"fields"`
}

// SessionView is the public shape of the active session.
type SessionView struct {
	User      models.User `json:"user"`
	ExpiresAt string      `json:"expires_at,omitempty"`
}

// AuthHandler exposes login, registration and profile endpoints.
type AuthHandler struct {
	session SessionManager
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(session SessionManager, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		session: session,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches routes that do not require a session.
func (h *AuthHandler) Register(router fiber.Router, limit fiber.Handler) {
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Get("/login", h.loginForm)
	router.Get("/register", h.registerForm)
	router.Post("/login", limit, h.login)
	router.Post("/register", limit, h.register)
	router.Post("/logout", h.logout)
	router.Get("/session", h.current)
	router.Post("/auth/reset-password", limit, h.resetPassword)
}

// RegisterProfile attaches routes that require a session.
func (h *AuthHandler) RegisterProfile(router fiber.Router) {
	router.Post("/refresh", h.refreshProfile)
	router.Post("/token", h.refreshToken)
	router.Post("/change-password", h.changePassword)
}

func (h *AuthHandler) loginForm(c *fiber.Ctx) error {
	if current, ok := h.session.Current(); ok && current.User.Role.Valid() {
		return c.Redirect("/dashboard", fiber.StatusFound)
	}
	return utils.SendSuccess(c, "login form", FormDescriptor{
		Action: "/login",
		Method: fiber.MethodPost,
		Fields: []FormField{
			{Name: "email", Type: "email", Required: true},
			{Name: "password", Type: "password", Required: true},
		},
	})
}

func (h *AuthHandler) registerForm(c *fiber.Ctx) error {
	if current, ok := h.session.Current(); ok && current.User.Role.Valid() {
		return c.Redirect("/dashboard", fiber.StatusFound)
	}
	return utils.SendSuccess(c, "registration form", FormDescriptor{
		Action: "/register",
		Method: fiber.MethodPost,
		Fields: []FormField{
			{Name: "email", Type: "email", Required: true},
			{Name: "password", Type: "password", Required: true},
			{Name: "first_name", Type: "text", Required: true},
			{Name: "last_name", Type: "text", Required: true},
			{Name: "role", Type: "select", Required: true, Options: []string{
				string(models.RoleStudent), string(models.RoleTeacher), string(models.RoleAdmin),
			}},
		},
	})
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	req.Email = strings.TrimSpace(req.Email)

	session, err := h.session.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "login")
	}

	requestLogger(h.logger, c).Info().Uint("user_id", session.User.ID).Str("role", string(session.User.Role)).Msg("user signed in")
	return utils.SendSuccess(c, "signed in", sessionView(session))
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	session, err := h.session.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "registration")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", sessionView(session))
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	h.session.Logout(c.UserContext())
	return utils.SendSuccess(c, "signed out", nil)
}

func (h *AuthHandler) current(c *fiber.Ctx) error {
	session, ok := h.session.Current()
	if !ok {
		return utils.Fail(c, fiber.StatusUnauthorized, view.ErrorMessage(errNoSession, catalogOf(c)), nil)
	}
	return utils.SendSuccess(c, "session active", sessionView(session))
}

func (h *AuthHandler) refreshProfile(c *fiber.Ctx) error {
	user, err := h.session.RefreshProfile(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "profile refresh")
	}
	return utils.SendSuccess(c, "profile refreshed", user)
}

func (h *AuthHandler) refreshToken(c *fiber.Ctx) error {
	session, err := h.session.RefreshToken(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "token refresh")
	}
	return utils.SendSuccess(c, "token refreshed", sessionView(session))
}

func (h *AuthHandler) changePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := h.session.ChangePassword(c.UserContext(), req); err != nil {
		return respondError(c, h.logger, err, "password change")
	}
	return utils.SendSuccess(c, "password changed", nil)
}

func (h *AuthHandler) resetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return bodyError(c)
	}
	if err := h.session.ResetPassword(c.UserContext(), req.Email); err != nil {
		return respondError(c, h.logger, err, "password reset")
	}
	return utils.SendSuccess(c, "password reset requested", nil)
}

func sessionView(session models.Session) SessionView {
	result := SessionView{User: session.User}
	if !session.ExpiresAt.IsZero() {
		result.ExpiresAt = session.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return result
}
