package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles HTTP requests for authentication and the user's own profile.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	log         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		log:         log,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/reset-password", h.HandleResetPassword)

	profileRoutes := router.Group("/profile", authRequired)
	profileRoutes.Get("/", h.HandleGetProfile)
	profileRoutes.Put("/", h.HandleUpdateProfile)
	profileRoutes.Post("/password", h.HandleChangePassword)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"full_name" validate:"omitempty,max=100"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	user, token, err := h.authService.Register(services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		return fail(c, h.log, "Registration failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
		"token":   token,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	token, user, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		h.log.Info("login failed", zap.String("username", req.Username), zap.Error(err))
		return fail(c, h.log, "Authentication failed", err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// ResetPasswordRequest names an account by username or email.
type ResetPasswordRequest struct {
	Login       string `json:"login" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// HandleResetPassword sets a new password without the old one.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	if err := h.authService.ResetPassword(req.Login, req.NewPassword); err != nil {
		return fail(c, h.log, "Password reset failed", err)
	}
	return c.JSON(fiber.Map{
		"message": "Password has been reset",
	})
}

// HandleGetProfile returns the signed-in user.
func (h *AuthHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.authService.GetProfile(middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, "Could not load profile", err)
	}
	return c.JSON(fiber.Map{
		"user":       user,
		"first_name": user.FirstName(),
		"last_name":  user.LastName(),
	})
}

// ProfileRequest represents the editable profile fields.
type ProfileRequest struct {
	FullName string `json:"full_name" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// HandleUpdateProfile saves the profile of the signed-in user.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req ProfileRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.UpdateProfile(middleware.UserID(c), services.ProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		return fail(c, h.log, "Could not update profile", err)
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"user":    user,
	})
}

// ChangePasswordRequest carries the current and the new password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// HandleChangePassword replaces the password of the signed-in user.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	if err := h.authService.ChangePassword(middleware.UserID(c), req.OldPassword, req.NewPassword); err != nil {
		return fail(c, h.log, "Could not change password", err)
	}
	return c.JSON(fiber.Map{
		"message": "Password changed",
	})
}
