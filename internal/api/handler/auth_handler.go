package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hms/hospital-system/internal/api/metrics"
	"github.com/hms/hospital-system/internal/core/domain"
	"github.com/hms/hospital-system/internal/core/ports"
)

type AuthHandler struct {
	authService  ports.AuthService
	resetService ports.PasswordResetService
}

func NewAuthHandler(authService ports.AuthService, resetService ports.PasswordResetService) *AuthHandler {
	return &AuthHandler{authService: authService, resetService: resetService}
}

type registerRequest struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username"`
	Password    string `json:"password" validate:"required,min=8"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phoneNumber"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	Address     string `json:"address"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type authResponse struct {
	Token       string          `json:"token"`
	Type        string          `json:"type"`
	Message     string          `json:"message"`
	RedirectURL string          `json:"redirectUrl"`
	UserID      string          `json:"userId"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Role        string          `json:"role"`
	User        *domain.Profile `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toAuthResponse(res *ports.AuthResult) authResponse {
	return authResponse{
		Token:       res.Token,
		Type:        res.TokenType,
		Message:     res.Message,
		RedirectURL: res.RedirectURL,
		UserID:      res.UserID,
		Username:    res.Username,
		Email:       res.Email,
		Role:        string(res.Role),
		User:        res.User,
	}
}

// Register creates a new patient account.
//
// @Summary      Register a new patient
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Patient registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]any
// @Failure      500   {object}  map[string]any
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	in := ports.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		Role:        req.Role,
		PhoneNumber: req.PhoneNumber,
		Gender:      req.Gender,
		Address:     req.Address,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "dateOfBirth must be in YYYY-MM-DD format")
		}
		in.DateOfBirth = &dob
	}

	res, err := h.authService.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.Inc()
	return c.JSON(http.StatusCreated, toAuthResponse(res))
}

// Login authenticates a user by username or email and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		case errors.Is(err, domain.ErrAccountDisabled):
			metrics.LoginsTotal.WithLabelValues("account_disabled").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, toAuthResponse(res))
}

// ForgotPassword requests a password reset link by email.
//
// The response is identical whether or not the address has an account, so
// the endpoint cannot be used to probe which emails are registered.
//
// @Summary      Request a password reset link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]any
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.resetService.RequestReset(c.Request().Context(), req.Email); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		metrics.ResetRequestsTotal.WithLabelValues("unknown_email").Inc()
	} else {
		metrics.ResetRequestsTotal.WithLabelValues("accepted").Inc()
	}

	return c.JSON(http.StatusOK, messageResponse{
		Message: "If an account exists for that email, a password reset link has been sent",
	})
}

// ResetPassword sets a new password using a reset token.
//
// @Summary      Reset password with a token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  query     string                true   "Reset token"
// @Param        body   body      resetPasswordRequest  true   "New password"
// @Success      200    {object}  messageResponse
// @Failure      400    {object}  map[string]any
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// Token arrives as a query parameter from the emailed link; a body field
	// is accepted as a fallback for API clients.
	token := c.QueryParam("token")
	if token == "" {
		token = req.Token
	}

	if err := h.resetService.ResetPassword(c.Request().Context(), token, req.NewPassword); err != nil {
		// Unknown, consumed, and expired tokens all answer 400 so the
		// response does not reveal which case applied.
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrTokenExpired) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired reset token")
		}
		return err
	}

	metrics.PasswordResetsTotal.Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Password has been reset successfully"})
}
