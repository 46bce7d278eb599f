package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/testes001/myfinbank-sub003/internal/auth/dto"
	"github.com/testes001/myfinbank-sub003/internal/auth/service"
	apperrors "github.com/testes001/myfinbank-sub003/internal/errors"
	"github.com/testes001/myfinbank-sub003/internal/metrics"
	"github.com/testes001/myfinbank-sub003/pkg/constant"
)

// genericAuthFailure is the only message a failed credential check may
// produce, whatever the internal cause. Anything more specific enables
// account enumeration.
const genericAuthFailure = "invalid email or password"

type AuthHandler struct {
	authService *service.AuthService
	tokens      service.TokenGenerator
	metrics     *metrics.Metrics
}

func NewAuthHandler(authService *service.AuthService, tokens service.TokenGenerator, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{authService: authService, tokens: tokens, metrics: m}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	user, err := h.authService.Register(c.Context(), input)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyInUse) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return internalError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.UserOutput{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())
	input.Fingerprint = c.Get(constant.HeaderDeviceFingerprint)

	tokenPair, err := h.authService.Login(c.Context(), input)
	if err != nil {
		var rlErr *apperrors.RateLimitError
		switch {
		case errors.As(err, &rlErr):
			h.metrics.RateLimitDenials.Inc()
			h.metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
			retryAfter := int(rlErr.RetryAfter.Seconds())
			if retryAfter > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":           "too many login attempts, please try again later",
				"require_captcha": rlErr.RequireCaptcha,
			})
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			h.metrics.LoginAttempts.WithLabelValues("failure").Inc()
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": genericAuthFailure})
		default:
			return internalError(c)
		}
	}

	h.metrics.LoginAttempts.WithLabelValues("success").Inc()

	return c.Status(fiber.StatusOK).JSON(tokenPair)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	input.Fingerprint = c.Get(constant.HeaderDeviceFingerprint)
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	tokens, err := h.authService.Refresh(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrSessionRevoked):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session revoked"})
		case errors.Is(err, apperrors.ErrRefreshTokenExpired),
			errors.Is(err, apperrors.ErrRefreshTokenInvalid):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired refresh token"})
		default:
			return internalError(c)
		}
	}

	h.metrics.TokenRotations.Inc()

	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input dto.LogoutInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.authService.Logout(c.Context(), input); err != nil {
		if errors.Is(err, apperrors.ErrRefreshTokenExpired) || errors.Is(err, apperrors.ErrRefreshTokenInvalid) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired refresh token"})
		}
		return internalError(c)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RequireAuth verifies the bearer access token and stores its claims in
// request locals. Expiry is reported distinctly so clients know to refresh.
func (h *AuthHandler) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}

		claims, err := h.tokens.VerifyAccessToken(token)
		if err != nil {
			if errors.Is(err, apperrors.ErrTokenExpired) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token expired"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals("claims", claims)

		return c.Next()
	}
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
