package handler

import (
	"errors"
	"log"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/zadic42/Role-based-Auth/internal/service"
)

// OAuthHandler bridges the browser redirect dance to the OAuth
// service. Errors during the callback land on the frontend's login
// page with a reason parameter instead of a JSON body, because the
// caller is a browser mid-redirect, not an API client.
type OAuthHandler struct {
	oauthService *service.OAuthService
	frontendURL  string
}

func NewOAuthHandler(oauthService *service.OAuthService, frontendURL string) *OAuthHandler {
	return &OAuthHandler{
		oauthService: oauthService,
		frontendURL:  frontendURL,
	}
}

// GoogleLogin redirects the browser to the Google consent screen
// GET /api/v1/auth/google
func (h *OAuthHandler) GoogleLogin(c *fiber.Ctx) error {
	authURL, err := h.oauthService.AuthURL(c.Context())
	if err != nil {
		log.Printf("[OAUTH] Failed to start Google login: %v", err)
		return h.redirectWithError(c, "oauth_unavailable")
	}
	return c.Redirect(authURL, fiber.StatusTemporaryRedirect)
}

// GoogleCallback completes the flow and forwards the browser to the
// frontend with either a session token or an MFA hand-off
// GET /api/v1/auth/google/callback
func (h *OAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		return h.redirectWithError(c, "missing_parameters")
	}

	result, err := h.oauthService.HandleCallback(c.Context(), state, code, requestMeta(c))
	if err != nil {
		if errors.Is(err, service.ErrOAuthStateMismatch) {
			return h.redirectWithError(c, "state_mismatch")
		}
		log.Printf("[OAUTH] Google callback failed: %v", err)
		return h.redirectWithError(c, "oauth_failed")
	}

	if result.MFARequired {
		q := url.Values{}
		q.Set("tempToken", result.TempToken)
		q.Set("isOAuth", "true")
		return c.Redirect(h.frontendURL+"/verify-mfa?"+q.Encode(), fiber.StatusTemporaryRedirect)
	}

	q := url.Values{}
	q.Set("token", result.Token)
	return c.Redirect(h.frontendURL+"/auth-success?"+q.Encode(), fiber.StatusTemporaryRedirect)
}

func (h *OAuthHandler) redirectWithError(c *fiber.Ctx, reason string) error {
	q := url.Values{}
	q.Set("error", reason)
	return c.Redirect(h.frontendURL+"/login?"+q.Encode(), fiber.StatusTemporaryRedirect)
}
