package inbound

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/goliatone/go-authflow/core"
)

const flashCookieName = "authflow_flash"

// FlashWriter carries the user-facing notice across the redirect that
// ends every callback. Hosts with their own session-backed flash can
// swap this out.
type FlashWriter interface {
	Write(w http.ResponseWriter, r *http.Request, notice string, level core.NoticeLevel)
}

type flashPayload struct {
	Notice string `json:"notice"`
	Level  string `json:"level"`
}

// CookieFlashWriter stores the notice in a short-lived cookie the next
// page load consumes.
type CookieFlashWriter struct {
	// Secure marks the cookie HTTPS-only; leave false for local dev.
	Secure bool
}

func (c CookieFlashWriter) Write(w http.ResponseWriter, _ *http.Request, notice string, level core.NoticeLevel) {
	if notice == "" {
		return
	}
	data, err := json.Marshal(flashPayload{Notice: notice, Level: string(level)})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadFlash consumes the flash cookie, clearing it on the response.
func ReadFlash(w http.ResponseWriter, r *http.Request) (string, core.NoticeLevel, bool) {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return "", "", false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return "", "", false
	}
	var payload flashPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", "", false
	}
	return payload.Notice, core.NoticeLevel(payload.Level), true
}

var _ FlashWriter = CookieFlashWriter{}
