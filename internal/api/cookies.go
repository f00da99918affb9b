package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// setAuthCookies stores the access token in an HttpOnly cookie and pairs it
// with a readable CSRF cookie for the double-submit check.
func (h *Handler) setAuthCookies(c *gin.Context, accessToken string) {
	maxAge := int(h.auth.AccessTTL().Seconds())
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.auth.AuthCookieName(),
		Value:    accessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	csrfToken, err := h.auth.NewCSRFToken()
	if err != nil {
		log.Printf("generate csrf token: %v", err)
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.auth.CSRFCookieName(),
		Value:    csrfToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	for _, name := range []string{h.auth.AuthCookieName(), h.auth.CSRFCookieName()} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:   name,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
	}
}
