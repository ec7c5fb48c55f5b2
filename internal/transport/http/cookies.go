package http

import (
	"net/http"
	"time"
)

const (
	cookieToken        = "token"
	cookieRefreshToken = "refreshToken"
)

// setTokenCookies кладёт access и refresh в HttpOnly-cookie:
// JS на фронте токены не видит, браузер шлёт их сам.
func setTokenCookies(w http.ResponseWriter, access, refresh string, accessTTL, refreshTTL time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieToken,
		Value:    access,
		Path:     "/",
		Expires:  time.Now().Add(accessTTL),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     cookieRefreshToken,
		Value:    refresh,
		Path:     "/",
		Expires:  time.Now().Add(refreshTTL),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{cookieToken, cookieRefreshToken} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
