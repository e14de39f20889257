package errors

import (
	"net/http"
	"net/url"
	"strings"
)

// Códigos gruesos que viajan en ?error= hacia la pantalla de sign-in.
// Nunca llevan detalle del token ni de la causa.
const (
	SigninOAuthInitFailed = "oauth_init_failed"
	SigninOAuthFailed     = "oauth_failed"
	SigninProfileFailed   = "profile_failed"
)

// SigninURL arma la URL de sign-in con el código de error.
func SigninURL(signinPath, code string) string {
	sep := "?"
	if strings.Contains(signinPath, "?") {
		sep = "&"
	}
	return signinPath + sep + "error=" + url.QueryEscape(code)
}

// RedirectSignin responde 302 hacia la pantalla de sign-in con un código grueso.
func RedirectSignin(w http.ResponseWriter, r *http.Request, signinPath, code string) {
	http.Redirect(w, r, SigninURL(signinPath, code), http.StatusFound)
}
