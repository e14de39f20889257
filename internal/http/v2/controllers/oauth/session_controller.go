package oauth

import (
	"net/http"
	"time"

	httperrors "github.com/dropDatabas3/memberbridge/internal/http/v2/errors"
	"github.com/dropDatabas3/memberbridge/internal/http/v2/helpers"
)

// SessionResponse es la vista JSON de la sesión del member.
type SessionResponse struct {
	MemberID  string    `json:"memberId"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Provider  string    `json:"provider"`
	DID       string    `json:"did,omitempty"`
	Handle    string    `json:"handle,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionController expone y cierra la sesión del member.
type SessionController struct {
	settings Settings
}

// NewSessionController creates a new SessionController.
func NewSessionController(st Settings) *SessionController {
	return &SessionController{settings: st}
}

// Get handles GET {prefix}/session. Requiere WithMemberSession.
func (c *SessionController) Get(w http.ResponseWriter, r *http.Request) {
	s := helpers.MemberSession(r.Context())
	if s == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	resp := SessionResponse{
		MemberID: s.MemberID,
		Email:    s.Email,
		Name:     s.Name,
		Provider: s.Provider,
		DID:      s.DID,
		Handle:   s.Handle,
	}
	if s.ExpiresAt != nil {
		resp.ExpiresAt = s.ExpiresAt.Time.UTC()
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Logout handles POST {prefix}/logout. Solo borra la cookie: no hay revocación server-side.
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, helpers.BuildDeletionCookie(c.settings.CookieName, c.settings.CookieDomain, "lax", c.settings.CookieSecure))
	http.Redirect(w, r, c.settings.HomePath, http.StatusFound)
}
