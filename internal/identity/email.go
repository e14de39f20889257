package identity

import (
	"strings"

	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
)

// PlaceholderDomain es el sufijo reservado (no enrutable) de los emails sintetizados.
const PlaceholderDomain = "atproto.local"

// PlaceholderEmail sintetiza el email canónico de un did sin email.
// Función pura: mismo did, mismo resultado.
func PlaceholderEmail(did string) string {
	return strings.ReplaceAll(strings.TrimSpace(did), ":", "_") + "@" + PlaceholderDomain
}

// IsPlaceholderEmail reporta si email fue sintetizado por PlaceholderEmail.
func IsPlaceholderEmail(email string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+PlaceholderDomain)
}

// CanonicalEmail devuelve el email real de la aserción o, si no hay, el placeholder del did.
func CanonicalEmail(a *jwtx.Assertion) (string, error) {
	if a == nil {
		return "", ErrMissingSubjectIdentifier
	}
	if email := strings.TrimSpace(a.Email); email != "" {
		return email, nil
	}
	if strings.TrimSpace(a.DID) != "" {
		return PlaceholderEmail(a.DID), nil
	}
	return "", ErrMissingSubjectIdentifier
}
