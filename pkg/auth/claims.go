package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// The client never holds the signing key, so claims are read without
// signature verification. The backend remains the authority on validity.
var unverifiedParser = jwt.NewParser()

func unverifiedClaims(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := unverifiedParser.ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// DecodeRole returns the first entry of the token's "roles" claim. It returns
// nil for anything malformed: a bad token, a missing claim, an empty list or a
// non-string entry.
func DecodeRole(token string) *string {
	claims, ok := unverifiedClaims(token)
	if !ok {
		return nil
	}

	raw, ok := claims["roles"].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	role, ok := raw[0].(string)
	if !ok {
		return nil
	}
	return &role
}

// Subject returns the "sub" claim, or "" if the token cannot be decoded.
func Subject(token string) string {
	claims, ok := unverifiedClaims(token)
	if !ok {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// FederatedIdentity reads the "email" and "name" claims of a third-party
// identity token without verifying it. ok is false when no email is present.
func FederatedIdentity(token string) (email, name string, ok bool) {
	claims, decoded := unverifiedClaims(token)
	if !decoded {
		return "", "", false
	}
	email, _ = claims["email"].(string)
	name, _ = claims["name"].(string)
	return email, name, email != ""
}
