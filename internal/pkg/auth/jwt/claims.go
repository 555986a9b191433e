package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims for a signed-in user.
type Payload struct {
	// StandardClaims embeds Exp, Iat and Iss, used for validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the user's unique identifier.
	ID string `json:"id"`

	// Name is the user's display name at token issue time.
	Name string `json:"name"`

	// Avatar is the user's avatar URL at token issue time, if any.
	Avatar string `json:"avatar,omitempty"`
}
