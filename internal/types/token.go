package types

import "github.com/google/uuid"

// TokenClaims is the claim set carried by an access token.
type TokenClaims struct {
	UserID uuid.UUID
}
