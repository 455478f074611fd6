package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/procurecart/procurecart-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Email        string
	OrgID        string
	CostCenterID string
	Role         enums.ActorRole
	JTI          string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	Email        string          `json:"email"`
	OrgID        string          `json:"org_id"`
	CostCenterID string          `json:"cost_center_id,omitempty"`
	Role         enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
