package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the identity attributes this service consumes: an opaque
// actor id and a viewer role. Permission enforcement lives elsewhere.
type JWTClaims struct {
	ActorID string     `json:"actor_id"`
	Role    ViewerRole `json:"role"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
