package domain

// Role defines a dashboard user's permission level.
type Role string

const (
	RoleAdmin   Role = "admin"   // Trigger syncs, read everything
	RoleManager Role = "manager" // Read sales and live ERP data
	RoleSeller  Role = "seller"  // Read own store data
)

// TokenClaims represents the JWT token payload issued by the dashboard's login service.
type TokenClaims struct {
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Role      Role    `json:"role"`
	Store     StoreID `json:"store_id,omitempty"`
	IssuedAt  int64   `json:"iat"`
	ExpiresAt int64   `json:"exp"`
}

// AuthContext contains authenticated user info for request context
type AuthContext struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Role   Role    `json:"role"`
	Store  StoreID `json:"store_id,omitempty"`
}

// NewAuthContext builds a request auth context from verified claims.
func NewAuthContext(c *TokenClaims) *AuthContext {
	return &AuthContext{UserID: c.UserID, Name: c.Name, Role: c.Role, Store: c.Store}
}

// IsAdmin checks if the authenticated user is an admin
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}
