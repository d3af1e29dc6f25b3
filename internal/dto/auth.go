package dto

// ── Auth ──

// LoginRequest email and password login.
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest exchanges a refresh token for a new pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse issued token pair.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // seconds
	User         UserResponse `json:"user"`
}

// UserResponse the authenticated user.
type UserResponse struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	StoreID   *string        `json:"store_id,omitempty"`
	Employee  *EmployeeBrief `json:"employee,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
}

// LogoutRequest optionally revokes the refresh token too.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
