package packets

// returned by signup and login
type TokenResponse struct {
	Token string `json:"token"`
}

// returned for profile endpoints
type ProfileResponse struct {
	ID          int     `json:"id"`
	Email       string  `json:"email"`
	Name        *string `json:"name"`
	DisplayName string  `json:"display_name"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}
