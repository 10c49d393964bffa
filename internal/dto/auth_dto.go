package dto

type User struct {
	Id         int     `json:"id"`
	Email      string  `json:"email"`
	Username   string  `json:"username"`
	StoreName  *string `json:"store_name"`
	PostalCode *string `json:"postal_code"`
	IsActive   bool    `json:"is_active"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  *string `json:"updated_at"`
}

// DisplayName prefers the store name, as the header of the original UI does.
func (u *User) DisplayName() string {
	if u.StoreName != nil && *u.StoreName != "" {
		return *u.StoreName
	}
	return u.Username
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required,min=6"`
	StoreName  string `json:"store_name,omitempty"`
	PostalCode string `json:"postal_code,omitempty" validate:"omitempty,len=7,number"`
}

// UserUpdateRequest carries only the fields being changed.
type UserUpdateRequest struct {
	Username   *string `json:"username,omitempty" validate:"omitempty,min=1"`
	StoreName  *string `json:"store_name,omitempty"`
	PostalCode *string `json:"postal_code,omitempty" validate:"omitempty,len=7,number"`
	Password   *string `json:"password,omitempty" validate:"omitempty,min=6"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
