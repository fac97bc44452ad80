package models

type User struct {
	ID        int    `json:"id"`
	AuthID    string `json:"auth_id"` // opaque id issued by the auth provider, never reassigned
	Email     string `json:"email"`   // stored lowercased, unique
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"user_role"`

	PasswordHash string `json:"-"` // local provider mode only
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
