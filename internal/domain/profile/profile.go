package profile

import "time"

// Profile is 1:1 with a user and created lazily on first read or write.
type Profile struct {
	UserID      string    `json:"user_id"`
	FullName    string    `json:"full_name"`
	CompanyName string    `json:"company_name"`
	Phone       string    `json:"phone"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	FullName    string `json:"full_name" binding:"required,max=120"`
	CompanyName string `json:"company_name" binding:"omitempty,max=120"`
	Phone       string `json:"phone" binding:"omitempty,max=40"`
}
