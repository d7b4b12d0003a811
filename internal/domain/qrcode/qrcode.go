package qrcode

import (
	"errors"
	"time"
)

type QRCode struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Clicks      int       `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
}

var ErrNotFound = errors.New("qr code not found")

// The destination URL is deliberately not validated for well-formedness,
// the dashboard client owns that check.
type CreateQRCodeRequest struct {
	Title       string `json:"title" binding:"omitempty,max=120"`
	URL         string `json:"url" binding:"required"`
	Type        string `json:"type" binding:"omitempty,max=40"`
	Category    string `json:"category" binding:"omitempty,max=80"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

// a full metadata replacement, clicks is not an accepted field.
type UpdateQRCodeRequest struct {
	Title       string `json:"title" binding:"omitempty,max=120"`
	URL         string `json:"url" binding:"required"`
	Type        string `json:"type" binding:"omitempty,max=40"`
	Category    string `json:"category" binding:"omitempty,max=80"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

// with pointers if optional, it will be nil
type ReportsFilter struct {
	From *time.Time
	To   *time.Time
}
