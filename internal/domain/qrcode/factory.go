package qrcode

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateQRCodeRequest) QRCode {
	typ := req.Type

	if typ == "" {
		typ = "url"
	}

	return QRCode{
		ID:          uuid.NewString(),
		Title:       req.Title,
		URL:         req.URL,
		Type:        typ,
		Category:    req.Category,
		Description: req.Description,
		Clicks:      0,
		CreatedAt:   time.Now().UTC(),
	}
}
