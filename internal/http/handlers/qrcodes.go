package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/qrhub/internal/config"
	"github.com/geocoder89/qrhub/internal/domain/qrcode"
	"github.com/geocoder89/qrhub/internal/observability"
	"github.com/gin-gonic/gin"
)

type QRCodeStore interface {
	Create(ctx context.Context, req qrcode.CreateQRCodeRequest) (qrcode.QRCode, error)
	List(ctx context.Context) ([]qrcode.QRCode, error)
	ListByDateRange(ctx context.Context, filter qrcode.ReportsFilter) ([]qrcode.QRCode, error)
	Update(ctx context.Context, id string, req qrcode.UpdateQRCodeRequest) (qrcode.QRCode, error)
	Delete(ctx context.Context, id string) error
	GetURL(ctx context.Context, id string) (string, error)
	IncrementClicks(ctx context.Context, id string) error
}

type QRCodesHandler struct {
	repo QRCodeStore
	log  *slog.Logger
	prom *observability.Prom // may be nil
}

func NewQRCodesHandler(repo QRCodeStore, log *slog.Logger, prom *observability.Prom) *QRCodesHandler {
	return &QRCodesHandler{repo: repo, log: log, prom: prom}
}

func (h *QRCodesHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	codes, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list QR codes")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, codes)
}

func (h *QRCodesHandler) Create(ctx *gin.Context) {
	var req qrcode.CreateQRCodeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	q, err := h.repo.Create(cctx, req)

	if err != nil {
		RespondInternal(ctx, "Could not create QR code")
		return
	}

	ctx.JSON(http.StatusCreated, q)
}

func (h *QRCodesHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	var req qrcode.UpdateQRCodeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	q, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, qrcode.ErrNotFound) {
			RespondNotFound(ctx, "QR code not found")
			return
		}

		RespondInternal(ctx, "Could not update QR code")
		return
	}

	ctx.JSON(http.StatusOK, q)
}

func (h *QRCodesHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, qrcode.ErrNotFound) {
			RespondNotFound(ctx, "QR code not found")
			return
		}

		RespondInternal(ctx, "Could not delete QR code")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "QR code deleted"})
}

// Redirect is the public scan path. The click write is fired after the
// response is decided: a failed write is logged, never surfaced, and the
// UPDATE itself is a single atomic statement so concurrent scans of the
// same code cannot lose counts.
func (h *QRCodesHandler) Redirect(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	url, err := h.repo.GetURL(cctx, id)

	if err != nil {
		if errors.Is(err, qrcode.ErrNotFound) {
			RespondNotFound(ctx, "QR code not found")
			return
		}

		RespondInternal(ctx, "Could not resolve QR code")
		return
	}

	if h.prom != nil {
		h.prom.ClicksTotal.Inc()
	}

	go func(id string) {
		// detached from the request, the response does not wait for this
		ictx, icancel := config.WithTimeout(5 * time.Second)
		defer icancel()

		if err := h.repo.IncrementClicks(ictx, id); err != nil {
			h.log.Error("click increment failed", "qr_code_id", id, "err", err)

			if h.prom != nil {
				h.prom.ClickWriteErrors.Inc()
			}
		}
	}(id)

	ctx.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *QRCodesHandler) Reports(ctx *gin.Context) {
	filter, ok := parseReportsFilter(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	codes, err := h.repo.ListByDateRange(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not build report")
		return
	}

	ctx.JSON(http.StatusOK, codes)
}

func parseReportsFilter(ctx *gin.Context) (qrcode.ReportsFilter, bool) {
	var filter qrcode.ReportsFilter

	from, ok := parseDateParam(ctx, "from")

	if !ok {
		return filter, false
	}

	to, ok := parseDateParam(ctx, "to")

	if !ok {
		return filter, false
	}

	filter.From = from
	filter.To = to

	return filter, true
}

func parseDateParam(ctx *gin.Context, name string) (*time.Time, bool) {
	raw := ctx.Query(name)

	if raw == "" {
		return nil, true
	}

	// accept both date-only and full timestamps
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}

	RespondBadRequest(ctx, "invalid_request", "invalid "+name+" date", nil)

	return nil, false
}
