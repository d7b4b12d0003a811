package handlers

import (
	"context"
	"time"

	"github.com/geocoder89/qrhub/internal/config"
	"github.com/geocoder89/qrhub/internal/domain/profile"
	"github.com/geocoder89/qrhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ProfileStore interface {
	GetOrCreate(ctx context.Context, userID string) (profile.Profile, error)
	Upsert(ctx context.Context, userID string, req profile.UpdateProfileRequest) (profile.Profile, error)
}

type ProfileHandler struct {
	repo ProfileStore
}

func NewProfileHandler(repo ProfileStore) *ProfileHandler {
	return &ProfileHandler{repo: repo}
}

// Get lazily creates an empty profile row on first read.
func (h *ProfileHandler) Get(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.GetOrCreate(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not load profile")
		return
	}

	ctx.JSON(200, p)
}

func (h *ProfileHandler) Update(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req profile.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.Upsert(cctx, userID, req)

	if err != nil {
		RespondInternal(ctx, "Could not update profile")
		return
	}

	ctx.JSON(200, p)
}
