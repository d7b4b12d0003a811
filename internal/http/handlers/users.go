package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/qrhub/internal/config"
	"github.com/geocoder89/qrhub/internal/domain/user"
	"github.com/geocoder89/qrhub/internal/http/middlewares"
	"github.com/geocoder89/qrhub/internal/repo/postgres"
	"github.com/geocoder89/qrhub/internal/security"
	"github.com/gin-gonic/gin"
)

type AdminUserStore interface {
	List(ctx context.Context) ([]user.Summary, error)
	CreateWithProfile(ctx context.Context, email, passwordHash, fullName, role string) (user.User, error)
	UpdateRole(ctx context.Context, id, role string) (user.User, error)
	Delete(ctx context.Context, id string) error
}

// Revoker invalidates a user's outstanding tokens immediately instead of
// waiting out the expiry window.
type Revoker interface {
	Revoke(ctx context.Context, userID string, ttl time.Duration) error
}

type UsersHandler struct {
	repo      AdminUserStore
	revoker   Revoker // may be nil
	revokeTTL time.Duration
	log       *slog.Logger
}

func NewUsersHandler(repo AdminUserStore, revoker Revoker, revokeTTL time.Duration, log *slog.Logger) *UsersHandler {
	return &UsersHandler{
		repo:      repo,
		revoker:   revoker,
		revokeTTL: revokeTTL,
		log:       log,
	}
}

func (h *UsersHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	users, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *UsersHandler) Invite(ctx *gin.Context) {
	var req user.InviteRequest

	if !BindJSON(ctx, &req) {
		return
	}

	role := req.Role

	if role == "" {
		role = user.RoleUser
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not invite user")
		return
	}

	u, err := h.repo.CreateWithProfile(cctx, req.Email, hash, req.FullName, role)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondBadRequest(ctx, "email_taken", "Email is already registered.", nil)
			return
		}

		RespondInternal(ctx, "Could not invite user")
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

func (h *UsersHandler) ChangeRole(ctx *gin.Context) {
	id := ctx.Param("id")

	var req user.ChangeRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// validated here, not in the binding tag, so the stored role is
	// provably untouched after a rejected attempt
	if !user.ValidRole(req.Role) {
		RespondBadRequest(ctx, "invalid_role", "Role must be admin or user.", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.repo.UpdateRole(cctx, id, req.Role)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not change role")
		return
	}

	h.revoke(u.ID)

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	callerID, _ := middlewares.UserIDFromContext(ctx)

	if callerID == id {
		RespondBadRequest(ctx, "self_delete", "You cannot delete your own account.", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not delete user")
		return
	}

	h.revoke(id)

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// revoke is best effort: a stale token still dies at expiry.
func (h *UsersHandler) revoke(userID string) {
	if h.revoker == nil {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if err := h.revoker.Revoke(cctx, userID, h.revokeTTL); err != nil {
		h.log.Error("token revocation failed", "user_id", userID, "err", err)
	}
}
