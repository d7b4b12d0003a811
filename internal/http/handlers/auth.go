package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/qrhub/internal/auth"
	"github.com/geocoder89/qrhub/internal/config"
	"github.com/geocoder89/qrhub/internal/domain/user"
	"github.com/geocoder89/qrhub/internal/http/middlewares"
	"github.com/geocoder89/qrhub/internal/repo/postgres"
	"github.com/geocoder89/qrhub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	CreateWithProfile(ctx context.Context, email, passwordHash, fullName, role string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthHandler struct {
	users UserStore
	jwt   *auth.Manager
}

func NewAuthHandler(users UserStore, jwtManager *auth.Manager) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwtManager,
	}
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create account")
		return
	}

	u, err := h.users.CreateWithProfile(cctx, req.Email, hash, req.FullName, user.RoleUser)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondBadRequest(ctx, "email_taken", "Email is already registered.", nil)
			return
		}

		RespondInternal(ctx, "Could not create account")
		return
	}

	token, err := h.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user":  u,
		"token": token,
	})
}

func (h *AuthHandler) SignIn(ctx *gin.Context) {
	var req user.SignInRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, err := h.jwt.GenerateAccessToken(foundUser.ID, foundUser.Email, foundUser.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":  foundUser,
		"token": token,
	})
}

// Session re-reads the user row behind a verified token. The row may
// have been deleted since the token was issued.
func (h *AuthHandler) Session(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User no longer exists")
			return
		}

		RespondInternal(ctx, "Could not load session")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

// SignOut is a client-side token discard, the server holds no session state.
func (h *AuthHandler) SignOut(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}
