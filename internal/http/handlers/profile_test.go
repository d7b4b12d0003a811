package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/qrhub/internal/domain/profile"
	"github.com/geocoder89/qrhub/internal/domain/user"
	"github.com/geocoder89/qrhub/internal/http/handlers"
	"github.com/geocoder89/qrhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeProfilesRepo struct {
	getOrCreateFn func(ctx context.Context, userID string) (profile.Profile, error)
	upsertFn      func(ctx context.Context, userID string, req profile.UpdateProfileRequest) (profile.Profile, error)
}

func (f *fakeProfilesRepo) GetOrCreate(ctx context.Context, userID string) (profile.Profile, error) {
	if f.getOrCreateFn != nil {
		return f.getOrCreateFn(ctx, userID)
	}
	return profile.Profile{}, nil
}

func (f *fakeProfilesRepo) Upsert(ctx context.Context, userID string, req profile.UpdateProfileRequest) (profile.Profile, error) {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, userID, req)
	}
	return profile.Profile{}, nil
}

func TestProfileHandler(t *testing.T) {
	jwtManager := testJWT()
	userID := uuid.NewString()

	token, err := jwtManager.GenerateAccessToken(userID, "a@example.com", user.RoleUser)

	if err != nil {
		t.Fatalf("token: %v", err)
	}

	t.Run("get_lazily_creates", func(t *testing.T) {
		fakeRepo := &fakeProfilesRepo{
			getOrCreateFn: func(ctx context.Context, id string) (profile.Profile, error) {
				if id != userID {
					t.Errorf("got user id %q, want %q", id, userID)
				}
				return profile.Profile{UserID: id, UpdatedAt: time.Now().UTC()}, nil
			},
		}

		h := handlers.NewProfileHandler(fakeRepo)
		authmw := middlewares.NewAuthMiddleware(jwtManager, nil)
		r := gin.New()
		r.Handle(http.MethodGet, "/profile", authmw.RequireAuth(), h.Get)

		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
		}

		var p profile.Profile

		if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
			t.Fatalf("bad response body: %v", err)
		}

		if p.UserID != userID {
			t.Errorf("got user_id %q, want %q", p.UserID, userID)
		}
	})

	t.Run("update_requires_full_name", func(t *testing.T) {
		fakeRepo := &fakeProfilesRepo{
			upsertFn: func(ctx context.Context, id string, req profile.UpdateProfileRequest) (profile.Profile, error) {
				t.Error("repo called for an invalid request")
				return profile.Profile{}, nil
			},
		}

		h := handlers.NewProfileHandler(fakeRepo)
		authmw := middlewares.NewAuthMiddleware(jwtManager, nil)
		r := gin.New()
		r.Handle(http.MethodPut, "/profile", authmw.RequireAuth(), h.Update)

		req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewBufferString(`{"company_name":"Example Co"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("update_upserts", func(t *testing.T) {
		fakeRepo := &fakeProfilesRepo{
			upsertFn: func(ctx context.Context, id string, req profile.UpdateProfileRequest) (profile.Profile, error) {
				return profile.Profile{
					UserID:      id,
					FullName:    req.FullName,
					CompanyName: req.CompanyName,
					Phone:       req.Phone,
					UpdatedAt:   time.Now().UTC(),
				}, nil
			},
		}

		h := handlers.NewProfileHandler(fakeRepo)
		authmw := middlewares.NewAuthMiddleware(jwtManager, nil)
		r := gin.New()
		r.Handle(http.MethodPut, "/profile", authmw.RequireAuth(), h.Update)

		req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewBufferString(`{"full_name":"Pat Example","phone":"+123"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
		}

		var p profile.Profile

		if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
			t.Fatalf("bad response body: %v", err)
		}

		if p.FullName != "Pat Example" {
			t.Errorf("got full_name %q, want Pat Example", p.FullName)
		}
	})
}
