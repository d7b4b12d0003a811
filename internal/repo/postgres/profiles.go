package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/qrhub/internal/domain/profile"
	"github.com/geocoder89/qrhub/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfilesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProfilesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProfilesRepo {
	return &ProfilesRepo{pool: pool, prom: prom}
}

func (r *ProfilesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// GetOrCreate returns the profile for a user, lazily inserting an
// empty row on first read. Old accounts may predate the profiles table.
func (r *ProfilesRepo) GetOrCreate(ctx context.Context, userID string) (p profile.Profile, err error) {
	err = r.observe("profiles.get_or_create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO profiles (user_id, full_name, updated_at)
			 VALUES ($1, '', $2)
			 ON CONFLICT (user_id) DO NOTHING`,
			userID, time.Now().UTC(),
		)

		if e != nil {
			return e
		}

		return r.pool.QueryRow(ctx,
			`SELECT user_id, full_name, COALESCE(company_name, ''), COALESCE(phone, ''), updated_at
			 FROM profiles
			 WHERE user_id = $1`,
			userID,
		).Scan(&p.UserID, &p.FullName, &p.CompanyName, &p.Phone, &p.UpdatedAt)
	})

	if err != nil {
		return profile.Profile{}, err
	}

	return p, nil
}

func (r *ProfilesRepo) Upsert(ctx context.Context, userID string, req profile.UpdateProfileRequest) (p profile.Profile, err error) {
	err = r.observe("profiles.upsert", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO profiles (user_id, full_name, company_name, phone, updated_at)
			 VALUES ($1,$2,$3,$4,$5)
			 ON CONFLICT (user_id) DO UPDATE
			 SET full_name = EXCLUDED.full_name,
			     company_name = EXCLUDED.company_name,
			     phone = EXCLUDED.phone,
			     updated_at = EXCLUDED.updated_at
			 RETURNING user_id, full_name, company_name, phone, updated_at`,
			userID, req.FullName, req.CompanyName, req.Phone, time.Now().UTC(),
		).Scan(&p.UserID, &p.FullName, &p.CompanyName, &p.Phone, &p.UpdatedAt)
	})

	if err != nil {
		return profile.Profile{}, err
	}

	return p, nil
}
