package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/qrhub/internal/domain/user"
	"github.com/geocoder89/qrhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEmailAlreadyUsed = errors.New("email already used")

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// CreateWithProfile inserts the user row and its profile row in one
// transaction so a failed profile insert never leaves an orphan user.
func (r *UsersRepo) CreateWithProfile(ctx context.Context, email, passwordHash, fullName, role string) (u user.User, err error) {
	now := time.Now().UTC()

	u = user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return user.User{}, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	err = r.observe("users.create", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, role, created_at)
			 VALUES ($1,$2,$3,$4,$5)`,
			u.ID, u.Email, u.PasswordHash, u.Role, u.CreatedAt,
		)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, ErrEmailAlreadyUsed
		}
		return user.User{}, err
	}

	err = r.observe("profiles.create", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO profiles (user_id, full_name, updated_at)
			 VALUES ($1,$2,$3)`,
			u.ID, fullName, now,
		)
		return e
	})

	if err != nil {
		return user.User{}, err
	}

	err = tx.Commit(ctx)

	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, email, password_hash, role, created_at
			 FROM users
			 WHERE email = $1`,
			email,
		).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, email, password_hash, role, created_at
			 FROM users
			 WHERE id = $1`,
			id,
		).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) (out []user.Summary, err error) {
	var rows pgx.Rows

	err = r.observe("users.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx,
			`SELECT u.id, u.email, u.role, u.created_at, COALESCE(p.full_name, '')
			 FROM users u
			 LEFT JOIN profiles p ON p.user_id = u.id
			 ORDER BY u.created_at DESC`,
		)
		return e
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out = make([]user.Summary, 0)

	for rows.Next() {
		var s user.Summary

		e := rows.Scan(&s.ID, &s.Email, &s.Role, &s.CreatedAt, &s.FullName)

		if e != nil {
			return nil, e
		}
		out = append(out, s)
	}

	if e := rows.Err(); e != nil {
		return nil, e
	}

	return out, nil
}

func (r *UsersRepo) UpdateRole(ctx context.Context, id, role string) (user.User, error) {
	var u user.User

	err := r.observe("users.update_role", func() error {
		return r.pool.QueryRow(
			ctx,
			`UPDATE users
			 SET role = $2
			 WHERE id = $1
			 RETURNING id, email, password_hash, role, created_at`,
			id, role,
		).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

// Delete removes the profile row then the user row in one transaction.
func (r *UsersRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	err = r.observe("profiles.delete", func() error {
		_, e := tx.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, id)
		return e
	})

	if err != nil {
		return err
	}

	var tag pgconn.CommandTag

	err = r.observe("users.delete", func() error {
		var e error
		tag, e = tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return tx.Commit(ctx)
}
