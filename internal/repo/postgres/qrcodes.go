package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/qrhub/internal/domain/qrcode"
	"github.com/geocoder89/qrhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type QRCodesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewQRCodesRepo(pool *pgxpool.Pool, prom *observability.Prom) *QRCodesRepo {
	return &QRCodesRepo{pool: pool, prom: prom}
}

func (r *QRCodesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *QRCodesRepo) Create(ctx context.Context, req qrcode.CreateQRCodeRequest) (qrcode.QRCode, error) {
	q := qrcode.NewFromCreateRequest(req)

	err := r.observe("qr_codes.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO qr_codes (id, title, url, type, category, description, clicks, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			q.ID, q.Title, q.URL, q.Type, q.Category, q.Description, q.Clicks, q.CreatedAt,
		)
		return e
	})

	if err != nil {
		return qrcode.QRCode{}, err
	}

	return q, nil
}

func (r *QRCodesRepo) List(ctx context.Context) ([]qrcode.QRCode, error) {
	return r.query(ctx, "qr_codes.list",
		`SELECT id, title, url, type, category, description, clicks, created_at
		 FROM qr_codes
		 ORDER BY created_at DESC`,
	)
}

// ListByDateRange applies inclusive created_at bounds only when both
// ends are present, otherwise it behaves like List.
func (r *QRCodesRepo) ListByDateRange(ctx context.Context, filter qrcode.ReportsFilter) ([]qrcode.QRCode, error) {
	baseQuery := `SELECT id, title, url, type, category, description, clicks, created_at
	 FROM qr_codes`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.From != nil && filter.To != nil {
		conds = append(conds, fmt.Sprintf("created_at >= $%d", argsPosition))
		args = append(args, *filter.From)
		argsPosition++

		conds = append(conds, fmt.Sprintf("created_at <= $%d", argsPosition))
		args = append(args, *filter.To)
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY created_at DESC"

	return r.query(ctx, "qr_codes.reports", query, args...)
}

func (r *QRCodesRepo) query(ctx context.Context, op, query string, args ...interface{}) (out []qrcode.QRCode, err error) {
	var rows pgx.Rows

	err = r.observe(op, func() error {
		var e error
		rows, e = r.pool.Query(ctx, query, args...)
		return e
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out = make([]qrcode.QRCode, 0)

	for rows.Next() {
		var q qrcode.QRCode

		e := rows.Scan(&q.ID, &q.Title, &q.URL, &q.Type, &q.Category, &q.Description, &q.Clicks, &q.CreatedAt)

		if e != nil {
			return nil, e
		}
		out = append(out, q)
	}

	if e := rows.Err(); e != nil {
		return nil, e
	}

	return out, nil
}

func (r *QRCodesRepo) Update(ctx context.Context, id string, req qrcode.UpdateQRCodeRequest) (qrcode.QRCode, error) {
	var q qrcode.QRCode

	err := r.observe("qr_codes.update", func() error {
		return r.pool.QueryRow(
			ctx,
			`UPDATE qr_codes
			 SET title = $2,
			     url = $3,
			     type = $4,
			     category = $5,
			     description = $6
			 WHERE id = $1
			 RETURNING id, title, url, type, category, description, clicks, created_at`,
			id, req.Title, req.URL, req.Type, req.Category, req.Description,
		).Scan(&q.ID, &q.Title, &q.URL, &q.Type, &q.Category, &q.Description, &q.Clicks, &q.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return qrcode.QRCode{}, qrcode.ErrNotFound
		}
		return qrcode.QRCode{}, err
	}

	return q, nil
}

func (r *QRCodesRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("qr_codes.delete", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `DELETE FROM qr_codes WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return qrcode.ErrNotFound
	}

	return nil
}

// GetURL resolves a public id to its destination without touching the counter.
func (r *QRCodesRepo) GetURL(ctx context.Context, id string) (string, error) {
	var url string

	err := r.observe("qr_codes.get_url", func() error {
		return r.pool.QueryRow(ctx, `SELECT url FROM qr_codes WHERE id = $1`, id).Scan(&url)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", qrcode.ErrNotFound
		}
		return "", err
	}

	return url, nil
}

// IncrementClicks bumps the counter by one in a single UPDATE so
// concurrent resolutions of the same code never lose increments.
func (r *QRCodesRepo) IncrementClicks(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("qr_codes.increment_clicks", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `UPDATE qr_codes SET clicks = clicks + 1 WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return qrcode.ErrNotFound
	}

	return nil
}
