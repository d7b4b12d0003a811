package memory

import (
	"sort"
	"sync"

	"github.com/geocoder89/qrhub/internal/domain/qrcode"
)

// QRCodesRepo is the in-memory twin of the postgres repo. The mutex
// stands in for the database's atomic increment, so the click counter
// keeps the same no-lost-updates property under concurrent resolutions.
type QRCodesRepo struct {
	mu    sync.RWMutex
	items map[string]qrcode.QRCode
}

func NewQRCodesRepo() *QRCodesRepo {
	return &QRCodesRepo{
		items: make(map[string]qrcode.QRCode),
	}
}

func (r *QRCodesRepo) Create(req qrcode.CreateQRCodeRequest) (qrcode.QRCode, error) {
	q := qrcode.NewFromCreateRequest(req)

	r.mu.Lock()
	r.items[q.ID] = q
	r.mu.Unlock()

	return q, nil
}

func (r *QRCodesRepo) List() ([]qrcode.QRCode, error) {
	r.mu.RLock()

	out := make([]qrcode.QRCode, 0, len(r.items))

	for _, q := range r.items {
		out = append(out, q)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *QRCodesRepo) Update(id string, req qrcode.UpdateQRCodeRequest) (qrcode.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.items[id]

	if !ok {
		return qrcode.QRCode{}, qrcode.ErrNotFound
	}

	q.Title = req.Title
	q.URL = req.URL
	q.Type = req.Type
	q.Category = req.Category
	q.Description = req.Description

	r.items[id] = q

	return q, nil
}

func (r *QRCodesRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[id]

	if !ok {
		return qrcode.ErrNotFound
	}

	delete(r.items, id)

	return nil
}

func (r *QRCodesRepo) GetURL(id string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.items[id]

	if !ok {
		return "", qrcode.ErrNotFound
	}

	return q.URL, nil
}

func (r *QRCodesRepo) GetByID(id string) (qrcode.QRCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.items[id]

	if !ok {
		return qrcode.QRCode{}, qrcode.ErrNotFound
	}

	return q, nil
}

func (r *QRCodesRepo) IncrementClicks(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.items[id]

	if !ok {
		return qrcode.ErrNotFound
	}

	q.Clicks++
	r.items[id] = q

	return nil
}
