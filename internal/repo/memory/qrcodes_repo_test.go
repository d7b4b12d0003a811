package memory

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/geocoder89/qrhub/internal/domain/qrcode"
)

// The click counter must gain exactly one per resolution, with no lost
// updates under concurrent scans of the same code.
func TestConcurrentClickAccounting(t *testing.T) {
	for _, n := range []int{1, 10, 100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			repo := NewQRCodesRepo()

			q, err := repo.Create(qrcode.CreateQRCodeRequest{URL: "https://example.com"})

			if err != nil {
				t.Fatalf("create: %v", err)
			}

			var wg sync.WaitGroup

			wg.Add(n)

			for i := 0; i < n; i++ {
				go func() {
					defer wg.Done()

					if _, err := repo.GetURL(q.ID); err != nil {
						t.Errorf("resolve: %v", err)
						return
					}
					if err := repo.IncrementClicks(q.ID); err != nil {
						t.Errorf("increment: %v", err)
					}
				}()
			}

			wg.Wait()

			got, err := repo.GetByID(q.ID)

			if err != nil {
				t.Fatalf("get: %v", err)
			}

			if got.Clicks != n {
				t.Fatalf("got %d clicks, want %d", got.Clicks, n)
			}
		})
	}
}

func TestResolveUnknownID(t *testing.T) {
	repo := NewQRCodesRepo()

	if _, err := repo.Create(qrcode.CreateQRCodeRequest{URL: "https://example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := repo.GetURL("does-not-exist")

	if !errors.Is(err, qrcode.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	if err := repo.IncrementClicks("does-not-exist"); !errors.Is(err, qrcode.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	// the only stored code is untouched
	list, err := repo.List()

	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(list) != 1 || list[0].Clicks != 0 {
		t.Fatalf("store changed by a failed resolve: %+v", list)
	}
}

func TestUpdateKeepsClicks(t *testing.T) {
	repo := NewQRCodesRepo()

	q, err := repo.Create(qrcode.CreateQRCodeRequest{URL: "https://example.com", Title: "T"})

	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.IncrementClicks(q.ID); err != nil {
		t.Fatalf("increment: %v", err)
	}

	updated, err := repo.Update(q.ID, qrcode.UpdateQRCodeRequest{URL: "https://example.com", Title: "T2"})

	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Title != "T2" {
		t.Errorf("got title %q, want T2", updated.Title)
	}

	if updated.Clicks != 1 {
		t.Errorf("metadata update changed clicks: got %d, want 1", updated.Clicks)
	}
}
