package storage

import (
	"sync"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/harding/internal/models"
)

func TestGetAllOrdersByCreation(t *testing.T) {
	s := New()
	now := time.Now()
	s.Set("b", &models.PendingImport{ID: "b", CreatedAt: now.Add(time.Second)})
	s.Set("a", &models.PendingImport{ID: "a", CreatedAt: now})
	s.Set("c", &models.PendingImport{ID: "c", CreatedAt: now.Add(2 * time.Second)})

	all := s.GetAll()
	if len(all) != 3 {
		t.Fatalf("Expected 3 pending imports, got %d", len(all))
	}
	for i, want := range []string{"a", "b", "c"} {
		if all[i].ID != want {
			t.Errorf("Expected %s at %d, got %s", want, i, all[i].ID)
		}
	}
}

func TestTakeResolvesOnce(t *testing.T) {
	s := New()
	s.Set("x", &models.PendingImport{ID: "x"})

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Take("x"); ok {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if taken != 1 {
		t.Errorf("Expected exactly one Take to succeed, got %d", taken)
	}
	if _, ok := s.Get("x"); ok {
		t.Error("Expected x to be gone after Take")
	}
}
