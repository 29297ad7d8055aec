package visits

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	total, err := repo.Total(ctx, "site:visits")
	if err != nil {
		t.Fatalf("total on fresh counter: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected fresh counter at 0, got %d", total)
	}

	for want := int64(1); want <= 3; want++ {
		got, err := repo.Increment(ctx, "site:visits")
		if err != nil {
			t.Fatalf("increment %d: %v", want, err)
		}
		if got != want {
			t.Fatalf("expected %d after increment, got %d", want, got)
		}
	}

	if _, err := repo.Increment(ctx, "other"); err != nil {
		t.Fatalf("increment other: %v", err)
	}
	total, err = repo.Total(ctx, "site:visits")
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected counters to be independent, got %d", total)
	}

	_, err = repo.Increment(ctx, "  ")
	var counterErr *CounterError
	if !errors.As(err, &counterErr) || counterErr.Code != CounterErrorInvalidInput {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestMemoryRepositoryConcurrentIncrements(t *testing.T) {
	repo := NewMemoryRepository()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Increment(context.Background(), "c"); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	total, _ := repo.Total(context.Background(), "c")
	if total != 50 {
		t.Fatalf("expected 50, got %d", total)
	}
}

func TestMemoryRepositoryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemoryRepository().Increment(ctx, "c"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSQLiteRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visits.db")
	repo, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	exerciseRepository(t, repo)
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer reopened.Close()
	total, err := reopened.Total(context.Background(), "site:visits")
	if err != nil {
		t.Fatalf("total after reopen: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected persisted total 3, got %d", total)
	}
}

func TestSQLiteRepositoryReportsStorageErrors(t *testing.T) {
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "visits.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	_ = repo.Close()

	_, err = repo.Total(context.Background(), "site:visits")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable after close, got %v", err)
	}
}
