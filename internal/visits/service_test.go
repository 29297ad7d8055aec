package visits

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubRepository struct {
	incrementFn func(context.Context, string) (int64, error)
	totalFn     func(context.Context, string) (int64, error)
	calls       []string
}

func (s *stubRepository) Increment(ctx context.Context, counterID string) (int64, error) {
	s.calls = append(s.calls, "increment:"+counterID)
	return s.incrementFn(ctx, counterID)
}

func (s *stubRepository) Total(ctx context.Context, counterID string) (int64, error) {
	s.calls = append(s.calls, "total:"+counterID)
	return s.totalFn(ctx, counterID)
}

func TestNewServiceValidatesInput(t *testing.T) {
	if _, err := NewService(nil, "c"); err == nil {
		t.Fatalf("expected error for nil repository")
	}
	if _, err := NewService(NewMemoryRepository(), " "); err == nil {
		t.Fatalf("expected error for blank counter id")
	}
}

func TestServiceRecordAndTotal(t *testing.T) {
	svc, err := NewService(NewMemoryRepository(), "site:visits", WithMeter(noop.NewMeterProvider().Meter("test")))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	if total, err := svc.Record(ctx); err != nil || total != 1 {
		t.Fatalf("record: total=%d err=%v", total, err)
	}
	if total, err := svc.Record(ctx); err != nil || total != 2 {
		t.Fatalf("second record: total=%d err=%v", total, err)
	}
	if total, err := svc.Total(ctx); err != nil || total != 2 {
		t.Fatalf("total: total=%d err=%v", total, err)
	}
}

func TestServiceLogsAndReturnsRepositoryErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	boom := storageError("visits.stub", errors.New("disk full"))
	repo := &stubRepository{
		incrementFn: func(context.Context, string) (int64, error) { return 0, boom },
		totalFn:     func(context.Context, string) (int64, error) { return 0, boom },
	}
	svc, err := NewService(repo, "site:visits", WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Record(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := svc.Total(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if logs.Len() != 2 {
		t.Fatalf("expected two warnings, got %d", logs.Len())
	}
	if got := repo.calls; len(got) != 2 || got[0] != "increment:site:visits" || got[1] != "total:site:visits" {
		t.Fatalf("unexpected repository calls %v", got)
	}
}

func TestCounterErrorMessage(t *testing.T) {
	err := NewCounterError("visits.op", "", "", errors.New("cause"))
	if err.Code != CounterErrorUnknown {
		t.Fatalf("expected unknown code, got %s", err.Code)
	}
	if err.Error() != "visits.op: cause" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if errors.Is(err, ErrUnavailable) {
		t.Fatalf("only storage errors should match ErrUnavailable")
	}
}
