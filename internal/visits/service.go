package visits

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const metricNamespace = "github.com/Team-synvo/jb-ai/internal/visits"

// Totals is the wire shape of both counter endpoints. Counted is only set by the increment call.
type Totals struct {
	Total   int64 `json:"total"`
	Counted bool  `json:"counted,omitempty"`
}

// Service records visits against one configured counter.
type Service struct {
	repo      Repository
	counterID string
	logger    *zap.Logger

	recorded        metric.Int64Counter
	recordedEnabled bool
}

// ServiceOption customises a Service.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	logger *zap.Logger
	meter  metric.Meter
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(cfg *serviceConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithMeter injects an OpenTelemetry meter; the global provider is used otherwise.
func WithMeter(m metric.Meter) ServiceOption {
	return func(cfg *serviceConfig) {
		if m != nil {
			cfg.meter = m
		}
	}
}

// NewService wires repo to counterID.
func NewService(repo Repository, counterID string, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("visits: repository is required")
	}
	counterID = strings.TrimSpace(counterID)
	if counterID == "" {
		return nil, errors.New("visits: counter id is required")
	}

	cfg := serviceConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.meter == nil {
		cfg.meter = otel.GetMeterProvider().Meter(metricNamespace)
	}

	recorded, err := cfg.meter.Int64Counter(
		"visits.recorded",
		metric.WithDescription("Count of first visits recorded by the counter"),
	)
	if err != nil {
		cfg.logger.Warn("visits: unable to register recorded metric", zap.Error(err))
	}

	return &Service{
		repo:            repo,
		counterID:       counterID,
		logger:          cfg.logger,
		recorded:        recorded,
		recordedEnabled: err == nil,
	}, nil
}

// Record counts one new visitor and returns the new total.
func (s *Service) Record(ctx context.Context) (int64, error) {
	total, err := s.repo.Increment(ctx, s.counterID)
	if err != nil {
		s.logger.Warn("visit increment failed", zap.String("counter", s.counterID), zap.Error(err))
		return 0, err
	}
	if s.recordedEnabled {
		s.recorded.Add(ctx, 1, metric.WithAttributes(attribute.String("counter", s.counterID)))
	}
	return total, nil
}

// Total returns the current visitor total.
func (s *Service) Total(ctx context.Context) (int64, error) {
	total, err := s.repo.Total(ctx, s.counterID)
	if err != nil {
		s.logger.Warn("visit total failed", zap.String("counter", s.counterID), zap.Error(err))
		return 0, err
	}
	return total, nil
}
