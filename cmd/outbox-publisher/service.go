package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/quickshop/storefront-backend/pkg/config"
	"github.com/quickshop/storefront-backend/pkg/db/models"
	"github.com/quickshop/storefront-backend/pkg/logger"
)

const (
	defaultBatchSize    = 50
	defaultPollInterval = 5 * time.Second
	publishTimeout      = 10 * time.Second
	maxBackoff          = time.Minute
	jitterWindow        = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type outboxRepository interface {
	FetchUnpublished(limit int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

type broker interface {
	Ping(ctx context.Context) error
	Publish(ctx context.Context, channel string, payload []byte) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// wireMessage is what subscribers receive on the event channel: the routing
// metadata plus the envelope exactly as the writer committed it.
type wireMessage struct {
	OutboxID      uuid.UUID       `json:"outbox_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	CreatedAt     time.Time       `json:"created_at"`
	Envelope      json.RawMessage `json:"envelope"`
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         pinger
	Broker     broker
	Repository outboxRepository
}

// Service drains unpublished outbox rows to the redis event channel.
type Service struct {
	logg         *logger.Logger
	db           pinger
	broker       broker
	repo         outboxRepository
	channel      string
	batchSize    int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Broker == nil {
		return nil, errors.New("broker is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	interval := params.Config.Outbox.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	channel := params.Config.Outbox.Channel
	if channel == "" {
		return nil, errors.New("outbox channel is required")
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		broker:       params.Broker,
		repo:         params.Repository,
		channel:      channel,
		batchSize:    batch,
		pollInterval: interval,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := s.broker.Ping(ctx); err != nil {
		return fmt.Errorf("broker ping failed: %w", err)
	}
	return nil
}

// Run polls until the context is canceled. Batch errors back off
// exponentially; an empty fetch sleeps one poll interval.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	backoff := s.pollInterval
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = s.pollInterval

		if processed {
			continue
		}
		if err := s.sleep(ctx, withJitter(s.pollInterval)); err != nil {
			return err
		}
	}
}

// processBatch publishes one batch. Individual publish failures are recorded
// on the row and do not stop the rest of the batch.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	events, err := s.repo.FetchUnpublished(s.batchSize)
	if err != nil {
		return false, err
	}
	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		fields := s.eventFields(event)
		if err := s.publish(ctx, event); err != nil {
			failCtx := s.logg.WithFields(ctx, fields)
			failCtx = s.logg.WithField(failCtx, "error", err.Error())
			s.logg.Warn(failCtx, "outbox publish failed")
			if markErr := s.repo.MarkFailed(event.ID, err); markErr != nil {
				return true, fmt.Errorf("mark failure %s: %w", event.ID, markErr)
			}
			continue
		}
		if markErr := s.repo.MarkPublished(event.ID); markErr != nil {
			return true, fmt.Errorf("mark published %s: %w", event.ID, markErr)
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
	}
	return true, nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent) error {
	msg := wireMessage{
		OutboxID:      event.ID,
		EventType:     string(event.EventType),
		AggregateType: string(event.AggregateType),
		AggregateID:   event.AggregateID,
		CreatedAt:     event.CreatedAt,
		Envelope:      event.Payload,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal wire message: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return s.broker.Publish(publishCtx, s.channel, payload)
}

func (s *Service) eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
		"channel":        s.channel,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}
