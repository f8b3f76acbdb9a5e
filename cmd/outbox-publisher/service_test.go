package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/pkg/config"
	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	"github.com/sangambaral17/TradeMaster/pkg/enums"
	"github.com/sangambaral17/TradeMaster/pkg/logger"
	"github.com/sangambaral17/TradeMaster/pkg/metrics"
	"github.com/sangambaral17/TradeMaster/pkg/outbox"
)

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			{
				ID:            uuid.New(),
				EventType:     enums.EventSaleCreated,
				AggregateType: enums.AggregateSale,
				AggregateID:   "1",
				Payload:       mustEnvelopePayload(t, "event-one"),
			},
			{
				ID:            uuid.New(),
				EventType:     enums.EventStockAdjusted,
				AggregateType: enums.AggregateProduct,
				AggregateID:   "2",
				Payload:       mustEnvelopePayload(t, "event-two"),
			},
		},
	}
	pub := &fakeBroker{errs: []error{errors.New("transient"), nil}}
	service := newTestService(t, repo, pub, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != repo.events[0].ID {
		t.Fatalf("unexpected failed rows %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != repo.events[1].ID {
		t.Fatalf("unexpected published rows %v", repo.published)
	}
}

func TestServicePublishesToEventTypeChannel(t *testing.T) {
	payload := mustEnvelopePayload(t, "sale-1")
	repo := &fakeRepo{events: []models.OutboxEvent{{
		ID:            uuid.New(),
		EventType:     enums.EventSaleCreated,
		AggregateType: enums.AggregateSale,
		AggregateID:   "1",
		Payload:       payload,
	}}}
	pub := &fakeBroker{}
	service := newTestService(t, repo, pub, &config.OutboxConfig{ChannelPrefix: "till"})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(pub.channels) != 1 || pub.channels[0] != "till:sale_created" {
		t.Fatalf("unexpected channels %v", pub.channels)
	}
	if string(pub.payloads[0]) != string(payload) {
		t.Fatalf("payload was rewritten: %s", pub.payloads[0])
	}
}

func TestServiceMarksUndecodablePayloadFailed(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{{
		ID:            uuid.New(),
		EventType:     enums.EventLowStockAlert,
		AggregateType: enums.AggregateProduct,
		AggregateID:   "3",
		Payload:       json.RawMessage(`"not-an-envelope"`),
		AttemptCount:  9,
	}}}
	pub := &fakeBroker{}
	reg := prometheus.NewRegistry()
	service := newTestService(t, repo, pub, nil)
	service.metrics = metrics.NewOutboxMetrics(reg)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(pub.channels) != 0 {
		t.Fatalf("nothing should be published")
	}
	if len(repo.failed) != 1 {
		t.Fatalf("expected failed mark, got %v", repo.failed)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, family := range families {
		if family.GetName() == "trademaster_outbox_failed_total" {
			found = family.GetMetric()[0].GetCounter().GetValue() == 1
		}
	}
	if !found {
		t.Fatalf("expected failed counter to be 1")
	}
}

func TestServiceEmptyBatch(t *testing.T) {
	service := newTestService(t, &fakeRepo{}, &fakeBroker{}, nil)
	processed, err := service.processBatch(context.Background())
	if err != nil || processed {
		t.Fatalf("expected idle batch, got %v %v", processed, err)
	}
}

func TestNextBackoffCaps(t *testing.T) {
	if got := nextBackoff(0, time.Second, 10*time.Second); got != 2*time.Second {
		t.Fatalf("unexpected backoff %v", got)
	}
	if got := nextBackoff(8*time.Second, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("expected cap, got %v", got)
	}
}

func TestNewServiceDefaults(t *testing.T) {
	service := newTestService(t, &fakeRepo{}, &fakeBroker{}, &config.OutboxConfig{})
	if service.batchSize != defaultBatchSize || service.maxAttempts != defaultMaxAttempts || service.channelPrefix != defaultChannelPrefix {
		t.Fatalf("unexpected defaults %+v", service)
	}
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error without config")
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub broker, outboxCfgOverride *config.OutboxConfig) *Service {
	t.Helper()
	cfg := &config.Config{Outbox: config.OutboxConfig{
		BatchSize:      10,
		PollIntervalMS: 10,
		MaxAttempts:    10,
		ChannelPrefix:  "trademaster.events",
	}}
	if outboxCfgOverride != nil {
		cfg.Outbox = *outboxCfgOverride
	}
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard}),
		DB:         &fakeDB{},
		Broker:     pub,
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func mustEnvelopePayload(tb testing.TB, eventID string) json.RawMessage {
	tb.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	})
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error {
	return nil
}

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakeBroker struct {
	errs     []error
	channels []string
	payloads [][]byte
}

func (f *fakeBroker) Ping(context.Context) error {
	return nil
}

func (f *fakeBroker) Publish(_ context.Context, channel string, payload []byte) error {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, payload)
	return nil
}
