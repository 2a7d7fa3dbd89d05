package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"agroanalyst/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/semaphore"
)

// ChangeEvent is one delivered write to a watched report document. Before is
// nil on the first write. Delivery is at-least-once and unordered across
// documents.
type ChangeEvent struct {
	ID     string
	Before *models.Report
	After  *models.Report
}

// EventSource yields change events. Next returns io.EOF when the feed is
// exhausted (closed cleanly).
type EventSource interface {
	Next(ctx context.Context) (ChangeEvent, error)
}

// EventHandler processes a single change event.
type EventHandler func(ctx context.Context, ev ChangeEvent) error

// Watcher pulls events from a source and hands each one to its own
// goroutine, so one slow analysis call never holds up other documents'
// events. Events for the same document may run concurrently; the handler's
// guarded updates are what keep that safe.
type Watcher struct {
	source  EventSource
	handler EventHandler
	logger  *slog.Logger
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
}

func NewWatcher(source EventSource, handler EventHandler, maxInflight int64, logger *slog.Logger) *Watcher {
	if maxInflight <= 0 {
		maxInflight = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		source:  source,
		handler: handler,
		logger:  logger,
		sem:     semaphore.NewWeighted(maxInflight),
	}
}

// Run consumes the source until it is exhausted or ctx is cancelled, then
// waits for in-flight handlers to finish.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.wg.Wait()

	for {
		ev, err := w.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := w.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		w.wg.Add(1)
		go func(ev ChangeEvent) {
			defer w.wg.Done()
			defer w.sem.Release(1)
			if err := w.handler(ctx, ev); err != nil {
				w.logger.Error("event handling failed", "report", ev.ID, "error", err)
			}
		}(ev)
	}
}

// changeStreamSource adapts a Mongo change stream on the reports collection
// to the EventSource contract.
type changeStreamSource struct {
	stream *mongo.ChangeStream
}

func newChangeStreamSource(ctx context.Context, col *mongo.Collection) (*changeStreamSource, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"operationType": bson.M{"$in": []string{"insert", "update", "replace"}},
		}}},
	}
	opts := options.ChangeStream().
		SetFullDocument(options.UpdateLookup).
		SetFullDocumentBeforeChange(options.WhenAvailable)

	stream, err := col.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, err
	}
	return &changeStreamSource{stream: stream}, nil
}

// changeStreamEvent is the slice of the raw change document we care about.
type changeStreamEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument             *models.Report `bson:"fullDocument"`
	FullDocumentBeforeChange *models.Report `bson:"fullDocumentBeforeChange"`
}

func (s *changeStreamSource) Next(ctx context.Context) (ChangeEvent, error) {
	if !s.stream.Next(ctx) {
		if err := s.stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			return ChangeEvent{}, err
		}
		return ChangeEvent{}, io.EOF
	}

	var raw changeStreamEvent
	if err := s.stream.Decode(&raw); err != nil {
		return ChangeEvent{}, err
	}

	ev := ChangeEvent{
		ID:     raw.DocumentKey.ID.Hex(),
		Before: raw.FullDocumentBeforeChange,
		After:  raw.FullDocument,
	}
	if raw.OperationType == "insert" {
		ev.Before = nil
	}
	return ev, nil
}

func (s *changeStreamSource) Close(ctx context.Context) error {
	return s.stream.Close(ctx)
}
