package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type App struct {
	cfg    Config
	logger *slog.Logger

	mongo         *mongo.Client
	db            *mongo.Database
	reports       *mongo.Collection
	activityLog   *mongo.Collection
	notifications *mongo.Collection

	registry   *prometheus.Registry
	controller *Controller
}

func newApp(ctx context.Context, cfg Config, logger *slog.Logger) (*App, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDB)

	app := &App{
		cfg:           cfg,
		logger:        logger,
		mongo:         client,
		db:            db,
		reports:       db.Collection("saa_reports"),
		activityLog:   db.Collection("activity_log"),
		notifications: db.Collection("notifications"),
	}

	// Indexes. The unique idempotency key is what makes notification
	// creation safe to retry under at-least-once event delivery.
	if _, err := app.notifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "idempotencyKey", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	}); err != nil {
		return nil, err
	}
	if _, err := app.notifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "farmerId", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return nil, err
	}
	if _, err := app.reports.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "requestedAt", Value: -1}},
	}); err != nil {
		return nil, err
	}

	app.registry = prometheus.NewRegistry()
	metrics := newControllerMetrics(app.registry)

	var analysis AnalysisService
	if cfg.AnalysisURL != "" {
		analysis = NewHTTPAnalysis(cfg.AnalysisURL, cfg.AnalysisTimeout)
	} else {
		analysis = CannedAnalysis{Delay: 5 * time.Second}
	}

	app.controller = NewController(
		&mongoReports{col: app.reports},
		&mongoActivityLog{col: app.activityLog},
		&mongoNotifications{col: app.notifications},
		analysis,
		cfg.AnalysisTimeout,
		logger,
		metrics,
	)

	return app, nil
}

// watch subscribes to the report change feed and dispatches events until ctx
// is cancelled.
func (a *App) watch(ctx context.Context) error {
	source, err := newChangeStreamSource(ctx, a.reports)
	if err != nil {
		return err
	}
	defer source.Close(context.Background())

	w := NewWatcher(source, a.controller.HandleEvent, a.cfg.MaxInflightEvents, a.logger)
	return w.Run(ctx)
}

func (a *App) close(ctx context.Context) { _ = a.mongo.Disconnect(ctx) }
