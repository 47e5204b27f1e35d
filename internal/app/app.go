// Package app builds the service graph shared by the api, worker and
// reportctl binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"memberreports/internal/attendance"
	"memberreports/internal/catalog"
	"memberreports/internal/config"
	"memberreports/internal/ledger"
	"memberreports/internal/logger"
	"memberreports/internal/member"
	"memberreports/internal/memstore"
	"memberreports/internal/metrics"
	"memberreports/internal/queue"
	"memberreports/internal/render"
	"memberreports/internal/report"
	"memberreports/internal/reporting"
	"memberreports/internal/store"
)

// App holds the wired services and the connections behind them.
type App struct {
	Config     config.App
	Catalog    *catalog.Service
	Members    *member.Service
	Attendance *attendance.Service
	Ledger     *ledger.Service
	Engine     *report.Engine
	Reports    *reporting.Service
	Metrics    *metrics.Reports
	Queue      queue.Queue

	DB    *store.DB
	Redis *store.Redis
}

// Build connects the configured backends and wires the services. reg may be
// nil to skip metric registration.
func Build(ctx context.Context, cfg config.App, reg prometheus.Registerer) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.New(reg)}
	loc := cfg.Location()

	var (
		catStore    catalog.Store
		memberStore member.Store
		attStore    attendance.Store
		fileStore   ledger.Store
	)
	switch cfg.StoreBackend {
	case "memory":
		catStore = memstore.NewCatalog()
		memberStore = memstore.NewMembers()
		attStore = memstore.NewAttendance()
		fileStore = memstore.NewFiles()
	case "postgres", "":
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := store.EnsureSchema(ctx, db.Client); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.DB = db
		catStore = catalog.NewRepository(db.Client)
		memberStore = member.NewRepository(db.Client)
		attStore = attendance.NewRepository(db.Client)
		fileStore = ledger.NewRepository(db.Client)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	switch cfg.QueueBackend {
	case "memory":
		a.Queue = queue.NewInMemory(64)
	case "redis", "":
		a.Redis = store.NewRedis(cfg.RedisAddr)
		a.Queue = queue.NewRedisQueue(a.Redis.Client, queue.DefaultKey)
	default:
		a.Close()
		return nil, fmt.Errorf("unknown queue backend %q", cfg.QueueBackend)
	}

	blobs, err := ledger.NewDirStore(cfg.ReportsDir)
	if err != nil {
		a.Close()
		return nil, err
	}
	logo, err := render.LoadLogo(cfg.LogoPath)
	if err != nil {
		logger.Warn("logo unavailable, cards use a placeholder", "path", cfg.LogoPath, "err", err)
	}

	a.Catalog = catalog.NewService(catStore)
	a.Members = member.NewService(memberStore)
	a.Attendance = attendance.NewService(attStore, a.Members, loc)
	a.Ledger = ledger.NewService(fileStore, blobs, ledger.WithTTL(cfg.ReportTTL))
	a.Engine = report.NewEngine(attStore, memberStore, report.WithLocation(loc))
	renderer := render.New(render.Options{OrgCode: cfg.OrgCode, Logo: logo, Location: loc})
	a.Reports = reporting.NewService(a.Catalog, a.Engine, renderer, a.Ledger, a.Queue, a.Metrics)
	return a, nil
}

// Healthy reports the state of each connected backend.
func (a *App) Healthy(ctx context.Context) map[string]bool {
	h := map[string]bool{}
	if a.DB != nil {
		h["db"] = a.DB.Healthy(ctx)
	}
	if a.Redis != nil {
		h["redis"] = a.Redis.Healthy(ctx)
	}
	return h
}

// Close releases connections.
func (a *App) Close() error {
	return errors.Join(a.DB.Close(), a.Redis.Close())
}
