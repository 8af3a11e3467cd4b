package app

import (
	"context"
	"fmt"

	"canteen-planner/internal/catalog"
	"canteen-planner/internal/config"
	"canteen-planner/internal/database"
	"canteen-planner/internal/metrics"
	"canteen-planner/internal/planner"
	"canteen-planner/internal/session"
	"canteen-planner/internal/storage"

	"github.com/rs/zerolog/log"
)

// App holds the application's dependencies.
type App struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	sessions *session.Store
	planRepo *planner.PlanRepository
	exports  storage.ExportStore
	activity *metrics.Store
}

// NewApp creates and initializes a new App instance. exports and activity
// may be nil.
func NewApp(
	cfg *config.Config,
	cat *catalog.Catalog,
	sessions *session.Store,
	planRepo *planner.PlanRepository,
	exports storage.ExportStore,
	activity *metrics.Store,
) *App {
	return &App{
		cfg:      cfg,
		catalog:  cat,
		sessions: sessions,
		planRepo: planRepo,
		exports:  exports,
		activity: activity,
	}
}

// Bootstrap wires every dependency from configuration. The returned
// database must be closed by the caller.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, *database.DB, error) {
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		cat = loaded
	}
	log.Info().Int("dishes", cat.Len()).Msg("catalog loaded")

	codec, err := planner.NewSignedCodec(cfg.PayloadSecret, cfg.SessionTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create payload codec: %w", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	exports, err := storage.Open(ctx, cfg.ExportPath, storage.S3Config{
		Bucket:    cfg.ExportS3.Bucket,
		Region:    cfg.ExportS3.Region,
		Endpoint:  cfg.ExportS3.Endpoint,
		Prefix:    cfg.ExportS3.Prefix,
		PathStyle: cfg.ExportS3.PathStyle,
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to open export store: %w", err)
	}

	a := NewApp(
		cfg,
		cat,
		session.NewStore(codec, cfg.SessionTTL),
		planner.NewPlanRepository(db.SQL),
		exports,
		metrics.NewStore(db.SQL),
	)
	return a, db, nil
}

// Catalog returns the loaded catalog.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// Sessions returns the live session store.
func (a *App) Sessions() *session.Store {
	return a.sessions
}

// recordEvent writes to the activity log without failing the caller.
func (a *App) recordEvent(ctx context.Context, e metrics.PlanEvent) {
	if a.activity == nil {
		return
	}
	if err := a.activity.Record(ctx, e); err != nil {
		log.Warn().Err(err).Str("kind", e.Kind).Msg("failed to record plan event")
	}
}
