// Package cli regroupe les commandes d'administration des URLs uniques.
package cli

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vlados/unique-urls/internal/config"
	"github.com/vlados/unique-urls/internal/logger"
	"github.com/vlados/unique-urls/internal/repository"
	"github.com/vlados/unique-urls/internal/services"
)

// env regroupe les dépendances partagées par toutes les commandes CLI.
type env struct {
	cfg         *config.Config
	log         *zap.Logger
	db          *gorm.DB
	urlRepo     repository.UrlRepository
	pageRepo    repository.PageRepository
	urlService  *services.UrlService
	pageService *services.PageService
	sources     map[string]services.EntitySource
}

// bootstrap charge la configuration, ouvre la base de données et construit
// les services nécessaires aux commandes.
func bootstrap() (*env, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	zlog, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}
	cleanup := func() {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Warning: failed to close database: %v", err)
		}
		_ = zlog.Sync()
	}

	urlRepo := repository.NewUrlRepository(db, cfg.Urls.CreateRedirects)
	pageRepo := repository.NewPageRepository(db)
	slugService := services.NewSlugService(urlRepo, cfg, zlog)
	urlService := services.NewUrlService(urlRepo, slugService, cfg, zlog)
	pageService := services.NewPageService(pageRepo, urlService, zlog)

	return &env{
		cfg:         cfg,
		log:         zlog,
		db:          db,
		urlRepo:     urlRepo,
		pageRepo:    pageRepo,
		urlService:  urlService,
		pageService: pageService,
		sources: map[string]services.EntitySource{
			"pages": pageService.Source(),
		},
	}, cleanup, nil
}

// selectSources retourne les sources d'entités à traiter, filtrées par le
// flag --entity le cas échéant.
func (e *env) selectSources(only string) ([]services.EntitySource, error) {
	if only == "" {
		out := make([]services.EntitySource, 0, len(e.sources))
		for _, source := range e.sources {
			out = append(out, source)
		}
		return out, nil
	}
	source, ok := e.sources[only]
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", only)
	}
	return []services.EntitySource{source}, nil
}
