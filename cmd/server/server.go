package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vlados/unique-urls/cmd"
	"github.com/vlados/unique-urls/internal/api"
	"github.com/vlados/unique-urls/internal/config"
	"github.com/vlados/unique-urls/internal/dispatch"
	"github.com/vlados/unique-urls/internal/doctor"
	"github.com/vlados/unique-urls/internal/logger"
	"github.com/vlados/unique-urls/internal/models"
	"github.com/vlados/unique-urls/internal/repository"
	"github.com/vlados/unique-urls/internal/services"
)

// RunServerCmd représente la commande 'run-server' de Cobra.
// C'est le point d'entrée pour lancer le serveur de l'application.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Lance le serveur HTTP et le moniteur d'intégrité des URLs.",
	Long: `Cette commande initialise la base de données, enregistre les handlers
de dispatch, démarre le moniteur d'intégrité en arrière-plan, puis lance
le serveur HTTP qui résout chaque chemin entrant contre les slugs stockés.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Échec du chargement de la configuration : %v\n", err)
			os.Exit(1)
		}

		log, err := logger.New(cfg.Log.Level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Échec de l'initialisation du logger : %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()

		// Initialiser la base de données
		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatal("échec de la connexion à la base de données", zap.Error(err))
		}

		// Migration automatique des modèles
		if err := db.AutoMigrate(&models.Url{}, &models.Page{}); err != nil {
			log.Fatal("échec de la migration de la base de données", zap.Error(err))
		}

		// Initialiser les repositories
		urlRepo := repository.NewUrlRepository(db, cfg.Urls.CreateRedirects)
		pageRepo := repository.NewPageRepository(db)
		log.Info("repositories initialisés")

		// Initialiser les services métiers
		slugService := services.NewSlugService(urlRepo, cfg, log)
		urlService := services.NewUrlService(urlRepo, slugService, cfg, log)
		pageService := services.NewPageService(pageRepo, urlService, log)
		log.Info("services métiers initialisés")

		// Enregistrer les handlers de dispatch
		registry := dispatch.NewRegistry()
		registry.Register("pages", api.NewPagesHandler(pageRepo))
		dispatcher := dispatch.NewDispatcher(urlRepo, registry, cfg, log)

		// Lancer le moniteur d'intégrité des URLs
		monitorInterval := time.Duration(cfg.Monitor.IntervalMinutes) * time.Minute
		sources := []services.EntitySource{pageService.Source()}
		urlMonitor := doctor.NewMonitor(doctor.New(urlRepo, sources, cfg, log), monitorInterval, log)
		go urlMonitor.Start()
		log.Info("moniteur d'intégrité démarré", zap.Duration("interval", monitorInterval))

		// Configurer le routeur Gin et les handlers API
		router := gin.Default()
		api.SetupRoutes(router, pageService, urlService, dispatcher, cfg, log)
		log.Info("routes API configurées")

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    serverAddr,
			Handler: router,
		}

		// Démarrer le serveur dans une goroutine pour ne pas bloquer
		go func() {
			log.Info("démarrage du serveur", zap.String("addr", serverAddr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal("échec du démarrage du serveur", zap.Error(err))
			}
		}()

		// Gérer l'arrêt propre du serveur (graceful shutdown)
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("signal d'arrêt reçu, arrêt du serveur...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("arrêt forcé du serveur", zap.Error(err))
		}
		log.Info("serveur arrêté proprement")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
