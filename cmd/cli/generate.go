package cli

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vlados/unique-urls/cmd"
	"github.com/vlados/unique-urls/internal/models"
	"github.com/vlados/unique-urls/internal/services"
)

var (
	generateEntityFlag    string
	generateOnlyMissing   bool
	generateFresh         bool
	generateForce         bool
	generateChunkSizeFlag int
)

// GenerateCmd représente la commande 'generate'
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Génère les URLs manquantes pour toutes les entités enregistrées.",
	Long: `Cette commande parcourt les entités enregistrées et génère leurs URLs
dans chaque langue configurée. Les entités ayant déjà des URLs sont ignorées.

Exemple:
  unique-urls generate --entity=pages --chunk-size=200`,
	Run: runGenerate,
}

func init() {
	GenerateCmd.Flags().StringVar(&generateEntityFlag, "entity", "", "Only process this entity type")
	GenerateCmd.Flags().BoolVar(&generateOnlyMissing, "only-missing", false, "Skip entity types where every record already has URLs")
	GenerateCmd.Flags().BoolVar(&generateFresh, "fresh", false, "Delete existing URLs first and regenerate everything")
	GenerateCmd.Flags().BoolVar(&generateForce, "force", false, "Generate even for entities that opted out of automatic URLs")
	GenerateCmd.Flags().IntVar(&generateChunkSizeFlag, "chunk-size", 0, "Records per chunk (defaults to urls.batch_size)")

	cmd.RootCmd.AddCommand(GenerateCmd)
}

// runGenerate exécute la logique pour la commande generate
func runGenerate(cobraCmd *cobra.Command, args []string) {
	start := time.Now()

	app, cleanup, err := bootstrap()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer cleanup()

	sources, err := app.selectSources(generateEntityFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if generateFresh {
		if err := deleteExisting(app, generateEntityFlag); err != nil {
			log.Fatalf("Failed to delete existing URLs: %v", err)
		}
	}

	var total services.BatchStats
	for _, source := range sources {
		stats, err := generateForSource(app, source)
		if err != nil {
			log.Fatalf("Failed to generate URLs for %s: %v", source.Name(), err)
		}
		total.Generated += stats.Generated
		total.Skipped += stats.Skipped
		total.Failed += stats.Failed
	}

	// Afficher le résumé
	fmt.Println("═══════════════════════════════")
	fmt.Println("           Summary")
	fmt.Println("═══════════════════════════════")
	fmt.Printf("  Generated: %d URLs\n", total.Generated)
	fmt.Printf("  Skipped:   %d (already exist)\n", total.Skipped)
	fmt.Printf("  Failed:    %d (check logs)\n", total.Failed)
	fmt.Printf("  Duration:  %.2fs\n", time.Since(start).Seconds())

	if total.Failed > 0 {
		os.Exit(1)
	}
}

func generateForSource(app *env, source services.EntitySource) (services.BatchStats, error) {
	entities, err := source.All()
	if err != nil {
		return services.BatchStats{}, err
	}

	// Les entités ayant désactivé la génération automatique sont ignorées,
	// sauf si --force est passé.
	if !generateForce {
		kept := entities[:0]
		skippedOptOut := 0
		for _, entity := range entities {
			if entity.AutoGenerateUrls() {
				kept = append(kept, entity)
			} else {
				skippedOptOut++
			}
		}
		entities = kept
		if skippedOptOut > 0 {
			fmt.Printf("%s: %d entities opted out of URL generation (use --force to include them)\n",
				source.Name(), skippedOptOut)
		}
	}

	withUrls := 0
	for _, entity := range entities {
		has, err := app.urlRepo.HasUrls(entity.EntityType(), entity.EntityID())
		if err != nil {
			return services.BatchStats{}, err
		}
		if has {
			withUrls++
		}
	}

	fmt.Printf("Generating URLs for %s...\n", source.Name())
	fmt.Printf("├─ Found: %d entities\n", len(entities))
	fmt.Printf("├─ With URLs: %d\n", withUrls)
	fmt.Printf("└─ Without URLs: %d\n", len(entities)-withUrls)

	if generateOnlyMissing && withUrls == len(entities) {
		fmt.Println("All entities already have URLs, skipping...")
		return services.BatchStats{Skipped: len(entities)}, nil
	}

	progress := func(entity models.UrlEntity, processed, total int, stats services.BatchStats) {
		if processed%100 == 0 || processed == total {
			fmt.Printf("  %d/%d processed\n", processed, total)
		}
	}

	return app.urlService.GenerateBatch(entities, generateChunkSizeFlag, progress), nil
}

func deleteExisting(app *env, entityType string) error {
	if entityType == "" {
		count, err := app.urlRepo.CountAll()
		if err != nil {
			return err
		}
		if err := app.urlRepo.Truncate(); err != nil {
			return err
		}
		fmt.Printf("Deleted %d URLs\n", count)
		return nil
	}

	count, err := app.urlRepo.DeleteForEntityType(entityType)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d URLs for %s\n", count, entityType)
	return nil
}
