package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/vlados/unique-urls/cmd"
)

var rebuildEntityFlag string

// RebuildCmd représente la commande 'rebuild'
var RebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Régénère les URLs de toutes les entités, existantes comprises.",
	Long: `Cette commande repasse chaque entité par la génération d'URL. Les slugs
inchangés restent en place; les slugs qui diffèrent sont mis à jour et
laissent une redirection derrière eux.`,
	Run: runRebuild,
}

func init() {
	RebuildCmd.Flags().StringVar(&rebuildEntityFlag, "entity", "", "Only rebuild this entity type")
	cmd.RootCmd.AddCommand(RebuildCmd)
}

// runRebuild exécute la logique pour la commande rebuild
func runRebuild(cobraCmd *cobra.Command, args []string) {
	app, cleanup, err := bootstrap()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer cleanup()

	sources, err := app.selectSources(rebuildEntityFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	for _, source := range sources {
		entities, err := source.All()
		if err != nil {
			log.Fatalf("Failed to list %s: %v", source.Name(), err)
		}

		generated := 0
		for _, entity := range entities {
			if err := app.urlService.Generate(entity); err != nil {
				log.Fatalf("Failed to generate URL for %s(%d): %v",
					entity.EntityType(), entity.EntityID(), err)
			}
			generated++
		}

		// Vérifier qu'aucune entité n'est restée sans URL.
		for _, entity := range entities {
			has, err := app.urlRepo.HasUrls(entity.EntityType(), entity.EntityID())
			if err != nil {
				log.Fatalf("Failed to verify URLs for %s: %v", source.Name(), err)
			}
			if !has {
				fmt.Printf("Error: not all URLs were generated for %s\n", source.Name())
				os.Exit(1)
			}
		}

		fmt.Printf("Generated %d URLs for %s\n", generated, source.Name())
	}

	fmt.Println("All done")
}
