package cli

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/vlados/unique-urls/cmd"
	"github.com/vlados/unique-urls/internal/config"
	"github.com/vlados/unique-urls/internal/models"
)

// MigrateCmd represents the 'migrate' command.
// This command handles database schema creation and updates.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Executes database migrations to create or update tables.",
	Long: `This command connects to the configured database (SQLite)
and executes GORM automatic migrations to create the 'urls' and 'pages'
tables based on the Go models.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		// Load configuration to get database connection settings.
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		// Get the underlying SQL database connection for proper resource
		// management, so it can be closed when migration is complete.
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("FATAL: Failed to get underlying SQL database: %v", err)
		}
		defer sqlDB.Close()

		// This creates tables based on the struct definitions in our models
		// and adds new columns when the models have been extended.
		if err := db.AutoMigrate(&models.Url{}, &models.Page{}); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}

		fmt.Println("Database migrations executed successfully.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}
