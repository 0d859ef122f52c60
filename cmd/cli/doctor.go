package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/vlados/unique-urls/cmd"
	"github.com/vlados/unique-urls/internal/doctor"
)

var doctorEntityFlag string

// DoctorCmd représente la commande 'doctor'
var DoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Vérifie l'intégrité des URLs générées.",
	Long: `Cette commande vérifie que chaque entité possède une URL par langue
configurée, qu'aucun slug n'est dupliqué et qu'aucun enregistrement ne
pointe vers une entité disparue. Retourne un code de sortie non nul si
des problèmes sont détectés.`,
	Run: runDoctor,
}

func init() {
	DoctorCmd.Flags().StringVar(&doctorEntityFlag, "entity", "", "Only check this entity type")
	cmd.RootCmd.AddCommand(DoctorCmd)
}

// runDoctor exécute la logique pour la commande doctor
func runDoctor(cobraCmd *cobra.Command, args []string) {
	app, cleanup, err := bootstrap()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer cleanup()

	selected, err := app.selectSources(doctorEntityFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	check := doctor.New(app.urlRepo, selected, app.cfg, app.log)
	problems, err := check.Check()
	if err != nil {
		log.Fatalf("Integrity check failed to run: %v", err)
	}

	if len(problems) == 0 {
		fmt.Println("Everything is ok")
		return
	}

	fmt.Printf("Found %d problem(s):\n", len(problems))
	for _, problem := range problems {
		fmt.Printf(" - %s\n", problem)
	}
	os.Exit(1)
}
