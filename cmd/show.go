package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/spigell/resume-screener/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <csv>",
	Short: "Print a previously exported results file as a table",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		if err := show(args[0]); err != nil {
			log.Fatalf("showing %s: %s", args[0], err)
		}
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func show(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	table, err := report.ReadCSV(file)
	if err != nil {
		return err
	}

	return report.Render(os.Stdout, table)
}
