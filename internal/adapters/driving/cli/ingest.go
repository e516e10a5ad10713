package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/tutorbot/internal/core/ports/driving"
	"github.com/custodia-labs/tutorbot/internal/normalisers"
)

var (
	ingestDir  string
	ingestExts string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fill the retrieval collections",
	Long: `Load course materials or past answered questions into the vector
collections used for retrieval. Re-running an ingestion overwrites
entries with the same IDs.`,
}

var ingestMaterialsCmd = &cobra.Command{
	Use:   "materials",
	Short: "Ingest course material files from a directory",
	Example: `  tutorbot ingest materials --dir ./course
  tutorbot ingest materials --dir ./slides --ext pdf`,
	RunE: runIngestMaterials,
}

var ingestHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Ingest answered questions from the course feed",
	RunE:  runIngestHistory,
}

func init() {
	ingestMaterialsCmd.Flags().StringVar(&ingestDir, "dir", "", "directory with course materials")
	ingestMaterialsCmd.Flags().StringVar(&ingestExts, "ext", "pdf,md,txt", "comma separated file extensions")
	_ = ingestMaterialsCmd.MarkFlagRequired("dir")

	ingestCmd.AddCommand(ingestMaterialsCmd)
	ingestCmd.AddCommand(ingestHistoryCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngestMaterials(cmd *cobra.Command, _ []string) error {
	if err := requireRuntime(); err != nil {
		return err
	}
	ingestor, err := appRuntime.Ingestor(cmd.Context(), settings, false)
	if err != nil {
		return err
	}

	stats, err := ingestor.IngestMaterials(cmd.Context(), ingestDir, normalisers.ParseExtensions(ingestExts))
	if err != nil {
		return err
	}
	printIngestStats(cmd, "files", stats)
	return nil
}

func runIngestHistory(cmd *cobra.Command, _ []string) error {
	if err := requireRuntime(); err != nil {
		return err
	}
	ingestor, err := appRuntime.Ingestor(cmd.Context(), settings, true)
	if err != nil {
		return err
	}

	stats, err := ingestor.IngestHistory(cmd.Context())
	if err != nil {
		return err
	}
	printIngestStats(cmd, "posts", stats)
	return nil
}

func printIngestStats(cmd *cobra.Command, unit string, stats *driving.IngestStats) {
	cmd.Printf("Ingested %d chunks from %d %s (%d skipped, %d failed)\n",
		stats.Chunks, stats.Files, unit, stats.Skipped, stats.Failed)
}
