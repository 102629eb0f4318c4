// compute-intersections reports the area of intersection of every pair
// of boundaries from two boundary sets, as CSV or JSON on stdout.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fagan2888/represent-boundaries/internal/boundaries"
	"github.com/fagan2888/represent-boundaries/internal/intersect"
)

var (
	flagFormat   string
	flagMetadata bool
)

var rootCmd = &cobra.Command{
	Use:   "compute-intersections <boundary-set-1> <boundary-set-2>",
	Short: "Report the overlap of every boundary pair across two boundary sets",
	Long: `Iterates the first set's boundaries in slug order, finds each
intersecting boundary in the second set, and reports the intersection
area with the ratio of each side it covers. Overlaps under 0.1% of
either shape are dropped as digitization noise.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load(".env.local")

		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			log.Fatal("DATABASE_URL not set")
		}

		gdb, err := gorm.Open(postgres.Open(dbURL), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return fmt.Errorf("DB connection error: %w", err)
		}

		opts := intersect.Options{
			Format:          flagFormat,
			IncludeMetadata: flagMetadata,
		}
		return intersect.Run(
			cmd.Context(),
			intersect.NewPGStore(gdb),
			boundaries.Slugify(args[0]),
			boundaries.Slugify(args[1]),
			opts,
			os.Stdout,
			os.Stderr,
		)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&flagFormat, "format", "f", intersect.FormatCSV, "output format: csv or json")
	rootCmd.Flags().BoolVarP(&flagMetadata, "metadata", "m", false, "include the original shapefile metadata in JSON output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
