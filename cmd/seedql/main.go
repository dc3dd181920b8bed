// Command seedql generates an SQL script populating a schema with the
// entities built by the registered data providers.
//
// Positional arguments are the output file and the data folder, in either
// order - an argument naming an existing directory is the data folder.
// Applications import their provider packages for side effects, so that the
// providers and the entity model register themselves at startup.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syssam/seedql/importer"
	"github.com/syssam/seedql/schema"

	// Database drivers for the live connection mode.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var (
	configFile  string
	dialectName string
	databaseURL string
	relativeIDs bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "seedql [output-file] [data-folder]",
	Short: "Generate SQL populating a schema from the registered data providers",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd, args)
		if err != nil {
			return err
		}

		log := zap.NewNop().Sugar()
		if verbose {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()
			log = logger.Sugar()
		}

		imp, err := importer.New(settings, schema.DefaultModel, importer.DefaultRegistry)
		if err != nil {
			return err
		}
		if err := imp.WithLogger(log).ImportData(context.Background()); err != nil {
			return err
		}
		if settings.DatabaseURL != "" {
			color.Green("✅ Statements executed on %s", settings.Dialect)
		} else {
			color.Green("✅ %s generated", settings.OutputFile)
		}
		return nil
	},
}

// loadSettings layers the configuration sources: config file, environment,
// flags, positional arguments.
func loadSettings(cmd *cobra.Command, args []string) (*importer.Settings, error) {
	settings := importer.DefaultSettings()
	if configFile != "" {
		loaded, err := importer.LoadSettings(configFile)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}
	settings.FromEnv()
	if cmd.Flags().Changed("dialect") {
		settings.Dialect = dialectName
	}
	if cmd.Flags().Changed("database-url") {
		settings.DatabaseURL = databaseURL
	}
	if cmd.Flags().Changed("relative-ids") {
		settings.WriteRelativeIDs = relativeIDs
	}
	for i, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			settings.DataFolder = arg
			continue
		}
		if i == 0 || settings.OutputFile == importer.DefaultSettings().OutputFile {
			settings.OutputFile = arg
		}
	}
	return settings, nil
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to a seedql.yaml settings file")
	rootCmd.Flags().StringVar(&dialectName, "dialect", "postgres", "SQL dialect: postgres, mysql or sqlite")
	rootCmd.Flags().StringVar(&databaseURL, "database-url", "", "Execute on a live connection instead of writing a file")
	rootCmd.Flags().BoolVar(&relativeIDs, "relative-ids", false, "Prefer currval/sub-select references over literal ids")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
}

func main() {
	// Local overrides, ignored when missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌ Generation failed:", err)
		os.Exit(1)
	}
}
