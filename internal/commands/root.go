package commands

import (
	"github.com/spf13/cobra"

	"github.com/mmynk/tripwiser/internal/config"
	"github.com/mmynk/tripwiser/internal/storage/sqlite"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	dbPath     string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "tripctl",
		Short: "Administer a Tripwiser database",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "tripwiser.yaml", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database path (overrides config)")

	rootCmd.AddCommand(newUserCommand(opts))
	rootCmd.AddCommand(newTokenCommand(opts))
	rootCmd.AddCommand(newSettleCommand(opts))

	return rootCmd
}

func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	return cfg, nil
}

func (o *options) openStore() (*sqlite.SQLiteStore, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	return sqlite.New(cfg.Database.Path)
}
