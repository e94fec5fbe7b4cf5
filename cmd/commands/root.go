package commands

// Root command for Cobra CLI
// Registers bot, report and render subcommands
// Persistent flags use config keys as names so viper binds them directly

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "usage-report-bot",
	Short: "Usage Report Bot - scheduled app usage charts for chat channels",
	Long: `Usage Report Bot reads app usage metrics from PostgreSQL or SQLite, renders
bar, pie, line and stacked bar charts, uploads them to object storage and posts
hourly, daily and weekly reports to a chat webhook or Telegram.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: config.yaml in . or etc)")
	flags.String("env-file", ".env", "dotenv file loaded before reading the environment")
	flags.String("app.log_level", "", "log level: debug, info, warn, error")
	flags.String("app.timezone", "", "IANA time zone for report periods")
	flags.String("app.output_dir", "", "scratch directory for rendered charts")
	flags.String("database.driver", "", "usage database driver: postgres or sqlite")
	flags.String("database.dsn", "", "usage database DSN")
	flags.String("storage.provider", "", "chart storage: s3, gcs, azure or local")
	flags.String("webhook.url", "", "chat webhook URL")

	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(renderCmd)
}
