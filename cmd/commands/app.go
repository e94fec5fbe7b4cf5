package commands

// Shared wiring for the bot and report commands:
// config → logging → tracing → usage source, renderer, uploader, publishers, ledger → report runner

import (
	"context"
	"fmt"
	"time"

	"usage-report-bot/internal/clients_api/storage"
	"usage-report-bot/internal/clients_api/telegram"
	"usage-report-bot/internal/clients_api/usage"
	"usage-report-bot/internal/clients_api/webhook"
	"usage-report-bot/internal/features/charts"
	"usage-report-bot/internal/features/reports"
	"usage-report-bot/internal/infra/config"
	logging "usage-report-bot/internal/infra/log"
	"usage-report-bot/internal/infra/state"
	"usage-report-bot/internal/infra/telemetry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	cfg       *config.Config
	loc       *time.Location
	runner    *reports.Runner
	telemetry *telemetry.Provider
	closers   []func() error
}

// setupRuntime loads config and starts logging and tracing.
func setupRuntime(ctx context.Context, cmd *cobra.Command, skipValidation bool) (*config.Config, *telemetry.Provider, error) {
	opts := config.OptionsFromFlags(cmd.Flags())
	opts.SkipValidation = skipValidation
	cfg, err := config.Load(opts)
	if err != nil {
		logging.LogError("Failed to load config", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logging.Init(logging.Options{Dir: cfg.App.LogDir, Level: cfg.App.LogLevel, Console: true}); err != nil {
		return nil, nil, fmt.Errorf("failed to init logging: %w", err)
	}

	tp, err := telemetry.Setup(ctx, telemetry.Options{
		Enabled:        cfg.Telemetry.Enabled,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: rootCmd.Version,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	return cfg, tp, nil
}

func newRenderer(cfg *config.Config) (*charts.Renderer, error) {
	return charts.NewRenderer(charts.Options{
		OutputDir:    cfg.App.OutputDir,
		FontPath:     cfg.App.FontPath,
		BoldFontPath: cfg.App.BoldFontPath,
		ValueUnit:    cfg.App.ValueUnit,
	})
}

func buildApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, tp, err := setupRuntime(ctx, cmd, false)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, telemetry: tp}

	if err := a.wire(ctx); err != nil {
		a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	a.loc = loc

	source, err := usage.Open(ctx, usage.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Table:  cfg.Database.Table,
		Schema: cfg.Database.Schema,
	})
	if err != nil {
		return fmt.Errorf("failed to open usage database: %w", err)
	}
	a.closers = append(a.closers, source.Close)

	renderer, err := newRenderer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create chart renderer: %w", err)
	}

	uploader, err := storage.New(ctx, storage.Options{
		Provider:              cfg.Storage.Provider,
		Bucket:                cfg.Storage.Bucket,
		PublicBaseURL:         cfg.Storage.PublicBaseURL,
		Region:                cfg.Storage.Region,
		Endpoint:              cfg.Storage.Endpoint,
		AccessKeyID:           cfg.Storage.AccessKeyID,
		SecretAccessKey:       cfg.Storage.SecretAccessKey,
		UsePathStyle:          cfg.Storage.UsePathStyle,
		GCSCredentialsFile:    cfg.Storage.GCSCredentialsFile,
		AzureAccount:          cfg.Storage.AzureAccount,
		AzureKey:              cfg.Storage.AzureKey,
		AzureConnectionString: cfg.Storage.AzureConnectionString,
		LocalDir:              cfg.Storage.LocalDir,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s uploader: %w", cfg.Storage.Provider, err)
	}
	a.closers = append(a.closers, uploader.Close)

	publishers, err := newPublishers(cfg)
	if err != nil {
		return err
	}

	ledger, err := state.New(ctx, state.Options{
		Backend:       cfg.State.Backend,
		File:          cfg.State.File,
		RedisAddr:     cfg.State.RedisAddr,
		RedisPassword: cfg.State.RedisPassword,
		RedisDB:       cfg.State.RedisDB,
		KeyPrefix:     cfg.State.KeyPrefix,
	})
	if err != nil {
		return fmt.Errorf("failed to open state ledger: %w", err)
	}
	a.closers = append(a.closers, ledger.Close)

	a.runner, err = reports.NewRunner(reports.Options{
		Source:     source,
		Renderer:   renderer,
		Uploader:   uploader,
		Publishers: publishers,
		Ledger:     ledger,
		Location:   loc,
		TopApps:    cfg.Schedule.TopApps,
		Prefix:     cfg.Storage.Prefix,
		ValueUnit:  cfg.App.ValueUnit,
	})
	if err != nil {
		return err
	}

	logging.LogInfo("Report pipeline ready",
		zap.String("database", cfg.Database.Driver),
		zap.String("storage", uploader.Name()),
		zap.Int("publishers", len(publishers)),
		zap.String("state", cfg.State.Backend),
		zap.String("timezone", loc.String()))
	return nil
}

func newPublishers(cfg *config.Config) ([]reports.Publisher, error) {
	var publishers []reports.Publisher

	if cfg.Webhook.URL != "" {
		client, err := webhook.New(webhook.Options{
			URL:           cfg.Webhook.URL,
			Username:      cfg.Webhook.Username,
			Timeout:       time.Duration(cfg.Webhook.Timeout) * time.Second,
			MaxRetries:    cfg.Webhook.MaxRetries,
			RatePerSecond: cfg.Webhook.RatePerSecond,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create webhook client: %w", err)
		}
		publishers = append(publishers, reports.NewWebhookPublisher(client))
	}

	if cfg.Telegram.BotToken != "" {
		sender, err := telegram.New(telegram.Options{Token: cfg.Telegram.BotToken, ChatID: cfg.Telegram.ChatID})
		if err != nil {
			// Telegram is optional when the webhook is configured
			if len(publishers) > 0 {
				logging.LogWarn("Telegram disabled", zap.Error(err))
				return publishers, nil
			}
			return nil, fmt.Errorf("failed to create telegram sender: %w", err)
		}
		publishers = append(publishers, reports.NewTelegramPublisher(sender))
	}
	return publishers, nil
}

// Close releases resources in reverse order and flushes traces and logs.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logging.LogWarn("Failed to close resource", zap.Error(err))
		}
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		logging.LogWarn("Failed to flush traces", zap.Error(err))
	}
	logging.Sync()
}
