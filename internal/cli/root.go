package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"vnstock-advisor/internal/agents"
	"vnstock-advisor/internal/config"
	"vnstock-advisor/internal/dashboard"
	"vnstock-advisor/internal/knowledge"
	"vnstock-advisor/internal/logging"
	"vnstock-advisor/internal/marketdata"
	"vnstock-advisor/internal/resilience"
	"vnstock-advisor/internal/session"
	"vnstock-advisor/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// Credential origins reported by `credential show`.
const (
	CredentialFromEnv   = "env"
	CredentialFromStore = "store"
	CredentialNone      = "none"
)

// App holds the application dependencies.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Store      store.DataStore // nil when the database could not be opened
	Dispatcher *dashboard.Dispatcher
	Breakers   *resilience.CircuitBreakerRegistry

	credentialOrigin string
}

// NewApp wires the providers, knowledge documents, store and dispatcher.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	app := &App{Config: cfg, Logger: logger, credentialOrigin: CredentialNone}

	breakerCfg := resilience.DefaultCircuitBreakerConfig()
	if cfg.Market.BreakerCooldown > 0 {
		breakerCfg.Cooldown = cfg.Market.BreakerCooldown
	}
	app.Breakers = resilience.NewCircuitBreakerRegistry(marketdata.BreakerConfig(cfg.Market.BreakerFailures, breakerCfg))
	registry := marketdata.NewRegistry(marketdata.Guard(app.Breakers, logger,
		marketdata.NewTCBSClient(cfg.Market.TCBSBaseURL, cfg.Market.Timeout, logger),
		marketdata.NewVCIClient(cfg.Market.VCIBaseURL, cfg.Market.Timeout, logger),
	)...)

	var credentials dashboard.CredentialStore
	dataStore, err := store.NewSQLiteStore(cfg.DatabasePath())
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, the credential will not persist")
	} else {
		app.Store = dataStore
		credentials = store.NewCredentialStore(dataStore)
		logger.Debug().Str("path", cfg.DatabasePath()).Msg("SQLite store initialized")
	}

	state := session.New(session.Selection{
		Source: cfg.MarketSource(),
		Days:   config.LookupDays,
	})

	app.Dispatcher = dashboard.NewDispatcher(dashboard.Deps{
		State:       state,
		Registry:    registry,
		Knowledge:   knowledge.NewStore(cfg.Knowledge.Dir, logger),
		Credentials: credentials,
		NewClient: func(apiKey string) agents.LLMClient {
			return agents.NewOpenAIClient(apiKey, agents.ClientOptions{
				BaseURL: cfg.Assistant.BaseURL,
				Timeout: cfg.Assistant.Timeout,
			})
		},
		Logger: logger,
	}, dashboard.Options{
		AssistantDays: cfg.Market.Days,
		ScanDays:      cfg.Scan.Days,
		ScanSymbols:   cfg.Scan.Symbols,
		Interval:      cfg.MarketInterval(),
	})

	app.resolveCredential(context.Background())
	return app
}

// resolveCredential prefers the environment over the persisted credential.
func (a *App) resolveCredential(ctx context.Context) {
	state := a.Dispatcher.State()
	if key := a.Config.Credentials.OpenAIKey; key != "" {
		state.SetCredential(key)
		a.credentialOrigin = CredentialFromEnv
		return
	}
	if err := a.Dispatcher.LoadCredential(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to load saved credential")
		return
	}
	if state.Credential() != "" {
		a.credentialOrigin = CredentialFromStore
	}
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	return newRootCmd(NewApp(cfg, logger))
}

// NewCommand creates the root command for an already wired App.
func NewCommand(app *App) *cobra.Command {
	return newRootCmd(app)
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vnadvisor",
		Short: "VN Stock Advisor - technical briefings and an assistant for Vietnamese stocks",
		Long: `VN Stock Advisor looks up HOSE/HNX tickers, computes technical indicators
(moving averages, volume ratio, ADX, price ranges) and answers questions about a
ticker with an assistant grounded in those indicators and the Chim Cút method.

Use 'vnadvisor serve' to run the HTTP API for the browser dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/vnstock-advisor)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newCompanyCmd(app))
	rootCmd.AddCommand(newFinanceCmd(app))
	rootCmd.AddCommand(newChatCmd(app))
	rootCmd.AddCommand(newScanCmd(app))
	rootCmd.AddCommand(newWatchlistCmd(app))
	rootCmd.AddCommand(newCredentialCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("VN Stock Advisor v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.Config.Dir})
			} else {
				output.Println(app.Config.Dir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Market Data")
	output.Printf("  Source:          %s\n", cfg.MarketSource())
	output.Printf("  Assistant days:  %d\n", cfg.Market.Days)
	output.Printf("  Interval:        %s\n", cfg.Market.Interval)
	output.Printf("  Timeout:         %s\n", cfg.Market.Timeout)
	output.Println()

	output.Bold("Assistant")
	output.Printf("  Model:           %s\n", agents.Model)
	output.Printf("  Timeout:         %s\n", cfg.Assistant.Timeout)
	if cfg.Assistant.BaseURL != "" {
		output.Printf("  Base URL:        %s\n", cfg.Assistant.BaseURL)
	}
	output.Printf("  Knowledge dir:   %s\n", cfg.Knowledge.Dir)
	output.Println()

	output.Bold("Scan")
	output.Printf("  Symbols:         %v\n", cfg.Scan.Symbols)
	output.Printf("  Days:            %d\n", cfg.Scan.Days)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:         %s\n", cfg.Server.Addr)
	output.Printf("  Origins:         %v\n", cfg.Server.AllowedOrigins)
}
