// Package cli wires the issuance workflow into the mintforge command.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/solforge/mintforge/internal/config"
	"github.com/solforge/mintforge/internal/export"
	"github.com/solforge/mintforge/internal/issue"
	"github.com/solforge/mintforge/internal/logging"
	"github.com/solforge/mintforge/internal/pin"
	"github.com/solforge/mintforge/internal/prompt"
	"github.com/solforge/mintforge/internal/solana"
)

// ErrPinningNotConfigured is returned when an image was supplied but no
// pinning credentials are available to publish it.
var ErrPinningNotConfigured = errors.New("cli: token image supplied but pinata credentials are not configured")

// Version is stamped at build time via ldflags.
var Version = "dev"

var (
	interactive bool
	envFile     string
	outPath     string
	logLevel    string
	logJSON     bool
)

var rootCmd = &cobra.Command{
	Use:           "mintforge",
	Short:         "mintforge provisions fungible SPL tokens on Solana",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		logging.Init(logLevel, logJSON)
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a token mint and premint the initial supply",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCreate(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to a .env file with operator settings")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit JSON logs instead of console output")

	createCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "collect token parameters interactively instead of from the environment")
	createCmd.Flags().StringVar(&outPath, "out", export.DefaultPath, "path for the exported token details")

	rootCmd.AddCommand(createCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Constructor seams, swapped out in tests.
var (
	loadConfig = config.Load
	newLedger  = func(cfg *config.Config) issue.Ledger {
		return solana.NewClient(cfg.RPCEndpoint, cfg.Payer)
	}
	pinImage = func(ctx context.Context, creds config.PinataCredentials, path string) (string, error) {
		return pin.NewClient(creds).PinFile(ctx, path)
	}
)

func runCreate(cmd *cobra.Command) error {
	return create(cmd.Context())
}

func create(ctx context.Context) error {
	log := logging.WithComponent("cli")

	log.Info().Str("version", Version).Msg("starting token creation and minting")

	cfg, err := loadConfig(config.Options{EnvFile: envFile, Interactive: interactive})
	if err != nil {
		return err
	}
	log.Info().Str("endpoint", cfg.RPCEndpoint).Msg("connecting to RPC endpoint")

	var params config.TokenParams
	if interactive {
		collected, err := prompt.New().Collect()
		if err != nil {
			return err
		}
		params = collected
	} else {
		params = *cfg.Token
	}

	// The image is published before any on-chain step so a pinning
	// failure never leaves a half-issued token behind.
	imageURL := ""
	if params.ImagePath != "" {
		if cfg.Pinata == nil {
			return ErrPinningNotConfigured
		}
		imageURL, err = pinImage(ctx, *cfg.Pinata, params.ImagePath)
		if err != nil {
			return err
		}
	}

	ledger := newLedger(cfg)
	record, err := issue.NewOrchestrator(ledger).Issue(ctx, params, imageURL)
	if err != nil {
		return err
	}

	log.Info().
		Str("name", record.TokenName).
		Str("symbol", record.TokenSymbol).
		Uint64("total_supply", record.TotalSupply).
		Uint8("decimals", record.Decimals).
		Str("mint", record.MintAddress).
		Str("ata", record.ATAAddress).
		Uint64("premint", record.PreMintAmount).
		Msg("token issued")

	if err := export.Write(record, outPath); err != nil {
		return err
	}

	log.Info().Msg("token creation and minting completed")
	return nil
}
