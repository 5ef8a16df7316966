// Package config resolves operator credentials, network settings and
// token parameters from the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/joho/godotenv"

	"github.com/solforge/mintforge/internal/logging"
)

// Environment variable names. Kept stable so an existing .env keeps
// working.
const (
	EnvKeypairPath  = "SECRET_KEYPAIR_PATH"
	EnvRPCEndpoint  = "RPC_ENDPOINT"
	EnvPinataKey    = "PINATA_API_KEY"
	EnvPinataSecret = "PINATA_SECRET_API_KEY"
	EnvTokenName    = "TOKEN_NAME"
	EnvTokenSymbol  = "TOKEN_SYMBOL"
	EnvTotalSupply  = "TOTAL_SUPPLY"
	EnvPremint      = "PREMINT_AMOUNT"
	EnvDecimals     = "DECIMALS"
	EnvImagePath    = "TOKEN_IMAGE_PATH"
)

var (
	ErrMissingRequired      = errors.New("config: required variable missing")
	ErrInvalidNumber        = errors.New("config: invalid numeric value")
	ErrPremintExceedsSupply = errors.New("config: premint amount exceeds total supply")
	ErrKeyLoad              = errors.New("config: keypair load failed")
)

// PinataCredentials is the API key pair for the pinning service.
type PinataCredentials struct {
	APIKey    string
	APISecret string
}

// TokenParams holds the validated inputs for one issuance run.
type TokenParams struct {
	Name        string
	Symbol      string
	TotalSupply uint64
	Premint     uint64
	Decimals    uint8
	ImagePath   string // optional; empty means no token image
}

// Validate checks the cross-field invariants. Field-level checks are
// repeated here so params built outside the resolver stay honest.
func (p TokenParams) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: token name is blank", ErrMissingRequired)
	}
	if strings.TrimSpace(p.Symbol) == "" {
		return fmt.Errorf("%w: token symbol is blank", ErrMissingRequired)
	}
	if p.TotalSupply == 0 {
		return fmt.Errorf("%w: total supply must be positive", ErrInvalidNumber)
	}
	if p.Premint == 0 {
		return fmt.Errorf("%w: premint amount must be positive", ErrInvalidNumber)
	}
	if p.Premint > p.TotalSupply {
		return fmt.Errorf("%w: premint=%d supply=%d", ErrPremintExceedsSupply, p.Premint, p.TotalSupply)
	}
	return nil
}

// Config is the resolved process configuration. Immutable after Load.
type Config struct {
	KeypairPath string
	RPCEndpoint string
	Payer       types.Account
	Pinata      *PinataCredentials // nil when pinning is not configured
	Token       *TokenParams       // nil in interactive mode
}

// Options selects the resolution mode.
type Options struct {
	// EnvFile is an optional .env file loaded before reading variables.
	// A missing file is not an error.
	EnvFile string
	// Interactive skips the static token parameter variables; the
	// parameter collector supplies them instead.
	Interactive bool
}

var (
	loadOnce sync.Once
	loaded   *Config
	loadErr  error
)

// Load resolves the configuration exactly once per process. Repeated
// calls return the cached result.
func Load(opts Options) (*Config, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Resolve(opts)
	})
	return loaded, loadErr
}

// Resolve reads and validates the environment without caching. Load is
// the entrypoint; Resolve exists so the resolver is testable without
// process-wide state.
func Resolve(opts Options) (*Config, error) {
	log := logging.WithComponent("config")

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Error().Err(err).Str("file", opts.EnvFile).Msg("failed to load env file")
			return nil, fmt.Errorf("config: load env file %s: %w", opts.EnvFile, err)
		}
	}

	keypairPath, err := requireEnv(EnvKeypairPath)
	if err != nil {
		log.Error().Str("var", EnvKeypairPath).Msg("required variable missing")
		return nil, err
	}
	endpoint, err := requireEnv(EnvRPCEndpoint)
	if err != nil {
		log.Error().Str("var", EnvRPCEndpoint).Msg("required variable missing")
		return nil, err
	}

	cfg := &Config{
		KeypairPath: keypairPath,
		RPCEndpoint: endpoint,
		Pinata:      resolvePinata(),
	}

	// Token parameters are parsed before the keypair is touched so a
	// malformed number never triggers key material I/O.
	if !opts.Interactive {
		params, err := resolveTokenParams()
		if err != nil {
			log.Error().Err(err).Msg("invalid token parameters")
			return nil, err
		}
		cfg.Token = params
	}

	payer, err := LoadKeypair(keypairPath)
	if err != nil {
		log.Error().Err(err).Str("path", keypairPath).Msg("keypair load failed")
		return nil, err
	}
	cfg.Payer = payer

	log.Info().Str("wallet", payer.PublicKey.ToBase58()).Msg("configuration resolved")
	return cfg, nil
}

func requireEnv(name string) (string, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingRequired, name)
	}
	return v, nil
}

// resolvePinata returns credentials only when both halves are present.
// A half-configured pair is treated as absent so the publisher fails
// loudly at upload time rather than with a confusing 401.
func resolvePinata() *PinataCredentials {
	key := strings.TrimSpace(os.Getenv(EnvPinataKey))
	secret := strings.TrimSpace(os.Getenv(EnvPinataSecret))
	if key == "" && secret == "" {
		return nil
	}
	if key == "" || secret == "" {
		log := logging.WithComponent("config")
		log.Warn().Msg("only one of the pinata credentials is set; ignoring both")
		return nil
	}
	return &PinataCredentials{APIKey: key, APISecret: secret}
}

func resolveTokenParams() (*TokenParams, error) {
	name, err := requireEnv(EnvTokenName)
	if err != nil {
		return nil, err
	}
	symbol, err := requireEnv(EnvTokenSymbol)
	if err != nil {
		return nil, err
	}

	supply, err := parsePositiveUint(EnvTotalSupply)
	if err != nil {
		return nil, err
	}
	premint, err := parsePositiveUint(EnvPremint)
	if err != nil {
		return nil, err
	}
	decimalsRaw, err := requireEnv(EnvDecimals)
	if err != nil {
		return nil, err
	}
	decimals, err := strconv.ParseUint(decimalsRaw, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidNumber, EnvDecimals, decimalsRaw)
	}

	if premint > supply {
		return nil, fmt.Errorf("%w: premint=%d supply=%d", ErrPremintExceedsSupply, premint, supply)
	}

	imagePath := strings.TrimSpace(os.Getenv(EnvImagePath))
	if imagePath != "" {
		if _, err := os.Stat(imagePath); err != nil {
			return nil, fmt.Errorf("config: token image path: %w", err)
		}
	}

	return &TokenParams{
		Name:        name,
		Symbol:      symbol,
		TotalSupply: supply,
		Premint:     premint,
		Decimals:    uint8(decimals),
		ImagePath:   imagePath,
	}, nil
}

func parsePositiveUint(name string) (uint64, error) {
	raw, err := requireEnv(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidNumber, name, raw)
	}
	if v == 0 {
		return 0, fmt.Errorf("%w: %s must be positive", ErrInvalidNumber, name)
	}
	return v, nil
}
