package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/solforge/mintforge/internal/config"
	"github.com/solforge/mintforge/internal/issue"
	"github.com/solforge/mintforge/internal/pin"
)

// recordingLedger notes every on-chain call the create flow makes.
type recordingLedger struct {
	calls []string
}

func (l *recordingLedger) OperatorAddress() string { return "OperatorPubkey111" }

func (l *recordingLedger) Balance(context.Context) (uint64, error) {
	l.calls = append(l.calls, "Balance")
	return 2_000_000_000, nil
}

func (l *recordingLedger) CreateMint(context.Context, uint8) (string, error) {
	l.calls = append(l.calls, "CreateMint")
	return "MintAddr111", nil
}

func (l *recordingLedger) EnsureAssociatedAccount(context.Context, string) (string, error) {
	l.calls = append(l.calls, "EnsureAssociatedAccount")
	return "AtaAddr111", nil
}

func (l *recordingLedger) MintTo(context.Context, string, string, uint64) (string, error) {
	l.calls = append(l.calls, "MintTo")
	return "Sig111", nil
}

func (l *recordingLedger) MintDecimals(context.Context, string) (uint8, error) {
	l.calls = append(l.calls, "MintDecimals")
	return 6, nil
}

// setupCreate swaps the constructor seams and flag state for one test
// run and restores them afterwards.
func setupCreate(t *testing.T, cfg *config.Config, pinErr error) (*recordingLedger, string) {
	t.Helper()

	ledger := &recordingLedger{}
	out := filepath.Join(t.TempDir(), "token-details.json")

	prevLoad, prevLedger, prevPin := loadConfig, newLedger, pinImage
	prevInteractive, prevOut := interactive, outPath
	t.Cleanup(func() {
		loadConfig, newLedger, pinImage = prevLoad, prevLedger, prevPin
		interactive, outPath = prevInteractive, prevOut
	})

	loadConfig = func(config.Options) (*config.Config, error) { return cfg, nil }
	newLedger = func(*config.Config) issue.Ledger { return ledger }
	pinImage = func(context.Context, config.PinataCredentials, string) (string, error) {
		if pinErr != nil {
			return "", pinErr
		}
		return "https://gateway.pinata.cloud/ipfs/QmX", nil
	}
	interactive = false
	outPath = out

	return ledger, out
}

func baseConfig(imagePath string) *config.Config {
	return &config.Config{
		RPCEndpoint: "https://api.devnet.solana.com",
		Payer:       types.Account{},
		Pinata:      &config.PinataCredentials{APIKey: "k", APISecret: "s"},
		Token: &config.TokenParams{
			Name:        "Test",
			Symbol:      "TST",
			TotalSupply: 1000000,
			Premint:     500000,
			Decimals:    6,
			ImagePath:   imagePath,
		},
	}
}

func TestCreateWritesRecord(t *testing.T) {
	ledger, out := setupCreate(t, baseConfig(""), nil)

	require.NoError(t, create(context.Background()))

	require.Equal(t,
		[]string{"Balance", "CreateMint", "EnsureAssociatedAccount", "MintTo", "MintDecimals"},
		ledger.calls)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(data), `"mintAddress": "MintAddr111"`)
}

func TestCreatePinFailureSkipsLedger(t *testing.T) {
	ledger, out := setupCreate(t, baseConfig("logo.png"), pin.ErrUpload)

	err := create(context.Background())
	require.ErrorIs(t, err, pin.ErrUpload)

	// The upload failed before any on-chain step: no ledger call was
	// made and no output file was produced.
	require.Empty(t, ledger.calls)
	require.NoFileExists(t, out)
}

func TestCreateImageWithoutCredentials(t *testing.T) {
	cfg := baseConfig("logo.png")
	cfg.Pinata = nil
	ledger, out := setupCreate(t, cfg, nil)

	err := create(context.Background())
	require.ErrorIs(t, err, ErrPinningNotConfigured)
	require.Empty(t, ledger.calls)
	require.NoFileExists(t, out)
}

func TestCreatePinnedURLInRecord(t *testing.T) {
	_, out := setupCreate(t, baseConfig("logo.png"), nil)

	require.NoError(t, create(context.Background()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(data), `"tokenImageURL": "https://gateway.pinata.cloud/ipfs/QmX"`)
}
