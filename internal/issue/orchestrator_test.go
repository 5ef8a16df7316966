package issue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solforge/mintforge/internal/config"
)

// stubLedger records every call so tests can assert which on-chain
// steps ran.
type stubLedger struct {
	balance      uint64
	balanceErr   error
	createErr    error
	mintToErr    error
	decimals     uint8
	decimalsErr  error
	calls        []string
	mintedAmount uint64
}

func (s *stubLedger) OperatorAddress() string { return "OperatorPubkey111" }

func (s *stubLedger) Balance(context.Context) (uint64, error) {
	s.calls = append(s.calls, "Balance")
	return s.balance, s.balanceErr
}

func (s *stubLedger) CreateMint(_ context.Context, decimals uint8) (string, error) {
	s.calls = append(s.calls, "CreateMint")
	if s.createErr != nil {
		return "", s.createErr
	}
	return "MintAddr111", nil
}

func (s *stubLedger) EnsureAssociatedAccount(_ context.Context, mint string) (string, error) {
	s.calls = append(s.calls, "EnsureAssociatedAccount")
	return "AtaAddr111", nil
}

func (s *stubLedger) MintTo(_ context.Context, mint, dest string, amount uint64) (string, error) {
	s.calls = append(s.calls, "MintTo")
	if s.mintToErr != nil {
		return "", s.mintToErr
	}
	s.mintedAmount = amount
	return "Sig111", nil
}

func (s *stubLedger) MintDecimals(context.Context, string) (uint8, error) {
	s.calls = append(s.calls, "MintDecimals")
	return s.decimals, s.decimalsErr
}

func validParams() config.TokenParams {
	return config.TokenParams{
		Name:        "Test",
		Symbol:      "TST",
		TotalSupply: 1000000,
		Premint:     500000,
		Decimals:    6,
	}
}

func TestIssueHappyPath(t *testing.T) {
	ledger := &stubLedger{balance: 2_000_000_000, decimals: 6}
	o := NewOrchestrator(ledger)

	rec, err := o.Issue(context.Background(), validParams(), "")
	require.NoError(t, err)

	require.Equal(t, &Record{
		TokenName:     "Test",
		TokenSymbol:   "TST",
		TotalSupply:   1000000,
		Decimals:      6,
		MintAddress:   "MintAddr111",
		ATAAddress:    "AtaAddr111",
		PreMintAmount: 500000,
		TokenImageURL: "",
	}, rec)

	// 500000 * 10^6
	require.EqualValues(t, 500000000000, ledger.mintedAmount)
	require.Equal(t,
		[]string{"Balance", "CreateMint", "EnsureAssociatedAccount", "MintTo", "MintDecimals"},
		ledger.calls)
}

func TestIssueCarriesImageURL(t *testing.T) {
	ledger := &stubLedger{balance: 2_000_000_000, decimals: 6}
	o := NewOrchestrator(ledger)

	rec, err := o.Issue(context.Background(), validParams(), "https://gateway.pinata.cloud/ipfs/QmX")
	require.NoError(t, err)
	require.Equal(t, "https://gateway.pinata.cloud/ipfs/QmX", rec.TokenImageURL)
}

func TestIssueInsufficientFunds(t *testing.T) {
	ledger := &stubLedger{balance: MinBalanceLamports - 1}
	o := NewOrchestrator(ledger)

	_, err := o.Issue(context.Background(), validParams(), "")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// No creation call may have been recorded.
	require.Equal(t, []string{"Balance"}, ledger.calls)
}

func TestIssuePremintExceedsSupplyBeforeNetwork(t *testing.T) {
	ledger := &stubLedger{balance: 2_000_000_000}
	o := NewOrchestrator(ledger)

	params := validParams()
	params.TotalSupply = 1000000
	params.Premint = 1200000

	_, err := o.Issue(context.Background(), params, "")
	require.ErrorIs(t, err, config.ErrPremintExceedsSupply)
	require.Empty(t, ledger.calls)
}

func TestIssueOverflowBeforeNetwork(t *testing.T) {
	ledger := &stubLedger{balance: 2_000_000_000}
	o := NewOrchestrator(ledger)

	params := validParams()
	params.TotalSupply = 10_000_000_000_000_000_000
	params.Premint = 10_000_000_000_000_000_000
	params.Decimals = 9

	_, err := o.Issue(context.Background(), params, "")
	require.ErrorIs(t, err, ErrAmountOverflow)
	require.Empty(t, ledger.calls)
}

func TestIssueConfirmedDecimalsWin(t *testing.T) {
	// The network-confirmed decimals value ends up in the record even
	// when it differs from the requested one.
	ledger := &stubLedger{balance: 2_000_000_000, decimals: 9}
	o := NewOrchestrator(ledger)

	rec, err := o.Issue(context.Background(), validParams(), "")
	require.NoError(t, err)
	require.EqualValues(t, 9, rec.Decimals)
}

func TestIssueStepFailuresPropagate(t *testing.T) {
	boom := errors.New("rpc down")

	t.Run("balance", func(t *testing.T) {
		ledger := &stubLedger{balanceErr: boom}
		_, err := NewOrchestrator(ledger).Issue(context.Background(), validParams(), "")
		require.ErrorIs(t, err, boom)
	})

	t.Run("create mint", func(t *testing.T) {
		ledger := &stubLedger{balance: 2_000_000_000, createErr: boom}
		_, err := NewOrchestrator(ledger).Issue(context.Background(), validParams(), "")
		require.ErrorIs(t, err, boom)
		require.NotContains(t, ledger.calls, "MintTo")
	})

	t.Run("mint to", func(t *testing.T) {
		ledger := &stubLedger{balance: 2_000_000_000, mintToErr: boom}
		_, err := NewOrchestrator(ledger).Issue(context.Background(), validParams(), "")
		require.ErrorIs(t, err, boom)
		require.NotContains(t, ledger.calls, "MintDecimals")
	})

	t.Run("mint info", func(t *testing.T) {
		ledger := &stubLedger{balance: 2_000_000_000, decimalsErr: boom}
		_, err := NewOrchestrator(ledger).Issue(context.Background(), validParams(), "")
		require.ErrorIs(t, err, boom)
	})
}

func TestRawMintAmount(t *testing.T) {
	tests := []struct {
		premint  uint64
		decimals uint8
		want     uint64
		overflow bool
	}{
		{500000, 6, 500000000000, false},
		{1, 0, 1, false},
		{1000000, 9, 1_000_000_000_000_000, false},
		{18_446_744_073, 9, 18_446_744_073_000_000_000, false},
		{18_446_744_074, 9, 0, true},
		{2, 19, 0, true},
	}

	for _, tt := range tests {
		got, err := RawMintAmount(tt.premint, tt.decimals)
		if tt.overflow {
			require.ErrorIs(t, err, ErrAmountOverflow)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}
