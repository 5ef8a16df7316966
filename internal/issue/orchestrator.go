// Package issue drives the token issuance workflow: funding check,
// mint creation, holding account provisioning, premint and record
// assembly. Every step is a hard precondition for the next; nothing is
// retried and nothing is rolled back.
package issue

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/solforge/mintforge/internal/config"
	"github.com/solforge/mintforge/internal/logging"
)

// MinBalanceLamports is the pre-flight funding floor (0.1 SOL). It
// exists to fail fast before spending on a doomed transaction sequence,
// not as a network-enforced invariant.
const MinBalanceLamports uint64 = 100_000_000

const lamportsPerSOL = 1_000_000_000

var (
	ErrInsufficientFunds = errors.New("issue: insufficient funds, wallet needs at least 0.1 SOL")
	ErrAmountOverflow    = errors.New("issue: raw mint amount exceeds the u64 token amount range")
)

// Ledger is the slice of the chain the orchestrator needs. The Solana
// adapter in internal/solana implements it; tests use a recording stub.
type Ledger interface {
	// OperatorAddress returns the payer wallet address (base58).
	OperatorAddress() string
	// Balance returns the operator's lamport balance at confirmed
	// commitment.
	Balance(ctx context.Context) (uint64, error)
	// CreateMint creates and initializes a mint with the operator as
	// mint and freeze authority, awaiting confirmation. Returns the
	// mint address.
	CreateMint(ctx context.Context, decimals uint8) (string, error)
	// EnsureAssociatedAccount returns the operator's associated token
	// account for mint, creating it when missing.
	EnsureAssociatedAccount(ctx context.Context, mint string) (string, error)
	// MintTo mints amount raw units into dest, authorized by the
	// operator. Returns the transaction signature.
	MintTo(ctx context.Context, mint, dest string, amount uint64) (string, error)
	// MintDecimals re-reads the on-chain decimals for mint.
	MintDecimals(ctx context.Context, mint string) (uint8, error)
}

// Record is the outcome of a successful issuance. Written once to disk
// by the exporter, never mutated.
type Record struct {
	TokenName     string `json:"tokenName"`
	TokenSymbol   string `json:"tokenSymbol"`
	TotalSupply   uint64 `json:"totalSupply"`
	Decimals      uint8  `json:"decimals"`
	MintAddress   string `json:"mintAddress"`
	ATAAddress    string `json:"ataAddress"`
	PreMintAmount uint64 `json:"preMintAmount"`
	TokenImageURL string `json:"tokenImageURL"`
}

// Orchestrator runs one issuance against a ledger.
type Orchestrator struct {
	ledger Ledger
}

func NewOrchestrator(ledger Ledger) *Orchestrator {
	return &Orchestrator{ledger: ledger}
}

// Issue runs the full workflow for params. imageURL may be empty when
// no token image was supplied.
func (o *Orchestrator) Issue(ctx context.Context, params config.TokenParams, imageURL string) (*Record, error) {
	log := logging.WithComponent("issue")

	if err := params.Validate(); err != nil {
		return nil, err
	}

	// The raw amount is computed before any network call so an
	// overflowing supply/decimals combination never costs a fee.
	rawAmount, err := RawMintAmount(params.Premint, params.Decimals)
	if err != nil {
		return nil, err
	}

	balance, err := o.ledger.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("issue: query balance: %w", err)
	}
	log.Info().
		Str("wallet", o.ledger.OperatorAddress()).
		Str("balance_sol", fmt.Sprintf("%.2f", float64(balance)/float64(lamportsPerSOL))).
		Msg("wallet funded")
	if balance < MinBalanceLamports {
		return nil, fmt.Errorf("%w: balance=%d lamports", ErrInsufficientFunds, balance)
	}

	mint, err := o.ledger.CreateMint(ctx, params.Decimals)
	if err != nil {
		return nil, fmt.Errorf("issue: create mint: %w", err)
	}
	log.Info().Str("mint", mint).Msg("mint created")

	ata, err := o.ledger.EnsureAssociatedAccount(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("issue: provision associated account: %w", err)
	}
	log.Info().Str("ata", ata).Msg("associated token account ready")

	sig, err := o.ledger.MintTo(ctx, mint, ata, rawAmount)
	if err != nil {
		return nil, fmt.Errorf("issue: mint %d raw units: %w", rawAmount, err)
	}
	log.Info().Str("signature", sig).Uint64("raw_amount", rawAmount).Msg("premint submitted")

	// The network is the source of truth for decimals; re-read in case
	// it coerced the requested value.
	decimals, err := o.ledger.MintDecimals(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("issue: read mint info: %w", err)
	}

	return &Record{
		TokenName:     params.Name,
		TokenSymbol:   params.Symbol,
		TotalSupply:   params.TotalSupply,
		Decimals:      decimals,
		MintAddress:   mint,
		ATAAddress:    ata,
		PreMintAmount: params.Premint,
		TokenImageURL: imageURL,
	}, nil
}

// RawMintAmount scales premint by 10^decimals. The product is computed
// with big.Int because realistic supply/decimals combinations exceed
// 64-bit intermediate math; SPL token amounts themselves are u64, so a
// product outside that range is an input error.
func RawMintAmount(premint uint64, decimals uint8) (uint64, error) {
	raw := new(big.Int).Mul(
		new(big.Int).SetUint64(premint),
		new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil),
	)
	if !raw.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, raw.String())
	}
	return raw.Uint64(), nil
}
