// Package solana adapts the blocto SDK to the issuance ledger port.
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"

	"github.com/solforge/mintforge/internal/logging"
)

var (
	ErrNotConfigured     = errors.New("solana: client not configured")
	ErrTransactionFailed = errors.New("solana: transaction failed on chain")
	ErrConfirmTimeout    = errors.New("solana: transaction not confirmed in time")
)

// Client signs and submits issuance transactions with a single payer
// wallet. Every read and write uses confirmed commitment; a submitted
// transaction is polled until the network reports it confirmed before
// the next step may run.
type Client struct {
	rpc   *client.Client
	payer types.Account

	confirmTimeout time.Duration
	pollInterval   time.Duration
}

func NewClient(endpoint string, payer types.Account) *Client {
	return &Client{
		rpc:            client.NewClient(endpoint),
		payer:          payer,
		confirmTimeout: 60 * time.Second,
		pollInterval:   2 * time.Second,
	}
}

// OperatorAddress returns the payer wallet address.
func (c *Client) OperatorAddress() string {
	return c.payer.PublicKey.ToBase58()
}

// Balance returns the payer's lamport balance at confirmed commitment.
func (c *Client) Balance(ctx context.Context) (uint64, error) {
	if c == nil || c.rpc == nil {
		return 0, ErrNotConfigured
	}
	balance, err := c.rpc.GetBalanceWithConfig(ctx, c.OperatorAddress(), client.GetBalanceConfig{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return 0, fmt.Errorf("solana: GetBalance: %w", err)
	}
	return balance, nil
}

// CreateMint allocates and initializes a new mint account with the
// payer as mint and freeze authority.
func (c *Client) CreateMint(ctx context.Context, decimals uint8) (string, error) {
	if c == nil || c.rpc == nil {
		return "", ErrNotConfigured
	}

	mint := types.NewAccount()

	rent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return "", fmt.Errorf("solana: GetMinimumBalanceForRentExemption: %w", err)
	}

	instructions := []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     c.payer.PublicKey,
			New:      mint.PublicKey,
			Owner:    common.TokenProgramID,
			Lamports: rent,
			Space:    token.MintAccountSize,
		}),
		token.InitializeMint(token.InitializeMintParam{
			Decimals:   decimals,
			Mint:       mint.PublicKey,
			MintAuth:   c.payer.PublicKey,
			FreezeAuth: &c.payer.PublicKey,
		}),
	}

	if _, err := c.sendAndConfirm(ctx, instructions, []types.Account{c.payer, mint}); err != nil {
		return "", fmt.Errorf("solana: create mint: %w", err)
	}
	return mint.PublicKey.ToBase58(), nil
}

// EnsureAssociatedAccount returns the payer's ATA for mint, creating it
// when it does not exist yet. Safe to call against a pre-existing ATA.
func (c *Client) EnsureAssociatedAccount(ctx context.Context, mintAddr string) (string, error) {
	if c == nil || c.rpc == nil {
		return "", ErrNotConfigured
	}

	mint := common.PublicKeyFromString(mintAddr)
	ata, _, err := common.FindAssociatedTokenAddress(c.payer.PublicKey, mint)
	if err != nil {
		return "", fmt.Errorf("solana: derive ATA: %w", err)
	}

	exists, err := c.accountExists(ctx, ata.ToBase58())
	if err != nil {
		return "", fmt.Errorf("solana: check ATA: %w", err)
	}
	if exists {
		log := logging.WithComponent("solana")
		log.Info().Str("ata", ata.ToBase58()).Msg("associated token account already exists")
		return ata.ToBase58(), nil
	}

	instructions := []types.Instruction{
		associated_token_account.CreateAssociatedTokenAccount(
			associated_token_account.CreateAssociatedTokenAccountParam{
				Funder:                 c.payer.PublicKey,
				Owner:                  c.payer.PublicKey,
				Mint:                   mint,
				AssociatedTokenAccount: ata,
			},
		),
	}

	if _, err := c.sendAndConfirm(ctx, instructions, []types.Account{c.payer}); err != nil {
		return "", fmt.Errorf("solana: create ATA: %w", err)
	}
	return ata.ToBase58(), nil
}

// MintTo mints amount raw units into dest, authorized by the payer.
func (c *Client) MintTo(ctx context.Context, mintAddr, dest string, amount uint64) (string, error) {
	if c == nil || c.rpc == nil {
		return "", ErrNotConfigured
	}

	instructions := []types.Instruction{
		token.MintTo(token.MintToParam{
			Mint:   common.PublicKeyFromString(mintAddr),
			To:     common.PublicKeyFromString(dest),
			Auth:   c.payer.PublicKey,
			Amount: amount,
		}),
	}

	sig, err := c.sendAndConfirm(ctx, instructions, []types.Account{c.payer})
	if err != nil {
		return "", fmt.Errorf("solana: mint to: %w", err)
	}
	return sig, nil
}

// MintDecimals reads the on-chain mint account and returns its
// decimals value.
func (c *Client) MintDecimals(ctx context.Context, mintAddr string) (uint8, error) {
	if c == nil || c.rpc == nil {
		return 0, ErrNotConfigured
	}

	info, err := c.rpc.GetAccountInfo(ctx, mintAddr)
	if err != nil {
		return 0, fmt.Errorf("solana: GetAccountInfo(%s): %w", mintAddr, err)
	}
	mintAccount, err := token.MintAccountFromData(info.Data)
	if err != nil {
		return 0, fmt.Errorf("solana: parse mint account: %w", err)
	}
	return mintAccount.Decimals, nil
}

// sendAndConfirm assembles one transaction from instructions, submits
// it and blocks until the network reports confirmed commitment.
func (c *Client) sendAndConfirm(ctx context.Context, instructions []types.Instruction, signers []types.Account) (string, error) {
	latest, err := c.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("GetLatestBlockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: signers,
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        c.payer.PublicKey,
			RecentBlockhash: latest.Blockhash,
			Instructions:    instructions,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("NewTransaction: %w", err)
	}

	sig, err := c.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("SendTransaction: %w", err)
	}

	if err := c.awaitConfirmation(ctx, sig); err != nil {
		return "", err
	}
	return sig, nil
}

func (c *Client) awaitConfirmation(ctx context.Context, sig string) error {
	log := logging.WithComponent("solana")

	deadline := time.Now().Add(c.confirmTimeout)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.rpc.GetSignatureStatus(ctx, sig)
		if err != nil {
			return fmt.Errorf("GetSignatureStatus: %w", err)
		}
		if status != nil {
			if status.Err != nil {
				return fmt.Errorf("%w: signature=%s err=%v", ErrTransactionFailed, sig, status.Err)
			}
			if statusConfirmed(status) {
				log.Debug().Str("signature", sig).Msg("transaction confirmed")
				return nil
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: signature=%s", ErrConfirmTimeout, sig)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// statusConfirmed reports whether a signature status has reached at
// least confirmed commitment.
func statusConfirmed(status *rpc.SignatureStatus) bool {
	if status == nil || status.ConfirmationStatus == nil {
		return false
	}
	switch *status.ConfirmationStatus {
	case rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return true
	default:
		return false
	}
}

// accountExists probes an address via GetAccountInfo. The RPC surfaces
// a missing account as an error whose message varies across node
// versions, so match loosely.
func (c *Client) accountExists(ctx context.Context, address string) (bool, error) {
	info, err := c.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		if isMissingAccountErr(err) {
			return false, nil
		}
		return false, err
	}
	// Some node versions answer with an empty value instead of erroring.
	if info.Lamports == 0 && len(info.Data) == 0 {
		return false, nil
	}
	return true, nil
}

func isMissingAccountErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "could not find account") ||
		strings.Contains(msg, "account does not exist")
}
