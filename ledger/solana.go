// Package ledger
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/strategy"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/types"
)

const (
	ixAggregateProposal = "aggregate_proposal_votes"
	ixAggregateDispute  = "aggregate_dispute_votes"

	confirmPollInterval = time.Second
	confirmPollLimit    = 120
)

var errNotConfirmed = errors.New("transaction not confirmed yet")

// SolanaClient submits aggregation instructions to the market program, signed
// by the backend authority held in the program's global config.
type SolanaClient struct {
	rpc       *rpc.Client
	programID solana.PublicKey
	authority solana.PrivateKey

	logger *zap.Logger
}

func newSolanaClient(cfg Config) (*SolanaClient, error) {
	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id: %w", err)
	}
	authority, err := solana.PrivateKeyFromBase58(cfg.AuthorityKey)
	if err != nil {
		return nil, fmt.Errorf("invalid backend authority key: %w", err)
	}
	return &SolanaClient{
		rpc:       rpc.New(cfg.RPCURL),
		programID: programID,
		authority: authority,
		logger:    cfg.Logger.With(zap.String("ledger", "solana")),
	}, nil
}

func (c *SolanaClient) Settle(ctx context.Context, kind types.VoteKind, subjectID string, positive, negative uint32) (string, error) {
	market, err := c.marketAccount(kind, subjectID)
	if err != nil {
		return "", err
	}
	globalConfig, _, err := solana.FindProgramAddress([][]byte{[]byte("global-config")}, c.programID)
	if err != nil {
		return "", err
	}

	name := ixAggregateProposal
	if kind == types.KindDispute {
		name = ixAggregateDispute
	}

	ix := solana.NewInstruction(
		c.programID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(market, true, false),
			solana.NewAccountMeta(globalConfig, false, false),
			solana.NewAccountMeta(c.authority.PublicKey(), false, true),
		},
		anchorInstructionData(name, positive, negative),
	)

	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("cannot fetch blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		recent.Value.Blockhash,
		solana.TransactionPayer(c.authority.PublicKey()),
	)
	if err != nil {
		return "", err
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.authority.PublicKey()) {
			return &c.authority
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("cannot sign settlement: %w", err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("settlement rejected: %w", err)
	}

	if err := c.awaitConfirmation(ctx, sig); err != nil {
		return "", err
	}
	c.logger.Info("settlement confirmed",
		zap.String("kind", string(kind)),
		zap.String("subject", subjectID),
		zap.String("tx", sig.String()))
	return sig.String(), nil
}

// awaitConfirmation polls the signature status until the cluster reports at
// least confirmed commitment. The caller's context bounds the wait; a sent but
// unconfirmed transaction is a failure, never an assumed success.
func (c *SolanaClient) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	err := retry.Retry(func(attempt uint) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return err
		}
		if len(out.Value) == 0 || out.Value[0] == nil {
			return errNotConfirmed
		}
		status := out.Value[0]
		if status.Err != nil {
			return fmt.Errorf("transaction failed on chain: %v", status.Err)
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return nil
		}
		return errNotConfirmed
	},
		strategy.Limit(confirmPollLimit),
		untilDone(ctx),
		strategy.Wait(confirmPollInterval),
	)
	if err != nil {
		return fmt.Errorf("settlement not confirmed: %w", err)
	}
	return nil
}

func untilDone(ctx context.Context) strategy.Strategy {
	return func(attempt uint) bool {
		return ctx.Err() == nil
	}
}

// marketAccount resolves the market account voted on: proposals carry the
// 32-byte market id and the account is the program's market PDA, disputes
// carry the market account address directly.
func (c *SolanaClient) marketAccount(kind types.VoteKind, subjectID string) (solana.PublicKey, error) {
	switch kind {
	case types.KindProposal:
		marketID, err := hex.DecodeString(subjectID)
		if err != nil || len(marketID) != 32 {
			return solana.PublicKey{}, types.ErrInvalidSubject
		}
		market, _, err := solana.FindProgramAddress([][]byte{[]byte("market"), marketID}, c.programID)
		if err != nil {
			return solana.PublicKey{}, err
		}
		return market, nil
	case types.KindDispute:
		market, err := solana.PublicKeyFromBase58(subjectID)
		if err != nil {
			return solana.PublicKey{}, types.ErrInvalidSubject
		}
		return market, nil
	}
	return solana.PublicKey{}, types.ErrInvalidSubject
}

// anchorInstructionData encodes the Anchor wire form: an 8-byte method
// discriminator sha256("global:<name>") followed by the borsh-encoded
// little-endian u32 final counts.
func anchorInstructionData(name string, positive, negative uint32) []byte {
	disc := sha256.Sum256([]byte("global:" + name))
	data := make([]byte, 16)
	copy(data, disc[:8])
	binary.LittleEndian.PutUint32(data[8:12], positive)
	binary.LittleEndian.PutUint32(data[12:16], negative)
	return data
}
