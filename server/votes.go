// Package server
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/signature"
	"github.com/zmart-protocol/vote-backend/tally"
	"github.com/zmart-protocol/vote-backend/types"
	"github.com/zmart-protocol/vote-backend/utils"
)

// SubmitVote runs the full validation chain for one vote: subject format,
// choice vocabulary, signature, then the atomic conditional write. The write
// is the only mutating step, so a failure anywhere leaves no partial state.
func (s *Server) SubmitVote(ctx context.Context, kind types.VoteKind, subjectID string, submission *types.VoteSubmission) (*types.VoteReceipt, error) {
	if !utils.IsValidSubject(kind, subjectID) {
		return nil, types.ErrInvalidSubject
	}
	if !kind.ValidChoice(submission.Choice) {
		return nil, types.ErrInvalidChoice
	}

	publicKey, err := signature.DecodePublicKey(submission.PublicKey)
	if err != nil {
		return nil, types.ErrInvalidSignature
	}
	sig, err := signature.DecodeSignature(submission.Signature)
	if err != nil {
		return nil, types.ErrInvalidSignature
	}
	if !s.verifier.Verify([]byte(submission.Message), sig, publicKey) {
		return nil, types.ErrInvalidSignature
	}

	written, err := s.cacheClient.TryWriteVote(ctx, kind, subjectID, submission.PublicKey, submission.Choice)
	if err != nil {
		s.logger.Error("cannot write vote",
			zap.String("kind", string(kind)),
			zap.String("subject", subjectID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s", types.ErrStoreUnavailable, err)
	}
	if !written {
		return nil, types.ErrAlreadyVoted
	}

	receipt := &types.VoteReceipt{
		VoteID:    fmt.Sprintf("%s_%s", kind.ReceiptPrefix(), uuid.NewString()),
		SubjectID: subjectID,
		Choice:    submission.Choice,
		Timestamp: time.Now().Unix(),
	}
	s.logger.Info("vote recorded",
		zap.String("voteId", receipt.VoteID),
		zap.String("kind", string(kind)),
		zap.String("subject", subjectID),
		zap.String("choice", submission.Choice))
	return receipt, nil
}

// VoteTally computes the current unsettled tally for a subject. A subject
// nobody voted on returns a zero tally, not an error.
func (s *Server) VoteTally(ctx context.Context, kind types.VoteKind, subjectID string) (*types.Tally, error) {
	if !utils.IsValidSubject(kind, subjectID) {
		return nil, types.ErrInvalidSubject
	}
	votes, err := s.cacheClient.Snapshot(ctx, kind, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrStoreUnavailable, err)
	}
	return tally.Count(kind, votes), nil
}
