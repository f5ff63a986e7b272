// Package server
package server

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/cache"
	"github.com/zmart-protocol/vote-backend/signature"
	"github.com/zmart-protocol/vote-backend/types"
)

var testSubject = strings.Repeat("ab", 32)

func setupTestServer(t *testing.T, verifier signature.Verifier) (*Server, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cacheClient, err := cache.New(cache.Config{
		Adapter: cache.RedisAdapter,
		URL:     mr.Addr(),
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)

	srv := New().
		SetVerifier(verifier).
		SetCache(cacheClient).
		SetLogger(zap.NewNop())
	return srv, mr
}

func testSubmission(choice string) *types.VoteSubmission {
	return &types.VoteSubmission{
		Choice:    choice,
		Signature: base64.StdEncoding.EncodeToString(make([]byte, 64)),
		PublicKey: solana.NewWallet().PublicKey().String(),
		Message:   "vote message",
	}
}

func TestSubmitVote(t *testing.T) {
	srv, _ := setupTestServer(t, signature.StaticVerifier{Result: true})

	receipt, err := srv.SubmitVote(context.Background(), types.KindProposal, testSubject, testSubmission(types.ChoiceLike))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt.VoteID, "pv_"))
	assert.Equal(t, testSubject, receipt.SubjectID)
	assert.Equal(t, types.ChoiceLike, receipt.Choice)
	assert.NotZero(t, receipt.Timestamp)
}

func TestSubmitVote_ReceiptPrefixByKind(t *testing.T) {
	srv, _ := setupTestServer(t, signature.StaticVerifier{Result: true})

	disputeSubject := solana.NewWallet().PublicKey().String()
	receipt, err := srv.SubmitVote(context.Background(), types.KindDispute, disputeSubject, testSubmission(types.ChoiceSupport))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt.VoteID, "dv_"))
}

func TestSubmitVote_InvalidSubject(t *testing.T) {
	srv, _ := setupTestServer(t, signature.StaticVerifier{Result: true})

	_, err := srv.SubmitVote(context.Background(), types.KindProposal, "short", testSubmission(types.ChoiceLike))
	assert.ErrorIs(t, err, types.ErrInvalidSubject)
}

func TestSubmitVote_InvalidChoice(t *testing.T) {
	srv, _ := setupTestServer(t, signature.StaticVerifier{Result: true})

	// dispute vocabulary on a proposal vote
	_, err := srv.SubmitVote(context.Background(), types.KindProposal, testSubject, testSubmission(types.ChoiceSupport))
	assert.ErrorIs(t, err, types.ErrInvalidChoice)
}

func TestSubmitVote_InvalidSignature(t *testing.T) {
	srv, mr := setupTestServer(t, signature.StaticVerifier{Result: false})

	_, err := srv.SubmitVote(context.Background(), types.KindProposal, testSubject, testSubmission(types.ChoiceLike))
	assert.ErrorIs(t, err, types.ErrInvalidSignature)
	// failed submissions leave no state behind
	assert.Empty(t, mr.Keys())
}

func TestSubmitVote_MalformedKeyOrSignature(t *testing.T) {
	srv, _ := setupTestServer(t, signature.StaticVerifier{Result: true})

	sub := testSubmission(types.ChoiceLike)
	sub.PublicKey = "not-base58-0OIl"
	_, err := srv.SubmitVote(context.Background(), types.KindProposal, testSubject, sub)
	assert.ErrorIs(t, err, types.ErrInvalidSignature)

	sub = testSubmission(types.ChoiceLike)
	sub.Signature = "%%%not-base64"
	_, err = srv.SubmitVote(context.Background(), types.KindProposal, testSubject, sub)
	assert.ErrorIs(t, err, types.ErrInvalidSignature)
}

func TestSubmitVote_AlreadyVoted(t *testing.T) {
	srv, _ := setupTestServer(t, signature.StaticVerifier{Result: true})
	ctx := context.Background()

	sub := testSubmission(types.ChoiceLike)
	_, err := srv.SubmitVote(ctx, types.KindProposal, testSubject, sub)
	require.NoError(t, err)

	// same voter, either choice: conflict
	sub.Choice = types.ChoiceDislike
	_, err = srv.SubmitVote(ctx, types.KindProposal, testSubject, sub)
	assert.ErrorIs(t, err, types.ErrAlreadyVoted)

	tl, err := srv.VoteTally(ctx, types.KindProposal, testSubject)
	require.NoError(t, err)
	assert.Equal(t, 1, tl.TotalVotes)
	assert.Equal(t, 1, tl.Counts[types.ChoiceLike])
}

func TestSubmitVote_StoreUnavailable(t *testing.T) {
	srv, mr := setupTestServer(t, signature.StaticVerifier{Result: true})
	mr.Close()

	_, err := srv.SubmitVote(context.Background(), types.KindProposal, testSubject, testSubmission(types.ChoiceLike))
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
}

func TestSubmitVote_RealSignature(t *testing.T) {
	srv, _ := setupTestServer(t, signature.NewVerifier())
	ctx := context.Background()

	wallet := solana.NewWallet()
	message := "zmart:vote:" + testSubject + ":like"
	sig, err := wallet.PrivateKey.Sign([]byte(message))
	require.NoError(t, err)

	sub := &types.VoteSubmission{
		Choice:    types.ChoiceLike,
		Signature: base64.StdEncoding.EncodeToString(sig[:]),
		PublicKey: wallet.PublicKey().String(),
		Message:   message,
	}
	_, err = srv.SubmitVote(ctx, types.KindProposal, testSubject, sub)
	require.NoError(t, err)

	// a signature from a different wallet over the same message fails
	other := solana.NewWallet()
	sub.PublicKey = other.PublicKey().String()
	_, err = srv.SubmitVote(ctx, types.KindProposal, testSubject, sub)
	assert.ErrorIs(t, err, types.ErrInvalidSignature)
}

func TestVoteTally_EmptySubject(t *testing.T) {
	srv, _ := setupTestServer(t, signature.StaticVerifier{Result: true})

	tl, err := srv.VoteTally(context.Background(), types.KindProposal, testSubject)
	require.NoError(t, err)
	assert.Equal(t, 0, tl.TotalVotes)
	assert.Equal(t, 0, tl.PositivePct)
}

func TestVoteTally_InvalidSubject(t *testing.T) {
	srv, _ := setupTestServer(t, signature.StaticVerifier{Result: true})

	_, err := srv.VoteTally(context.Background(), types.KindDispute, "!!!")
	assert.ErrorIs(t, err, types.ErrInvalidSubject)
}
