// Package aggregator
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/cache"
	"github.com/zmart-protocol/vote-backend/types"
)

var testThresholds = types.ThresholdConfig{
	ProposalApprovalPct: 70,
	DisputeSupportPct:   60,
	MinVotesRequired:    10,
}

type settleCall struct {
	kind     types.VoteKind
	subject  string
	positive uint32
	negative uint32
}

// fakeLedger accepts every settlement unless the subject is listed in fail.
type fakeLedger struct {
	mu    sync.Mutex
	calls []settleCall
	fail  map[string]error
}

func (f *fakeLedger) Settle(_ context.Context, kind types.VoteKind, subjectID string, positive, negative uint32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, settleCall{kind, subjectID, positive, negative})
	if err, ok := f.fail[subjectID]; ok {
		return "", err
	}
	return fmt.Sprintf("tx-%s-%d", subjectID, len(f.calls)), nil
}

type fakeLog struct {
	mu          sync.Mutex
	settlements []*types.Settlement
}

func (f *fakeLog) InsertSettlement(_ context.Context, settlement *types.Settlement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settlements = append(f.settlements, settlement)
	return nil
}

func setupTest(t *testing.T) (*Service, cache.Client, *fakeLedger, *fakeLog, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cacheClient, err := cache.New(cache.Config{
		Adapter: cache.RedisAdapter,
		URL:     mr.Addr(),
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)

	fl := &fakeLedger{fail: map[string]error{}}
	log := &fakeLog{}
	svc := New(Config{
		Cache:      cacheClient,
		Ledger:     fl,
		Storage:    log,
		Thresholds: testThresholds,
		Logger:     zap.NewNop(),
	})
	return svc, cacheClient, fl, log, mr
}

func seedVotes(t *testing.T, c cache.Client, kind types.VoteKind, subject string, positive, negative int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < positive; i++ {
		_, err := c.TryWriteVote(ctx, kind, subject, fmt.Sprintf("voter-pos-%d", i), kind.PositiveChoice())
		require.NoError(t, err)
	}
	for i := 0; i < negative; i++ {
		_, err := c.TryWriteVote(ctx, kind, subject, fmt.Sprintf("voter-neg-%d", i), kind.NegativeChoice())
		require.NoError(t, err)
	}
}

func TestProcess_NoSubjects(t *testing.T) {
	svc, _, fl, _, _ := setupTest(t)

	results, err := svc.ProcessProposalVotes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, fl.calls)
}

func TestProcess_BelowThreshold_VotesRetained(t *testing.T) {
	svc, c, fl, _, _ := setupTest(t)
	ctx := context.Background()
	subject := strings.Repeat("aa", 32)
	seedVotes(t, c, types.KindProposal, subject, 6, 4)

	results, err := svc.ProcessProposalVotes(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.False(t, res.ThresholdMet)
	assert.Equal(t, types.ActionNone, res.Action)
	assert.True(t, res.Success)
	assert.Equal(t, 60, res.Tally.PositivePct)
	assert.Empty(t, fl.calls)

	votes, err := c.Snapshot(ctx, types.KindProposal, subject)
	require.NoError(t, err)
	assert.Len(t, votes, 10)
}

func TestProcess_BelowVoteFloor_VotesRetained(t *testing.T) {
	svc, c, fl, _, _ := setupTest(t)
	ctx := context.Background()
	subject := strings.Repeat("bb", 32)
	seedVotes(t, c, types.KindProposal, subject, 5, 0)

	results, err := svc.ProcessProposalVotes(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].ThresholdMet)
	assert.Empty(t, fl.calls)

	votes, err := c.Snapshot(ctx, types.KindProposal, subject)
	require.NoError(t, err)
	assert.Len(t, votes, 5)
}

func TestProcess_ThresholdMet_SettlesAndClears(t *testing.T) {
	svc, c, fl, log, _ := setupTest(t)
	ctx := context.Background()
	subject := strings.Repeat("cc", 32)
	seedVotes(t, c, types.KindProposal, subject, 7, 3)

	results, err := svc.ProcessProposalVotes(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.True(t, res.ThresholdMet)
	assert.Equal(t, types.ActionApproved, res.Action)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.SettlementTx)
	assert.Empty(t, res.Error)

	require.Len(t, fl.calls, 1)
	assert.Equal(t, settleCall{types.KindProposal, subject, 7, 3}, fl.calls[0])

	votes, err := c.Snapshot(ctx, types.KindProposal, subject)
	require.NoError(t, err)
	assert.Empty(t, votes)

	require.Len(t, log.settlements, 1)
	assert.Equal(t, subject, log.settlements[0].SubjectID)
	assert.Equal(t, res.SettlementTx, log.settlements[0].TxID)
	assert.Equal(t, 70, log.settlements[0].PositivePct)
}

func TestProcess_DisputeThreshold(t *testing.T) {
	svc, c, fl, _, _ := setupTest(t)
	ctx := context.Background()
	subject := "11111111111111111111111111111111"
	seedVotes(t, c, types.KindDispute, subject, 6, 4)

	results, err := svc.ProcessDisputeVotes(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.True(t, res.ThresholdMet)
	assert.Equal(t, types.ActionResolved, res.Action)
	require.Len(t, fl.calls, 1)
	assert.Equal(t, settleCall{types.KindDispute, subject, 6, 4}, fl.calls[0])
}

func TestProcess_SettlementFailure_VotesRetained(t *testing.T) {
	svc, c, fl, log, _ := setupTest(t)
	ctx := context.Background()
	subject := strings.Repeat("dd", 32)
	fl.fail[subject] = errors.New("ledger timeout")
	seedVotes(t, c, types.KindProposal, subject, 8, 2)

	results, err := svc.ProcessProposalVotes(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.True(t, res.ThresholdMet)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "ledger timeout")
	assert.Empty(t, res.SettlementTx)
	assert.Empty(t, log.settlements)

	// retried next cycle with the same vote set
	votes, err := c.Snapshot(ctx, types.KindProposal, subject)
	require.NoError(t, err)
	assert.Len(t, votes, 10)

	fl.fail = map[string]error{}
	results, err = svc.ProcessProposalVotes(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestProcess_OneFailureDoesNotAbortOthers(t *testing.T) {
	svc, c, fl, _, _ := setupTest(t)
	ctx := context.Background()
	bad := strings.Repeat("ee", 32)
	good := strings.Repeat("ff", 32)
	fl.fail[bad] = errors.New("rpc down")
	seedVotes(t, c, types.KindProposal, bad, 9, 1)
	seedVotes(t, c, types.KindProposal, good, 8, 2)

	results, err := svc.ProcessProposalVotes(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[string]*types.AggregationResult{}
	for _, res := range results {
		byID[res.SubjectID] = res
	}
	assert.False(t, byID[bad].Success)
	assert.True(t, byID[good].Success)
	assert.NotEmpty(t, byID[good].SettlementTx)
}

func TestProcess_Idempotent(t *testing.T) {
	svc, c, fl, _, _ := setupTest(t)
	ctx := context.Background()

	unmet := strings.Repeat("0a", 32)
	met := strings.Repeat("0b", 32)
	seedVotes(t, c, types.KindProposal, unmet, 6, 4)
	seedVotes(t, c, types.KindProposal, met, 7, 3)

	results, err := svc.ProcessProposalVotes(ctx)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	require.Len(t, fl.calls, 1)

	// second pass with no new votes: unmet is no_action again, settled
	// subject no longer exists
	results, err = svc.ProcessProposalVotes(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, unmet, results[0].SubjectID)
	assert.Equal(t, types.ActionNone, results[0].Action)
	assert.Len(t, fl.calls, 1)
}

func TestProcess_StoreUnavailable(t *testing.T) {
	svc, _, _, _, mr := setupTest(t)
	mr.Close()

	_, err := svc.ProcessProposalVotes(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
}

func TestProcess_NoAuditLogConfigured(t *testing.T) {
	svc, c, _, _, _ := setupTest(t)
	svc.storage = nil
	subject := strings.Repeat("1a", 32)
	seedVotes(t, c, types.KindProposal, subject, 7, 3)

	results, err := svc.ProcessProposalVotes(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}
