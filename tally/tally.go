// Package tally counts votes and applies the settlement threshold rule. Both
// functions are pure, all arithmetic is integer.
package tally

import (
	"github.com/zmart-protocol/vote-backend/types"
)

// Count computes the tally for one subject's vote snapshot. The positive
// percentage is truncated integer math (positive*100/total); an empty
// snapshot yields 0% with zero counts.
func Count(kind types.VoteKind, votes map[string]string) *types.Tally {
	t := &types.Tally{
		Counts: map[string]int{
			kind.PositiveChoice(): 0,
			kind.NegativeChoice(): 0,
		},
	}
	for _, choice := range votes {
		t.Counts[choice]++
		t.TotalVotes++
	}
	if t.TotalVotes > 0 {
		t.PositivePct = t.Counts[kind.PositiveChoice()] * 100 / t.TotalVotes
	}
	return t
}

// Decide applies the threshold rule: both the vote floor and the percentage
// floor must hold. A unanimous subject below the floor never settles.
func Decide(kind types.VoteKind, t *types.Tally, cfg types.ThresholdConfig) (bool, string) {
	threshold := cfg.ProposalApprovalPct
	if kind == types.KindDispute {
		threshold = cfg.DisputeSupportPct
	}
	if t.TotalVotes < cfg.MinVotesRequired || t.PositivePct < threshold {
		return false, types.ActionNone
	}
	return true, kind.SettleAction()
}
