// Package types
package types

import "time"

// Tally is the derived count for one subject. It is computed fresh on every
// read or aggregation pass, never cached.
type Tally struct {
	TotalVotes  int            `json:"totalVotes"`
	Counts      map[string]int `json:"counts"`
	PositivePct int            `json:"positivePct"`
}

// ThresholdConfig is loaded once at startup and immutable afterwards.
// Percentages are whole points (70 = 70%).
type ThresholdConfig struct {
	ProposalApprovalPct int
	DisputeSupportPct   int
	MinVotesRequired    int
}

// AggregationResult reports what one aggregation pass did for one subject.
type AggregationResult struct {
	SubjectID    string   `json:"subjectId"`
	Kind         VoteKind `json:"kind"`
	Tally        *Tally   `json:"tally"`
	ThresholdMet bool     `json:"thresholdMet"`
	Action       string   `json:"actionTaken"`
	Success      bool     `json:"success"`
	SettlementTx string   `json:"settlementTx,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Settlement is the audit-log record written after the ledger accepts an
// aggregated result.
type Settlement struct {
	SubjectID   string    `json:"subjectId" bson:"subjectId"`
	Kind        VoteKind  `json:"kind" bson:"kind"`
	Positive    int       `json:"positive" bson:"positive"`
	Negative    int       `json:"negative" bson:"negative"`
	TotalVotes  int       `json:"totalVotes" bson:"totalVotes"`
	PositivePct int       `json:"positivePct" bson:"positivePct"`
	Action      string    `json:"action" bson:"action"`
	TxID        string    `json:"txId" bson:"txId"`
	SettledAt   time.Time `json:"settledAt" bson:"settledAt"`
}
