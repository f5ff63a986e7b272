// Package types
package types

// VoteKind selects one of the two voting workflows. The kind decides which
// choice vocabulary is legal and which threshold percentage applies when the
// subject is aggregated.
type VoteKind string

const (
	KindProposal VoteKind = "proposal"
	KindDispute  VoteKind = "dispute"
)

const (
	ChoiceLike    = "like"
	ChoiceDislike = "dislike"
	ChoiceSupport = "support"
	ChoiceReject  = "reject"
)

const (
	ActionApproved = "approved"
	ActionResolved = "resolved"
	ActionNone     = "no_action"
)

func (k VoteKind) Valid() bool {
	return k == KindProposal || k == KindDispute
}

// ValidChoice reports whether choice belongs to the kind's closed vocabulary.
// Anything else is rejected at the boundary, never stored.
func (k VoteKind) ValidChoice(choice string) bool {
	switch k {
	case KindProposal:
		return choice == ChoiceLike || choice == ChoiceDislike
	case KindDispute:
		return choice == ChoiceSupport || choice == ChoiceReject
	}
	return false
}

// PositiveChoice is the choice counted toward the settlement threshold.
func (k VoteKind) PositiveChoice() string {
	if k == KindDispute {
		return ChoiceSupport
	}
	return ChoiceLike
}

func (k VoteKind) NegativeChoice() string {
	if k == KindDispute {
		return ChoiceReject
	}
	return ChoiceDislike
}

// KeyPrefix namespaces subject keys in the vote store.
func (k VoteKind) KeyPrefix() string {
	return "#votes#" + string(k) + "#"
}

// ReceiptPrefix makes vote ids self-describing across kinds.
func (k VoteKind) ReceiptPrefix() string {
	if k == KindDispute {
		return "dv"
	}
	return "pv"
}

// SettleAction is the action reported when the kind's threshold is met.
func (k VoteKind) SettleAction() string {
	if k == KindDispute {
		return ActionResolved
	}
	return ActionApproved
}

// VoteSubmission is a single signed vote as it arrives from a wallet.
// PublicKey is the voter's base58 account address, Signature the base64
// detached signature over the raw Message bytes.
type VoteSubmission struct {
	Choice    string `json:"choice"`
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
	Message   string `json:"message"`
}

// VoteReceipt is returned to the voter after a vote is recorded.
type VoteReceipt struct {
	VoteID    string `json:"voteId"`
	SubjectID string `json:"subjectId"`
	Choice    string `json:"choice"`
	Timestamp int64  `json:"timestamp"`
}
