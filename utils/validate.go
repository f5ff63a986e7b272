package utils

import (
	"regexp"

	"github.com/gagliardetto/solana-go"

	"github.com/zmart-protocol/vote-backend/types"
)

var marketIDRe = regexp.MustCompile("^[0-9a-f]{64}$")

// IsValidSubject checks the subject id format for a kind: proposals are voted
// on by 32-byte market id (lowercase hex), disputes by the market's on-chain
// account address (base58).
func IsValidSubject(kind types.VoteKind, subjectID string) bool {
	switch kind {
	case types.KindProposal:
		return marketIDRe.MatchString(subjectID)
	case types.KindDispute:
		_, err := solana.PublicKeyFromBase58(subjectID)
		return err == nil
	}
	return false
}
