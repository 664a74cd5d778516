package ledger

import (
	"context"
	"time"

	"github.com/spikeekips/mitum-voting/base"
)

// QueryKind is what Read asks for.
type QueryKind uint8

const (
	QueryOwner QueryKind = iota + 1
	QueryPhase
	QueryVoter
	QueryProposals
	QueryWinner
)

func (qk QueryKind) String() string {
	switch qk {
	case QueryOwner:
		return "owner"
	case QueryPhase:
		return "phase"
	case QueryVoter:
		return "voter"
	case QueryProposals:
		return "proposals"
	case QueryWinner:
		return "winner"
	default:
		return "<unknown QueryKind>"
	}
}

// Query is a read-only request. Caller is the address the read is made from;
// some reads are restricted to registered voters by the ledger. Voter is the
// address QueryVoter looks up.
type Query struct {
	Kind   QueryKind
	Caller base.Address
	Voter  base.Address
}

// Receipt proves the ledger accepted a submission.
type Receipt struct {
	TxHash      string    `json:"tx_hash"`
	BlockNumber uint64    `json:"block_number"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// Client executes reads and submissions against the remote ledger.
//
// Read returns base.Address for QueryOwner, base.Phase for QueryPhase,
// base.VoterStatus for QueryVoter, []base.Proposal for QueryProposals and
// the winning proposal id, uint64, for QueryWinner.
//
// Submit returns after the ledger resolved the submission. A revert by the
// ledger is reported as *RevertError; any other error means the ledger could
// not be reached or did not answer.
type Client interface {
	Read(context.Context, Query) (interface{}, error)
	Submit(context.Context, base.ActionKind, base.Payload, base.Address) (Receipt, error)
}
