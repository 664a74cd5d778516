package session

import (
	"fmt"
	"time"

	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/ledger"
	"github.com/spikeekips/mitum-voting/workflow"
)

type OutcomeKind uint8

const (
	OutcomeUnknown OutcomeKind = iota
	OutcomeConfirmed
	OutcomeRejected
	OutcomeFailed
)

func (ok OutcomeKind) String() string {
	switch ok {
	case OutcomeConfirmed:
		return "Confirmed"
	case OutcomeRejected:
		return "Rejected"
	case OutcomeFailed:
		return "Failed"
	default:
		return "<unknown OutcomeKind>"
	}
}

func (ok OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(ok.String()), nil
}

type FailureKind uint8

const (
	FailureNone FailureKind = iota
	FailureLedgerRevert
	FailureLedgerUnreachable
	FailureNoProposals
)

func (fk FailureKind) String() string {
	switch fk {
	case FailureNone:
		return "None"
	case FailureLedgerRevert:
		return "LedgerRevert"
	case FailureLedgerUnreachable:
		return "LedgerUnreachable"
	case FailureNoProposals:
		return "NoProposals"
	default:
		return "<unknown FailureKind>"
	}
}

func (fk FailureKind) MarshalText() ([]byte, error) {
	return []byte(fk.String()), nil
}

// Outcome is the result of one Perform call. Detail keeps the denial reason
// or, for failures, the ledger's own message unchanged.
type Outcome struct {
	ID      string          `json:"id"`
	Kind    OutcomeKind     `json:"kind"`
	Action  base.ActionKind `json:"action"`
	Caller  base.Address    `json:"caller"`
	Denial  workflow.Denial `json:"denial"`
	Failure FailureKind     `json:"failure"`
	Detail  string          `json:"detail,omitempty"`
	Phase   base.Phase      `json:"phase"`
	Receipt *ledger.Receipt `json:"receipt,omitempty"`
	Winner  *WinnerResult   `json:"winner,omitempty"`
	At      time.Time       `json:"at"`
}

func (o Outcome) IsConfirmed() bool {
	return o.Kind == OutcomeConfirmed
}

// Message is the human readable form of the outcome.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeConfirmed:
		switch {
		case o.Winner != nil:
			return o.Winner.String()
		case o.Receipt != nil:
			return fmt.Sprintf("%s confirmed in block %d", o.Action, o.Receipt.BlockNumber)
		default:
			return fmt.Sprintf("%s confirmed", o.Action)
		}
	case OutcomeRejected:
		return fmt.Sprintf("%s rejected, %s: %s", o.Action, o.Denial, o.Detail)
	case OutcomeFailed:
		switch o.Failure {
		case FailureLedgerRevert:
			return fmt.Sprintf("%s failed, ledger reverted: %s", o.Action, o.Detail)
		case FailureNoProposals:
			return fmt.Sprintf("%s failed, no proposals to resolve", o.Action)
		default:
			return fmt.Sprintf("%s failed, ledger unreachable: %s", o.Action, o.Detail)
		}
	default:
		return fmt.Sprintf("%s: unknown outcome", o.Action)
	}
}

// classifyFailure treats every error except a revert as the ledger being
// unreachable.
func classifyFailure(err error) (FailureKind, string) {
	if reason, ok := ledger.IsRevert(err); ok {
		return FailureLedgerRevert, reason
	}

	return FailureLedgerUnreachable, err.Error()
}
