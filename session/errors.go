package session

import (
	"github.com/spikeekips/mitum-voting/util"
	"github.com/spikeekips/mitum-voting/workflow"
)

var (
	NoIdentityError        = util.NewError("no identity")
	LedgerUnreachableError = util.NewError("ledger unreachable")
	NotBootstrappedError   = util.NewError("session not bootstrapped")
	NoProposalsError       = util.NewError("no proposals")
)

// DeniedError is a read refused by the workflow gate.
type DeniedError struct {
	Decision workflow.Decision
}

func (er DeniedError) Error() string {
	return "denied; " + er.Decision.String()
}
