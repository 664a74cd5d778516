package session

import (
	"time"

	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/workflow"
)

// PendingSubmission is the submission waiting for the ledger.
type PendingSubmission struct {
	ID          string          `json:"id"`
	Action      base.ActionKind `json:"action"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// State is the session of one caller. It is created by Bootstrap and is never
// carried over to another caller.
type State struct {
	phase     base.Phase
	owner     base.Address
	caller    base.Address
	voter     base.VoterStatus
	proposals int // NOTE -1 until the frozen proposal list is read
	pending   *PendingSubmission
	createdAt time.Time
}

func (st *State) Phase() base.Phase {
	return st.phase
}

func (st *State) Owner() base.Address {
	return st.owner
}

func (st *State) Caller() base.Address {
	return st.caller
}

func (st *State) Role() base.Role {
	return base.RoleOf(st.caller, st.owner)
}

func (st *State) Voter() base.VoterStatus {
	return st.voter
}

func (st *State) CreatedAt() time.Time {
	return st.createdAt
}

func (st *State) snapshot() workflow.Snapshot {
	return workflow.Snapshot{
		Phase:   st.phase,
		Role:    st.Role(),
		Voter:   st.voter,
		Pending: st.pending != nil,
	}
}

// setProposals keeps the proposal count once the proposals can not change
// anymore.
func (st *State) setProposals(ph base.Phase, n int) {
	if ph < base.PhaseProposalsRegistrationEnded {
		return
	}

	st.proposals = n
}
