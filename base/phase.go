package base

import (
	"github.com/pkg/errors"
)

// Phase is the workflow status of the ledger. The numeric values follow the
// order the ledger itself reports.
type Phase uint8

const (
	PhaseRegisteringVoters Phase = iota
	PhaseProposalsRegistrationStarted
	PhaseProposalsRegistrationEnded
	PhaseVotingSessionStarted
	PhaseVotingSessionEnded
	PhaseVotesTallied
)

// LastPhase is the terminal phase.
const LastPhase = PhaseVotesTallied

var InvalidPhaseError = errors.New("invalid phase")

func (ph Phase) String() string {
	switch ph {
	case PhaseRegisteringVoters:
		return "RegisteringVoters"
	case PhaseProposalsRegistrationStarted:
		return "ProposalsRegistrationStarted"
	case PhaseProposalsRegistrationEnded:
		return "ProposalsRegistrationEnded"
	case PhaseVotingSessionStarted:
		return "VotingSessionStarted"
	case PhaseVotingSessionEnded:
		return "VotingSessionEnded"
	case PhaseVotesTallied:
		return "VotesTallied"
	default:
		return "<unknown Phase>"
	}
}

func PhaseFromString(s string) (Phase, error) {
	for i := PhaseRegisteringVoters; i <= LastPhase; i++ {
		if i.String() == s {
			return i, nil
		}
	}

	return 0, errors.Wrapf(InvalidPhaseError, "unknown phase, %q", s)
}

func (ph Phase) IsValid([]byte) error {
	if ph > LastPhase {
		return errors.Wrapf(InvalidPhaseError, "phase=%d", ph)
	}

	return nil
}

// Next returns the phase right after; false for the terminal phase.
func (ph Phase) Next() (Phase, bool) {
	if ph >= LastPhase {
		return ph, false
	}

	return ph + 1, true
}

func (ph Phase) MarshalText() ([]byte, error) {
	return []byte(ph.String()), nil
}

func (ph *Phase) UnmarshalText(b []byte) error {
	i, err := PhaseFromString(string(b))
	if err != nil {
		return err
	}

	*ph = i

	return nil
}
