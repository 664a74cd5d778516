package base

import (
	"github.com/pkg/errors"
)

// ActionKind is what a caller asks the ledger to do.
type ActionKind uint8

const (
	ActionUnknown ActionKind = iota
	ActionRegisterVoter
	ActionOpenProposalsRegistration
	ActionSubmitProposal
	ActionCloseProposalsRegistration
	ActionOpenVotingSession
	ActionCastVote
	ActionCloseVotingSession
	ActionTallyVotes
	ActionReadWinner
)

var Actions = []ActionKind{
	ActionRegisterVoter,
	ActionOpenProposalsRegistration,
	ActionSubmitProposal,
	ActionCloseProposalsRegistration,
	ActionOpenVotingSession,
	ActionCastVote,
	ActionCloseVotingSession,
	ActionTallyVotes,
	ActionReadWinner,
}

var InvalidActionError = errors.New("invalid action")

func (ak ActionKind) String() string {
	switch ak {
	case ActionRegisterVoter:
		return "RegisterVoter"
	case ActionOpenProposalsRegistration:
		return "OpenProposalsRegistration"
	case ActionSubmitProposal:
		return "SubmitProposal"
	case ActionCloseProposalsRegistration:
		return "CloseProposalsRegistration"
	case ActionOpenVotingSession:
		return "OpenVotingSession"
	case ActionCastVote:
		return "CastVote"
	case ActionCloseVotingSession:
		return "CloseVotingSession"
	case ActionTallyVotes:
		return "TallyVotes"
	case ActionReadWinner:
		return "ReadWinner"
	default:
		return "<unknown ActionKind>"
	}
}

func ActionFromString(s string) (ActionKind, error) {
	for i := range Actions {
		if Actions[i].String() == s {
			return Actions[i], nil
		}
	}

	return ActionUnknown, errors.Wrapf(InvalidActionError, "unknown action, %q", s)
}

func (ak ActionKind) IsValid([]byte) error {
	if ak == ActionUnknown || ak > ActionReadWinner {
		return errors.Wrapf(InvalidActionError, "action=%d", ak)
	}

	return nil
}

// IsSubmission tells the action changes the ledger state and goes through
// submit; otherwise it is a read.
func (ak ActionKind) IsSubmission() bool {
	switch ak {
	case ActionUnknown, ActionReadWinner:
		return false
	default:
		return ak <= ActionTallyVotes
	}
}

// AdvancesPhase tells a confirmed action moves the phase one step forward.
func (ak ActionKind) AdvancesPhase() bool {
	switch ak {
	case ActionOpenProposalsRegistration,
		ActionCloseProposalsRegistration,
		ActionOpenVotingSession,
		ActionCloseVotingSession,
		ActionTallyVotes:
		return true
	default:
		return false
	}
}

func (ak ActionKind) MarshalText() ([]byte, error) {
	return []byte(ak.String()), nil
}

func (ak *ActionKind) UnmarshalText(b []byte) error {
	i, err := ActionFromString(string(b))
	if err != nil {
		return err
	}

	*ak = i

	return nil
}
