package workflow

import (
	"fmt"

	"github.com/spikeekips/mitum-voting/base"
)

// RoleRequirement is who may perform an action.
type RoleRequirement uint8

const (
	AnyCaller RoleRequirement = iota
	OwnerOnly
	VoterOnly
)

func (rr RoleRequirement) String() string {
	switch rr {
	case OwnerOnly:
		return "owner"
	case VoterOnly:
		return "registered voter"
	default:
		return "any caller"
	}
}

type Rule struct {
	Role  RoleRequirement
	Phase base.Phase
}

// Rules is the decision table; every action is checked against it.
var Rules = map[base.ActionKind]Rule{
	base.ActionRegisterVoter:              {Role: OwnerOnly, Phase: base.PhaseRegisteringVoters},
	base.ActionOpenProposalsRegistration:  {Role: OwnerOnly, Phase: base.PhaseRegisteringVoters},
	base.ActionSubmitProposal:             {Role: VoterOnly, Phase: base.PhaseProposalsRegistrationStarted},
	base.ActionCloseProposalsRegistration: {Role: OwnerOnly, Phase: base.PhaseProposalsRegistrationStarted},
	base.ActionOpenVotingSession:          {Role: OwnerOnly, Phase: base.PhaseProposalsRegistrationEnded},
	base.ActionCastVote:                   {Role: VoterOnly, Phase: base.PhaseVotingSessionStarted},
	base.ActionCloseVotingSession:         {Role: OwnerOnly, Phase: base.PhaseVotingSessionStarted},
	base.ActionTallyVotes:                 {Role: OwnerOnly, Phase: base.PhaseVotingSessionEnded},
	base.ActionReadWinner:                 {Role: AnyCaller, Phase: base.PhaseVotesTallied},
}

// Snapshot is the part of the session the gate looks at.
type Snapshot struct {
	Phase   base.Phase
	Role    base.Role
	Voter   base.VoterStatus
	Pending bool
}

type Decision struct {
	Denial Denial
	Reason string
}

func Allow() Decision {
	return Decision{Denial: DenialNone}
}

func Deny(d Denial, format string, a ...interface{}) Decision {
	return Decision{Denial: d, Reason: fmt.Sprintf(format, a...)}
}

func (dc Decision) Allowed() bool {
	return dc.Denial == DenialNone
}

func (dc Decision) String() string {
	if dc.Allowed() {
		return "allowed"
	}

	return fmt.Sprintf("%s: %s", dc.Denial, dc.Reason)
}

// IsAllowed checks the action against the decision table. A pending
// submission refuses every submission whatever role and phase are; reads are
// never refused by it.
func IsAllowed(s Snapshot, action base.ActionKind) Decision {
	rule, found := Rules[action]
	if !found {
		return Deny(DenialInvalidPayload, "unknown action, %q", action)
	}

	if action.IsSubmission() && s.Pending {
		return Deny(DenialSubmissionAlreadyPending, "another submission is waiting for the ledger")
	}

	switch rule.Role {
	case OwnerOnly:
		if s.Role != base.RoleOwner {
			return Deny(DenialWrongRole, "%s is allowed only to the ledger owner", action)
		}
	case VoterOnly:
		if s.Voter.IsUnregistered() {
			return Deny(DenialWrongRole, "%s is allowed only to a registered voter", action)
		}
	}

	if s.Phase != rule.Phase {
		return Deny(DenialWrongPhase, "%s is allowed only in %s, not in %s", action, rule.Phase, s.Phase)
	}

	if action == base.ActionCastVote && s.Voter.IsVoted() {
		return Deny(DenialAlreadyVoted, "caller already voted for proposal #%d", s.Voter.VotedProposalID)
	}

	return Allow()
}
