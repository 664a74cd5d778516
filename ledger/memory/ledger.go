package memledger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/ledger"
	"github.com/spikeekips/mitum-voting/util"
	"github.com/spikeekips/mitum-voting/util/localtime"
	"github.com/spikeekips/mitum-voting/util/logging"
)

const (
	ReasonNotOwner              = "Ownable: caller is not the owner"
	ReasonNotVoter              = "You're not a voter"
	ReasonRegistrationNotOpen   = "Voters registration is not open yet"
	ReasonAlreadyRegistered     = "Already registered"
	ReasonProposalsNotAllowed   = "Proposals are not allowed yet"
	ReasonEmptyProposal         = "You cannot submit an empty proposal"
	ReasonVotingNotStarted      = "Voting session havent started yet"
	ReasonAlreadyVoted          = "You have already voted"
	ReasonProposalNotFound      = "Proposal not found"
	ReasonCannotStartProposals  = "Registering proposals cant be started now"
	ReasonProposalsNotStarted   = "Registering proposals havent started yet"
	ReasonProposalsNotFinished  = "Registering proposals phase is not finished"
	ReasonVotingNotEnded        = "Current status is not voting session ended"
	ReasonVotesNotTallied       = "Votes are not tallied yet"
	ReasonInvalidVoterAddress   = "Invalid voter address"
	ReasonUnknownContractMethod = "Unknown method"
)

// SubmitHook runs before a submission is applied. Returning error makes the
// submission fail with it.
type SubmitHook func(context.Context, base.ActionKind, base.Payload, base.Address) error

type voter struct {
	hasVoted        bool
	votedProposalID uint64
}

// Ledger keeps the whole voting state in memory and applies the same rules and
// revert reasons as the voting contract.
type Ledger struct {
	sync.RWMutex
	*logging.Logging
	owner       base.Address
	phase       base.Phase
	voters      map[string]*voter
	proposals   []base.Proposal
	winner      uint64
	unreachable bool
	submitHook  SubmitHook
	blockNumber uint64
	submissions uint64
	reads       uint64
}

func New(owner base.Address) *Ledger {
	return &Ledger{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "memory-ledger").Str("owner", owner.String())
		}),
		owner:  owner,
		phase:  base.PhaseRegisteringVoters,
		voters: map[string]*voter{},
	}
}

// SetUnreachable makes every call fail as if the ledger could not be reached.
func (lg *Ledger) SetUnreachable(b bool) *Ledger {
	lg.Lock()
	defer lg.Unlock()

	lg.unreachable = b

	return lg
}

func (lg *Ledger) SetSubmitHook(f SubmitHook) *Ledger {
	lg.Lock()
	defer lg.Unlock()

	lg.submitHook = f

	return lg
}

// Submissions is the number of submissions which reached the ledger.
func (lg *Ledger) Submissions() uint64 {
	lg.RLock()
	defer lg.RUnlock()

	return lg.submissions
}

// Reads is the number of reads which reached the ledger.
func (lg *Ledger) Reads() uint64 {
	lg.RLock()
	defer lg.RUnlock()

	return lg.reads
}

func (lg *Ledger) Read(_ context.Context, q ledger.Query) (interface{}, error) {
	lg.Lock()
	defer lg.Unlock()

	if lg.unreachable {
		return nil, ledger.UnreachableError.Errorf("memory ledger is offline")
	}

	lg.reads++

	switch q.Kind {
	case ledger.QueryOwner:
		return lg.owner, nil
	case ledger.QueryPhase:
		return lg.phase, nil
	case ledger.QueryVoter:
		v, found := lg.voters[q.Voter.Key()]
		if !found {
			return base.VoterStatus{Known: true}, nil
		}

		return base.VoterStatus{
			Known:           true,
			Registered:      true,
			HasVoted:        v.hasVoted,
			VotedProposalID: v.votedProposalID,
		}, nil
	case ledger.QueryProposals:
		if !lg.isVoter(q.Caller) {
			return nil, ledger.NewRevertError(ReasonNotVoter)
		}

		ps := make([]base.Proposal, len(lg.proposals))
		copy(ps, lg.proposals)

		return ps, nil
	case ledger.QueryWinner:
		if lg.phase != base.PhaseVotesTallied {
			return nil, ledger.NewRevertError(ReasonVotesNotTallied)
		}

		return lg.winner, nil
	default:
		return nil, ledger.UnknownQueryError.Errorf("query=%d", q.Kind)
	}
}

func (lg *Ledger) Submit(
	ctx context.Context,
	action base.ActionKind,
	payload base.Payload,
	caller base.Address,
) (ledger.Receipt, error) {
	lg.RLock()
	hook := lg.submitHook
	lg.RUnlock()

	if hook != nil {
		if err := hook(ctx, action, payload, caller); err != nil {
			return ledger.Receipt{}, err
		}
	}

	lg.Lock()
	defer lg.Unlock()

	if lg.unreachable {
		return ledger.Receipt{}, ledger.UnreachableError.Errorf("memory ledger is offline")
	}

	lg.submissions++

	if err := lg.apply(action, payload, caller); err != nil {
		lg.Log().Debug().Err(err).Stringer("action", action).Str("caller", caller.String()).Msg("submission reverted")

		return ledger.Receipt{}, err
	}

	lg.blockNumber++

	lg.Log().Debug().Stringer("action", action).Str("caller", caller.String()).Uint64("block", lg.blockNumber).
		Msg("submission applied")

	return ledger.Receipt{
		TxHash:      fmt.Sprintf("0x%s", strings.ReplaceAll(util.UUID().String(), "-", "")),
		BlockNumber: lg.blockNumber,
		ConfirmedAt: localtime.UTCNow(),
	}, nil
}

func (lg *Ledger) apply(action base.ActionKind, payload base.Payload, caller base.Address) error {
	switch action {
	case base.ActionRegisterVoter:
		return lg.addVoter(caller, payload.Voter)
	case base.ActionOpenProposalsRegistration:
		return lg.advance(caller, base.PhaseRegisteringVoters, ReasonCannotStartProposals)
	case base.ActionSubmitProposal:
		return lg.addProposal(caller, payload.Description)
	case base.ActionCloseProposalsRegistration:
		return lg.advance(caller, base.PhaseProposalsRegistrationStarted, ReasonProposalsNotStarted)
	case base.ActionOpenVotingSession:
		return lg.advance(caller, base.PhaseProposalsRegistrationEnded, ReasonProposalsNotFinished)
	case base.ActionCastVote:
		return lg.setVote(caller, payload.ProposalID)
	case base.ActionCloseVotingSession:
		return lg.advance(caller, base.PhaseVotingSessionStarted, ReasonVotingNotStarted)
	case base.ActionTallyVotes:
		return lg.tally(caller)
	default:
		return ledger.NewRevertError(ReasonUnknownContractMethod)
	}
}

func (lg *Ledger) isVoter(a base.Address) bool {
	_, found := lg.voters[a.Key()]

	return found
}

func (lg *Ledger) onlyOwner(caller base.Address) error {
	if !caller.Equal(lg.owner) {
		return ledger.NewRevertError(ReasonNotOwner)
	}

	return nil
}

func (lg *Ledger) addVoter(caller, a base.Address) error {
	if err := lg.onlyOwner(caller); err != nil {
		return err
	}

	if lg.phase != base.PhaseRegisteringVoters {
		return ledger.NewRevertError(ReasonRegistrationNotOpen)
	}

	if err := a.IsValid(nil); err != nil {
		return ledger.NewRevertError(ReasonInvalidVoterAddress)
	}

	if lg.isVoter(a) {
		return ledger.NewRevertError(ReasonAlreadyRegistered)
	}

	lg.voters[a.Key()] = &voter{}

	return nil
}

func (lg *Ledger) advance(caller base.Address, from base.Phase, reason string) error {
	if err := lg.onlyOwner(caller); err != nil {
		return err
	}

	if lg.phase != from {
		return ledger.NewRevertError(reason)
	}

	lg.phase, _ = lg.phase.Next()

	return nil
}

func (lg *Ledger) addProposal(caller base.Address, description string) error {
	if !lg.isVoter(caller) {
		return ledger.NewRevertError(ReasonNotVoter)
	}

	if lg.phase != base.PhaseProposalsRegistrationStarted {
		return ledger.NewRevertError(ReasonProposalsNotAllowed)
	}

	if len(description) < 1 {
		return ledger.NewRevertError(ReasonEmptyProposal)
	}

	lg.proposals = append(lg.proposals, base.Proposal{
		ID:          uint64(len(lg.proposals) + 1),
		Description: description,
	})

	return nil
}

func (lg *Ledger) setVote(caller base.Address, id uint64) error {
	v, found := lg.voters[caller.Key()]
	if !found {
		return ledger.NewRevertError(ReasonNotVoter)
	}

	if lg.phase != base.PhaseVotingSessionStarted {
		return ledger.NewRevertError(ReasonVotingNotStarted)
	}

	if v.hasVoted {
		return ledger.NewRevertError(ReasonAlreadyVoted)
	}

	if id < 1 || id > uint64(len(lg.proposals)) {
		return ledger.NewRevertError(ReasonProposalNotFound)
	}

	v.hasVoted = true
	v.votedProposalID = id
	lg.proposals[id-1].VoteCount++

	return nil
}

func (lg *Ledger) tally(caller base.Address) error {
	if err := lg.onlyOwner(caller); err != nil {
		return err
	}

	if lg.phase != base.PhaseVotingSessionEnded {
		return ledger.NewRevertError(ReasonVotingNotEnded)
	}

	lg.winner = winningID(lg.proposals)
	lg.phase = base.PhaseVotesTallied

	return nil
}

// SetState overwrites the phase and proposals; it is for preparing fixtures.
func (lg *Ledger) SetState(ph base.Phase, proposals []base.Proposal, voters ...base.Address) *Ledger {
	lg.Lock()
	defer lg.Unlock()

	lg.phase = ph
	lg.proposals = make([]base.Proposal, len(proposals))
	copy(lg.proposals, proposals)
	base.SortProposals(lg.proposals)

	for i := range voters {
		if _, found := lg.voters[voters[i].Key()]; !found {
			lg.voters[voters[i].Key()] = &voter{}
		}
	}

	if ph == base.PhaseVotesTallied {
		lg.winner = winningID(lg.proposals)
	}

	return lg
}

// winningID picks the first proposal, by id, with the most votes; 0 without
// proposals.
func winningID(ps []base.Proposal) uint64 {
	var winner, max uint64
	for i := range ps {
		if p := ps[i]; winner == 0 || p.VoteCount > max {
			winner = p.ID
			max = p.VoteCount
		}
	}

	return winner
}
