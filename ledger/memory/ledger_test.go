package memledger

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/ledger"
	"github.com/stretchr/testify/suite"
)

var (
	owner = base.Address("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
	alice = base.Address("0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2")
	bob   = base.Address("0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db")
)

type testLedger struct {
	suite.Suite
	lg *Ledger
}

func (t *testLedger) SetupTest() {
	t.lg = New(owner)
}

func (t *testLedger) submit(action base.ActionKind, payload base.Payload, caller base.Address) error {
	_, err := t.lg.Submit(context.Background(), action, payload, caller)

	return err
}

func (t *testLedger) reason(err error) string {
	reason, ok := ledger.IsRevert(err)
	t.True(ok, "expected revert, %+v", err)

	return reason
}

func (t *testLedger) TestWholeFlow() {
	ctx := context.Background()

	t.NoError(t.submit(base.ActionRegisterVoter, base.Payload{Voter: alice}, owner))
	t.NoError(t.submit(base.ActionRegisterVoter, base.Payload{Voter: bob}, owner))
	t.NoError(t.submit(base.ActionOpenProposalsRegistration, base.Payload{}, owner))
	t.NoError(t.submit(base.ActionSubmitProposal, base.Payload{Description: "tea"}, alice))
	t.NoError(t.submit(base.ActionSubmitProposal, base.Payload{Description: "coffee"}, bob))
	t.NoError(t.submit(base.ActionCloseProposalsRegistration, base.Payload{}, owner))
	t.NoError(t.submit(base.ActionOpenVotingSession, base.Payload{}, owner))
	t.NoError(t.submit(base.ActionCastVote, base.Payload{ProposalID: 2}, alice))
	t.NoError(t.submit(base.ActionCastVote, base.Payload{ProposalID: 2}, bob))
	t.NoError(t.submit(base.ActionCloseVotingSession, base.Payload{}, owner))
	t.NoError(t.submit(base.ActionTallyVotes, base.Payload{}, owner))

	ph, err := ledger.Phase(ctx, t.lg)
	t.NoError(err)
	t.Equal(base.PhaseVotesTallied, ph)

	winner, err := ledger.Winner(ctx, t.lg, alice)
	t.NoError(err)
	t.Equal(uint64(2), winner)

	ps, err := ledger.Proposals(ctx, t.lg, bob)
	t.NoError(err)
	t.Equal([]base.Proposal{
		{ID: 1, Description: "tea"},
		{ID: 2, Description: "coffee", VoteCount: 2},
	}, ps)

	vs, err := ledger.Voter(ctx, t.lg, alice, alice)
	t.NoError(err)
	t.Equal(base.VoterStatus{Known: true, Registered: true, HasVoted: true, VotedProposalID: 2}, vs)

	t.Equal(uint64(11), t.lg.Submissions())
}

func (t *testLedger) TestOnlyOwner() {
	err := t.submit(base.ActionRegisterVoter, base.Payload{Voter: bob}, alice)
	t.Equal(ReasonNotOwner, t.reason(err))

	err = t.submit(base.ActionOpenProposalsRegistration, base.Payload{}, alice)
	t.Equal(ReasonNotOwner, t.reason(err))
}

func (t *testLedger) TestOwnerComparedIgnoringCase() {
	t.NoError(t.submit(base.ActionRegisterVoter, base.Payload{Voter: alice},
		base.Address("0x5b38da6a701c568545dcfcb03fcb875f56beddc4")))
}

func (t *testLedger) TestAlreadyRegistered() {
	t.NoError(t.submit(base.ActionRegisterVoter, base.Payload{Voter: alice}, owner))

	err := t.submit(base.ActionRegisterVoter, base.Payload{Voter: alice}, owner)
	t.Equal(ReasonAlreadyRegistered, t.reason(err))
}

func (t *testLedger) TestDoubleVote() {
	t.lg.SetState(base.PhaseVotingSessionStarted, []base.Proposal{{ID: 1, Description: "tea"}}, alice)

	t.NoError(t.submit(base.ActionCastVote, base.Payload{ProposalID: 1}, alice))

	err := t.submit(base.ActionCastVote, base.Payload{ProposalID: 1}, alice)
	t.Equal(ReasonAlreadyVoted, t.reason(err))
}

func (t *testLedger) TestUnknownProposal() {
	t.lg.SetState(base.PhaseVotingSessionStarted, []base.Proposal{{ID: 1, Description: "tea"}}, alice)

	err := t.submit(base.ActionCastVote, base.Payload{ProposalID: 2}, alice)
	t.Equal(ReasonProposalNotFound, t.reason(err))
}

func (t *testLedger) TestWrongPhase() {
	err := t.submit(base.ActionTallyVotes, base.Payload{}, owner)
	t.Equal(ReasonVotingNotEnded, t.reason(err))

	ph, err := ledger.Phase(context.Background(), t.lg)
	t.NoError(err)
	t.Equal(base.PhaseRegisteringVoters, ph)
}

func (t *testLedger) TestProposalsOnlyForVoters() {
	_, err := ledger.Proposals(context.Background(), t.lg, bob)
	t.Equal(ReasonNotVoter, t.reason(err))
}

func (t *testLedger) TestWinnerBeforeTally() {
	_, err := ledger.Winner(context.Background(), t.lg, owner)
	t.Equal(ReasonVotesNotTallied, t.reason(err))
}

func (t *testLedger) TestTieGoesToLowestID() {
	t.lg.SetState(base.PhaseVotesTallied, []base.Proposal{
		{ID: 3, Description: "c", VoteCount: 7},
		{ID: 1, Description: "a", VoteCount: 5},
		{ID: 2, Description: "b", VoteCount: 7},
	})

	winner, err := ledger.Winner(context.Background(), t.lg, owner)
	t.NoError(err)
	t.Equal(uint64(2), winner)
}

func (t *testLedger) TestUnreachable() {
	_ = t.lg.SetUnreachable(true)

	_, err := ledger.Owner(context.Background(), t.lg)
	t.True(errors.Is(err, ledger.UnreachableError))

	err = t.submit(base.ActionOpenProposalsRegistration, base.Payload{}, owner)
	t.True(errors.Is(err, ledger.UnreachableError))

	_, isRevert := ledger.IsRevert(err)
	t.False(isRevert)
	t.Equal(uint64(0), t.lg.Submissions())
}

func (t *testLedger) TestSubmitHook() {
	hookErr := errors.New("hooked")
	_ = t.lg.SetSubmitHook(func(context.Context, base.ActionKind, base.Payload, base.Address) error {
		return hookErr
	})

	err := t.submit(base.ActionOpenProposalsRegistration, base.Payload{}, owner)
	t.True(errors.Is(err, hookErr))
}

func TestLedger(t *testing.T) {
	suite.Run(t, new(testLedger))
}
