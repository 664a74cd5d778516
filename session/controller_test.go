package session

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/identity"
	"github.com/spikeekips/mitum-voting/ledger"
	memledger "github.com/spikeekips/mitum-voting/ledger/memory"
	"github.com/spikeekips/mitum-voting/workflow"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

var (
	owner = base.Address("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
	alice = base.Address("0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2")
	bob   = base.Address("0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db")
)

type memJournal struct {
	sync.Mutex
	outcomes []Outcome
}

func (j *memJournal) Append(o Outcome) error {
	j.Lock()
	defer j.Unlock()

	j.outcomes = append(j.outcomes, o)

	return nil
}

func (j *memJournal) Len() int {
	j.Lock()
	defer j.Unlock()

	return len(j.outcomes)
}

type testController struct {
	suite.Suite
	lg  *memledger.Ledger
	ids *identity.Switcher
}

func (t *testController) SetupTest() {
	t.lg = memledger.New(owner)
	t.ids = identity.NewSwitcher(owner)
}

func (t *testController) TearDownTest() {
	goleak.VerifyNone(t.T())
}

func (t *testController) newController(caller base.Address) *Controller {
	t.ids.Switch(caller)

	c := NewController(t.lg, t.ids)
	t.NoError(c.Start(context.Background()))

	return c
}

func (t *testController) perform(c *Controller, action base.ActionKind, payload base.Payload) Outcome {
	return c.Perform(context.Background(), action, payload)
}

func (t *testController) TestBootstrap() {
	t.lg.SetState(base.PhaseProposalsRegistrationEnded, []base.Proposal{
		{ID: 1, Description: "a"},
		{ID: 2, Description: "b"},
	}, alice)

	c := t.newController(alice)

	v := c.View()
	t.True(v.Bootstrapped)
	t.Equal(alice, v.Caller)
	t.Equal(owner, v.Owner)
	t.Equal(base.RoleParticipant, v.Role)
	t.Equal(base.PhaseProposalsRegistrationEnded, v.Phase)
	t.True(v.Voter.Registered)
	t.Equal(2, v.Proposals)
	t.Nil(v.Pending)
	t.Nil(v.LastOutcome)
}

func (t *testController) TestBootstrapNoIdentity() {
	t.ids.Clear()

	c := NewController(t.lg, t.ids)
	err := c.Start(context.Background())
	t.True(errors.Is(err, NoIdentityError))

	_, found := c.CurrentPhase()
	t.False(found)

	o := t.perform(c, base.ActionOpenProposalsRegistration, base.Payload{})
	t.Equal(OutcomeRejected, o.Kind)
	t.Equal(workflow.DenialNoSession, o.Denial)
	t.Equal(uint64(0), t.lg.Submissions())
}

func (t *testController) TestBootstrapUnreachable() {
	t.lg.SetUnreachable(true)

	c := NewController(t.lg, t.ids)
	err := c.Start(context.Background())
	t.True(errors.Is(err, LedgerUnreachableError))
	t.True(errors.Is(c.BootstrapError(), LedgerUnreachableError))

	o := t.perform(c, base.ActionRegisterVoter, base.Payload{Voter: alice})
	t.Equal(OutcomeRejected, o.Kind)
	t.Equal(workflow.DenialNoSession, o.Denial)

	t.lg.SetUnreachable(false)
	t.NoError(c.Bootstrap(context.Background()))

	ph, found := c.CurrentPhase()
	t.True(found)
	t.Equal(base.PhaseRegisteringVoters, ph)
}

func (t *testController) TestParticipantRegisterVoter() {
	c := t.newController(alice)

	o := t.perform(c, base.ActionRegisterVoter, base.Payload{Voter: bob})
	t.Equal(OutcomeRejected, o.Kind)
	t.Equal(workflow.DenialWrongRole, o.Denial)
	t.Equal(uint64(0), t.lg.Submissions())

	last, found := c.LastOutcome()
	t.True(found)
	t.Equal(o.ID, last.ID)
}

func (t *testController) TestOwnerRegisterVoterInWrongPhase() {
	t.lg.SetState(base.PhaseProposalsRegistrationStarted, nil)

	c := t.newController(owner)

	o := t.perform(c, base.ActionRegisterVoter, base.Payload{Voter: alice})
	t.Equal(OutcomeRejected, o.Kind)
	t.Equal(workflow.DenialWrongPhase, o.Denial)
	t.Equal(uint64(0), t.lg.Submissions())
}

func (t *testController) TestConfirmedAdvancesOneStep() {
	c := t.newController(owner)

	o := t.perform(c, base.ActionOpenProposalsRegistration, base.Payload{})
	t.Equal(OutcomeConfirmed, o.Kind, o.Message())
	t.Equal(base.PhaseProposalsRegistrationStarted, o.Phase)
	t.NotNil(o.Receipt)
	t.NotEmpty(o.Receipt.TxHash)

	ph, _ := c.CurrentPhase()
	t.Equal(base.PhaseProposalsRegistrationStarted, ph)

	_, pending := c.Pending()
	t.False(pending)
}

func (t *testController) TestConfirmedWithoutPhaseChange() {
	c := t.newController(owner)

	o := t.perform(c, base.ActionRegisterVoter, base.Payload{Voter: alice})
	t.Equal(OutcomeConfirmed, o.Kind, o.Message())
	t.Equal(base.PhaseRegisteringVoters, o.Phase)
}

func (t *testController) TestFailedRevertKeepsPhase() {
	t.lg.SetState(base.PhaseVotingSessionStarted, []base.Proposal{
		{ID: 1, Description: "a"},
		{ID: 2, Description: "b"},
	}, alice)
	t.lg.SetSubmitHook(func(context.Context, base.ActionKind, base.Payload, base.Address) error {
		return ledger.NewRevertError(memledger.ReasonAlreadyVoted)
	})

	c := t.newController(alice)

	o := t.perform(c, base.ActionCastVote, base.Payload{ProposalID: 1})
	t.Equal(OutcomeFailed, o.Kind)
	t.Equal(FailureLedgerRevert, o.Failure)
	t.Equal(memledger.ReasonAlreadyVoted, o.Detail)
	t.Equal(base.PhaseVotingSessionStarted, o.Phase)
	t.Contains(o.Message(), memledger.ReasonAlreadyVoted)

	ph, _ := c.CurrentPhase()
	t.Equal(base.PhaseVotingSessionStarted, ph)

	_, pending := c.Pending()
	t.False(pending)
}

func (t *testController) TestFailedUnreachable() {
	c := t.newController(owner)

	t.lg.SetUnreachable(true)

	o := t.perform(c, base.ActionOpenProposalsRegistration, base.Payload{})
	t.Equal(OutcomeFailed, o.Kind)
	t.Equal(FailureLedgerUnreachable, o.Failure)

	ph, _ := c.CurrentPhase()
	t.Equal(base.PhaseRegisteringVoters, ph)

	_, pending := c.Pending()
	t.False(pending)
}

func (t *testController) TestInvalidPayload() {
	c := t.newController(owner)

	o := t.perform(c, base.ActionRegisterVoter, base.Payload{Voter: "0xnothex"})
	t.Equal(OutcomeRejected, o.Kind)
	t.Equal(workflow.DenialInvalidPayload, o.Denial)

	t.lg.SetState(base.PhaseProposalsRegistrationStarted, nil, owner)
	t.NoError(c.Bootstrap(context.Background()))

	o = t.perform(c, base.ActionSubmitProposal, base.Payload{Description: "  \t"})
	t.Equal(OutcomeRejected, o.Kind)
	t.Equal(workflow.DenialInvalidPayload, o.Denial)

	t.lg.SetState(base.PhaseVotingSessionStarted, []base.Proposal{
		{ID: 1, Description: "a"},
		{ID: 2, Description: "b"},
	}, owner)
	t.NoError(c.Bootstrap(context.Background()))

	o = t.perform(c, base.ActionCastVote, base.Payload{ProposalID: 0})
	t.Equal(workflow.DenialInvalidPayload, o.Denial)

	o = t.perform(c, base.ActionCastVote, base.Payload{ProposalID: 3})
	t.Equal(workflow.DenialInvalidPayload, o.Denial)

	t.Equal(uint64(0), t.lg.Submissions())
}

func (t *testController) TestAlreadyVotedLocally() {
	t.lg.SetState(base.PhaseVotingSessionStarted, []base.Proposal{
		{ID: 1, Description: "a"},
	}, alice)

	c := t.newController(alice)

	o := t.perform(c, base.ActionCastVote, base.Payload{ProposalID: 1})
	t.Equal(OutcomeConfirmed, o.Kind, o.Message())

	o = t.perform(c, base.ActionCastVote, base.Payload{ProposalID: 1})
	t.Equal(OutcomeRejected, o.Kind)
	t.Equal(workflow.DenialAlreadyVoted, o.Denial)
	t.Equal(uint64(1), t.lg.Submissions())
}

func (t *testController) blockingHook() (chan struct{}, chan struct{}) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})

	t.lg.SetSubmitHook(func(ctx context.Context, _ base.ActionKind, _ base.Payload, _ base.Address) error {
		entered <- struct{}{}

		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	return entered, release
}

func (t *testController) TestOnePendingSubmission() {
	entered, release := t.blockingHook()

	c := t.newController(owner)

	done := make(chan Outcome)
	go func() {
		done <- t.perform(c, base.ActionOpenProposalsRegistration, base.Payload{})
	}()

	select {
	case <-entered:
	case <-time.After(time.Second * 3):
		t.NoError(errors.Errorf("submission did not reach ledger"))

		return
	}

	p, pending := c.Pending()
	t.True(pending)
	t.Equal(base.ActionOpenProposalsRegistration, p.Action)

	o := t.perform(c, base.ActionRegisterVoter, base.Payload{Voter: alice})
	t.Equal(OutcomeRejected, o.Kind)
	t.Equal(workflow.DenialSubmissionAlreadyPending, o.Denial)

	close(release)

	o = <-done
	t.Equal(OutcomeConfirmed, o.Kind, o.Message())
	t.Equal(p.ID, o.ID)
	t.Equal(uint64(1), t.lg.Submissions())

	_, pending = c.Pending()
	t.False(pending)
}

func (t *testController) TestIdentityChangeResetsSession() {
	entered, release := t.blockingHook()

	c := t.newController(owner)

	role, _ := c.CurrentRole()
	t.Equal(base.RoleOwner, role)

	done := make(chan Outcome)
	go func() {
		done <- t.perform(c, base.ActionOpenProposalsRegistration, base.Payload{})
	}()

	<-entered

	t.ids.Switch(alice)

	role, found := c.CurrentRole()
	t.True(found)
	t.Equal(base.RoleParticipant, role)

	_, pending := c.Pending()
	t.False(pending)

	close(release)

	o := <-done
	t.Equal(OutcomeConfirmed, o.Kind)
	t.Equal(owner, o.Caller)

	_, found = c.LastOutcome()
	t.False(found)

	v := c.View()
	t.Equal(alice, v.Caller)
	t.Equal(base.PhaseRegisteringVoters, v.Phase)
}

func (t *testController) TestIdentityCleared() {
	c := t.newController(owner)

	t.ids.Clear()

	_, found := c.CurrentRole()
	t.False(found)
	t.True(errors.Is(c.BootstrapError(), NoIdentityError))
}

func (t *testController) TestRefresh() {
	c := t.newController(alice)

	_, err := t.lg.Submit(context.Background(), base.ActionOpenProposalsRegistration, base.Payload{}, owner)
	t.NoError(err)

	ph, _ := c.CurrentPhase()
	t.Equal(base.PhaseRegisteringVoters, ph)

	t.NoError(c.Refresh(context.Background()))

	ph, _ = c.CurrentPhase()
	t.Equal(base.PhaseProposalsRegistrationStarted, ph)

	t.lg.SetState(base.PhaseRegisteringVoters, nil)
	t.NoError(c.Refresh(context.Background()))

	ph, _ = c.CurrentPhase()
	t.Equal(base.PhaseProposalsRegistrationStarted, ph)
}

func (t *testController) TestRefreshUnreachable() {
	c := t.newController(alice)

	t.lg.SetUnreachable(true)

	err := c.Refresh(context.Background())
	t.True(errors.Is(err, LedgerUnreachableError))

	ph, found := c.CurrentPhase()
	t.True(found)
	t.Equal(base.PhaseRegisteringVoters, ph)
}

func (t *testController) TestWinner() {
	t.lg.SetState(base.PhaseVotesTallied, []base.Proposal{
		{ID: 1, Description: "a", VoteCount: 2},
		{ID: 2, Description: "b", VoteCount: 3},
		{ID: 3, Description: "c", VoteCount: 3},
	}, alice)

	c := t.newController(alice)

	wr, err := c.Winner(context.Background())
	t.NoError(err)
	t.Equal(uint64(2), wr.ID)
	t.Equal("Winning proposal #2: b (3 votes)", wr.String())

	o := t.perform(c, base.ActionReadWinner, base.Payload{})
	t.Equal(OutcomeConfirmed, o.Kind)
	t.NotNil(o.Winner)
	t.Equal(uint64(2), o.Winner.ID)
	t.Equal(wr.String(), o.Message())
}

func (t *testController) TestWinnerBeforeTallied() {
	t.lg.SetState(base.PhaseVotingSessionEnded, []base.Proposal{
		{ID: 1, Description: "a", VoteCount: 2},
	}, alice)

	c := t.newController(alice)

	_, err := c.Winner(context.Background())

	var de DeniedError
	t.True(errors.As(err, &de))
	t.Equal(workflow.DenialWrongPhase, de.Decision.Denial)

	o := t.perform(c, base.ActionReadWinner, base.Payload{})
	t.Equal(OutcomeRejected, o.Kind)
	t.Equal(workflow.DenialWrongPhase, o.Denial)
}

func (t *testController) TestWinnerNoProposals() {
	t.lg.SetState(base.PhaseVotesTallied, nil, alice)

	c := t.newController(alice)

	_, err := c.Winner(context.Background())
	t.True(errors.Is(err, NoProposalsError))

	o := t.perform(c, base.ActionReadWinner, base.Payload{})
	t.Equal(OutcomeFailed, o.Kind)
	t.Equal(FailureNoProposals, o.Failure)
	t.Equal(workflow.DenialNone, o.Denial)
	t.Nil(o.Winner)
	t.Contains(o.Message(), "no proposals")

	last, found := c.LastOutcome()
	t.True(found)
	t.Equal(o.ID, last.ID)
}

func (t *testController) TestJournal() {
	j := &memJournal{}

	t.ids.Switch(alice)

	c := NewController(t.lg, t.ids).SetJournal(j)
	t.NoError(c.Start(context.Background()))

	_ = t.perform(c, base.ActionRegisterVoter, base.Payload{Voter: bob})

	t.ids.Switch(owner)

	_ = t.perform(c, base.ActionRegisterVoter, base.Payload{Voter: bob})

	t.Equal(2, j.Len())
	t.Equal(OutcomeRejected, j.outcomes[0].Kind)
	t.Equal(OutcomeConfirmed, j.outcomes[1].Kind)

	o := t.perform(c, base.ActionReadWinner, base.Payload{})
	t.Equal(OutcomeRejected, o.Kind)
	t.Equal(workflow.DenialWrongPhase, o.Denial)

	t.Equal(3, j.Len())
	t.Equal(o.ID, j.outcomes[2].ID)
	t.Equal(base.ActionReadWinner, j.outcomes[2].Action)
}

func (t *testController) TestJournalReadWinner() {
	t.lg.SetState(base.PhaseVotesTallied, []base.Proposal{
		{ID: 1, Description: "a", VoteCount: 1},
	}, alice)

	j := &memJournal{}

	t.ids.Switch(alice)

	c := NewController(t.lg, t.ids).SetJournal(j)
	t.NoError(c.Start(context.Background()))

	o := t.perform(c, base.ActionReadWinner, base.Payload{})
	t.Equal(OutcomeConfirmed, o.Kind)

	t.lg.SetState(base.PhaseVotesTallied, nil, alice)

	o = t.perform(c, base.ActionReadWinner, base.Payload{})
	t.Equal(FailureNoProposals, o.Failure)

	t.lg.SetUnreachable(true)
	t.Error(c.Bootstrap(context.Background()))

	o = t.perform(c, base.ActionReadWinner, base.Payload{})
	t.Equal(workflow.DenialNoSession, o.Denial)

	t.Equal(3, j.Len())
	t.Equal(OutcomeConfirmed, j.outcomes[0].Kind)
	t.Equal(OutcomeFailed, j.outcomes[1].Kind)
	t.Equal(OutcomeRejected, j.outcomes[2].Kind)
}

func (t *testController) TestOutcomeLogLevels() {
	var bf bytes.Buffer

	c := t.newController(owner)
	_ = c.SetLogger(zerolog.New(&bf).Level(zerolog.InfoLevel))

	o := t.perform(c, base.ActionRegisterVoter, base.Payload{Voter: alice})
	t.True(o.IsConfirmed())
	t.Empty(bf.String())

	o = t.perform(c, base.ActionTallyVotes, base.Payload{})
	t.Equal(OutcomeRejected, o.Kind)
	t.Contains(bf.String(), `"level":"info"`)
	t.Contains(bf.String(), "action rejected")

	bf.Reset()

	t.lg.SetUnreachable(true)

	o = t.perform(c, base.ActionOpenProposalsRegistration, base.Payload{})
	t.Equal(OutcomeFailed, o.Kind)
	t.Contains(bf.String(), `"level":"error"`)
	t.Contains(bf.String(), "submission failed")
}

func (t *testController) TestWholeWorkflow() {
	c := t.newController(owner)

	steps := []struct {
		action  base.ActionKind
		payload base.Payload
		phase   base.Phase
	}{
		{action: base.ActionRegisterVoter, payload: base.Payload{Voter: owner}, phase: base.PhaseRegisteringVoters},
		{action: base.ActionRegisterVoter, payload: base.Payload{Voter: alice}, phase: base.PhaseRegisteringVoters},
		{action: base.ActionOpenProposalsRegistration, phase: base.PhaseProposalsRegistrationStarted},
		{action: base.ActionSubmitProposal, payload: base.Payload{Description: "a"}, phase: base.PhaseProposalsRegistrationStarted},
		{action: base.ActionSubmitProposal, payload: base.Payload{Description: "b"}, phase: base.PhaseProposalsRegistrationStarted},
		{action: base.ActionCloseProposalsRegistration, phase: base.PhaseProposalsRegistrationEnded},
		{action: base.ActionOpenVotingSession, phase: base.PhaseVotingSessionStarted},
		{action: base.ActionCastVote, payload: base.Payload{ProposalID: 2}, phase: base.PhaseVotingSessionStarted},
		{action: base.ActionCloseVotingSession, phase: base.PhaseVotingSessionEnded},
		{action: base.ActionTallyVotes, phase: base.PhaseVotesTallied},
	}

	for i := range steps {
		s := steps[i]

		o := t.perform(c, s.action, s.payload)
		t.Equal(OutcomeConfirmed, o.Kind, "step #%d: %s", i, o.Message())
		t.Equal(s.phase, o.Phase, "step #%d", i)
	}

	o := t.perform(c, base.ActionReadWinner, base.Payload{})
	t.Equal(OutcomeConfirmed, o.Kind, o.Message())
	t.Equal("Winning proposal #2: b (1 votes)", o.Message())

	ps, err := c.Proposals(context.Background())
	t.NoError(err)
	t.Equal(2, len(ps))
	t.Equal(2, c.View().Proposals)
}

func TestController(t *testing.T) {
	suite.Run(t, new(testController))
}
