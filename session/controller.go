package session

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/identity"
	"github.com/spikeekips/mitum-voting/ledger"
	"github.com/spikeekips/mitum-voting/util"
	"github.com/spikeekips/mitum-voting/util/localtime"
	"github.com/spikeekips/mitum-voting/util/logging"
	"github.com/spikeekips/mitum-voting/workflow"
	"golang.org/x/sync/singleflight"
)

// Journal keeps the outcomes.
type Journal interface {
	Append(Outcome) error
}

// Controller serializes the actions of the current caller against the
// ledger. At most one submission is pending at any time; a new caller always
// starts from a fresh session.
type Controller struct {
	sync.RWMutex
	*logging.Logging
	client     ledger.Client
	ids        identity.Provider
	bootstrap  *Bootstrap
	aggregator *Aggregator
	journal    Journal
	state      *State
	bootErr    error
	last       *Outcome
	generation uint64
	sf         singleflight.Group
	startOnce  sync.Once
}

func NewController(client ledger.Client, ids identity.Provider) *Controller {
	return &Controller{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "session-controller")
		}),
		client:     client,
		ids:        ids,
		bootstrap:  NewBootstrap(client, ids),
		aggregator: NewAggregator(nil),
		bootErr:    NotBootstrappedError.Call(),
	}
}

func (c *Controller) SetLogging(l *logging.Logging) *logging.Logging {
	_ = c.bootstrap.SetLogging(l)
	_ = c.aggregator.SetLogging(l)

	return c.Logging.SetLogging(l)
}

func (c *Controller) SetAggregator(ag *Aggregator) *Controller {
	_ = ag.SetLogging(c.Logging)
	c.aggregator = ag

	return c
}

func (c *Controller) SetJournal(j Journal) *Controller {
	c.journal = j

	return c
}

// Start bootstraps the session and follows the identity changes from now on.
func (c *Controller) Start(ctx context.Context) error {
	c.startOnce.Do(func() {
		c.ids.OnIdentityChanged(func(a base.Address) {
			c.Log().Debug().Str("caller", a.String()).Msg("identity changed; session will be bootstrapped again")

			if err := c.Bootstrap(ctx); err != nil {
				c.Log().Error().Err(err).Msg("failed to bootstrap session after identity changed")
			}
		})
	})

	return c.Bootstrap(ctx)
}

// Bootstrap drops the current session and builds a new one from the ledger.
// When it fails the controller stays without session and every action is
// rejected until the next successful Bootstrap.
func (c *Controller) Bootstrap(ctx context.Context) error {
	c.Lock()
	c.generation++
	gen := c.generation
	c.state = nil
	c.last = nil
	c.bootErr = NotBootstrappedError.Errorf("bootstrapping")
	c.Unlock()

	st, err := c.bootstrap.Initialize(ctx)

	c.Lock()
	defer c.Unlock()

	if gen != c.generation {
		c.Log().Debug().Msg("session was replaced while bootstrapping; result ignored")

		return nil
	}

	if err != nil {
		c.bootErr = err

		return err
	}

	c.state = st
	c.bootErr = nil

	return nil
}

// Perform runs one action. It never returns error; every result, including the
// rejections, is an Outcome.
func (c *Controller) Perform(ctx context.Context, action base.ActionKind, payload base.Payload) Outcome {
	if action == base.ActionReadWinner {
		return c.performReadWinner(ctx)
	}

	c.Lock()
	st := c.state
	if st == nil {
		o := c.rejectWithoutSession(action)
		c.Unlock()

		c.Log().Info().Stringer("action", action).Msg("action rejected; no session")

		c.record(o)

		return o
	}

	if d := c.check(st, action, payload); !d.Allowed() {
		o := c.newOutcome(st, action)
		o.Kind = OutcomeRejected
		o.Denial = d.Denial
		o.Detail = d.Reason
		c.last = &o
		c.Unlock()

		c.Log().Info().Stringer("action", action).Stringer("denial", d.Denial).Str("reason", d.Reason).
			Msg("action rejected")

		c.record(o)

		return o
	}

	from := st.phase
	st.pending = &PendingSubmission{
		ID:          util.UUID().String(),
		Action:      action,
		SubmittedAt: localtime.UTCNow(),
	}
	pending := *st.pending
	caller := st.caller
	c.Unlock()

	l := c.Log().With().Str("submission", pending.ID).Stringer("action", action).Logger()
	l.Debug().Interface("payload", payload).Str("caller", caller.String()).Msg("submitting")

	receipt, err := c.client.Submit(ctx, action, payload, caller)

	c.Lock()
	st.pending = nil

	o := c.newOutcome(st, action)
	o.ID = pending.ID

	if err != nil {
		o.Kind = OutcomeFailed
		o.Failure, o.Detail = classifyFailure(err)
	} else {
		c.applyConfirmed(st, from, action, payload)

		o.Kind = OutcomeConfirmed
		o.Receipt = &receipt
	}

	o.Phase = st.phase

	if c.state == st {
		c.last = &o
	} else {
		l.Debug().Msg("session was replaced while submitting")
	}
	c.Unlock()

	switch o.Kind {
	case OutcomeConfirmed:
		l.Debug().Uint64("block", receipt.BlockNumber).Stringer("phase", o.Phase).Msg("submission confirmed")
	default:
		l.Error().Err(err).Stringer("failure", o.Failure).Msg("submission failed")
	}

	c.record(o)

	return o
}

func (c *Controller) check(st *State, action base.ActionKind, payload base.Payload) workflow.Decision {
	if d := workflow.IsAllowed(st.snapshot(), action); !d.Allowed() {
		return d
	}

	return validatePayload(st, action, payload)
}

// applyConfirmed moves the session forward after the ledger accepted the
// action. The phase only moves to the next of the phase the action was
// allowed in, so a refresh which already caught up is not skipped over.
func (*Controller) applyConfirmed(st *State, from base.Phase, action base.ActionKind, payload base.Payload) {
	if action.AdvancesPhase() {
		if next, ok := from.Next(); ok && next > st.phase {
			st.phase = next
		}
	}

	switch action {
	case base.ActionRegisterVoter:
		if payload.Voter.Equal(st.caller) {
			st.voter.Known = true
			st.voter.Registered = true
		}
	case base.ActionCastVote:
		st.voter.Known = true
		st.voter.Registered = true
		st.voter.HasVoted = true
		st.voter.VotedProposalID = payload.ProposalID
	}
}

func (c *Controller) rejectWithoutSession(action base.ActionKind) Outcome {
	o := Outcome{
		ID:     util.UUID().String(),
		Kind:   OutcomeRejected,
		Action: action,
		Denial: workflow.DenialNoSession,
		At:     localtime.UTCNow(),
	}

	if c.bootErr != nil {
		o.Detail = c.bootErr.Error()
	}

	return o
}

func (*Controller) newOutcome(st *State, action base.ActionKind) Outcome {
	return Outcome{
		ID:     util.UUID().String(),
		Action: action,
		Caller: st.caller,
		Phase:  st.phase,
		At:     localtime.UTCNow(),
	}
}

func (c *Controller) record(o Outcome) {
	if c.journal == nil {
		return
	}

	if err := c.journal.Append(o); err != nil {
		c.Log().Error().Err(err).Str("outcome", o.ID).Msg("failed to journal outcome")
	}
}

func (c *Controller) performReadWinner(ctx context.Context) Outcome {
	c.RLock()
	st := c.state
	if st == nil {
		o := c.rejectWithoutSession(base.ActionReadWinner)
		c.RUnlock()

		c.record(o)

		return o
	}

	o := c.newOutcome(st, base.ActionReadWinner)
	c.RUnlock()

	wr, err := c.Winner(ctx)

	var de DeniedError

	switch {
	case err == nil:
		o.Kind = OutcomeConfirmed
		o.Winner = &wr
	case errors.As(err, &de):
		o.Kind = OutcomeRejected
		o.Denial = de.Decision.Denial
		o.Detail = de.Decision.Reason
	case errors.Is(err, NoProposalsError):
		o.Kind = OutcomeFailed
		o.Failure = FailureNoProposals
		o.Detail = err.Error()
	default:
		o.Kind = OutcomeFailed
		o.Failure, o.Detail = classifyFailure(err)
	}

	c.Lock()
	if c.state == st {
		c.last = &o
	}
	c.Unlock()

	switch o.Kind {
	case OutcomeConfirmed:
		c.Log().Debug().Uint64("winner", wr.ID).Msg("winner read")
	case OutcomeRejected:
		c.Log().Info().Stringer("denial", o.Denial).Str("reason", o.Detail).Msg("winner read rejected")
	default:
		c.Log().Error().Err(err).Stringer("failure", o.Failure).Msg("failed to read winner")
	}

	c.record(o)

	return o
}

// Winner reads the proposals and resolves the winner. The winner the ledger
// reports is read as well; a disagreement is only logged.
func (c *Controller) Winner(ctx context.Context) (WinnerResult, error) {
	c.RLock()
	st := c.state
	if st == nil {
		err := c.bootErr
		c.RUnlock()

		return WinnerResult{}, NotBootstrappedError.Wrap(err)
	}

	d := workflow.IsAllowed(st.snapshot(), base.ActionReadWinner)
	caller := st.caller
	c.RUnlock()

	if !d.Allowed() {
		return WinnerResult{}, DeniedError{Decision: d}
	}

	i, err, _ := c.sf.Do("winner:"+caller.Key(), func() (interface{}, error) {
		ps, err := ledger.Proposals(ctx, c.client, caller)
		if err != nil {
			return nil, err
		}

		return c.aggregator.ResolveWinner(ps)
	})
	if err != nil {
		return WinnerResult{}, err
	}

	wr := i.(WinnerResult)

	switch id, err := ledger.Winner(ctx, c.client, caller); {
	case err != nil:
		c.Log().Debug().Err(err).Msg("failed to read winner from ledger")
	case id != wr.ID:
		c.Log().Warn().Uint64("ledger", id).Uint64("resolved", wr.ID).Msg("winner does not match with ledger")
	}

	return wr, nil
}

// Proposals reads the proposals from the ledger.
func (c *Controller) Proposals(ctx context.Context) ([]base.Proposal, error) {
	c.RLock()
	st := c.state
	if st == nil {
		err := c.bootErr
		c.RUnlock()

		return nil, NotBootstrappedError.Wrap(err)
	}

	caller := st.caller
	phase := st.phase
	c.RUnlock()

	ps, err := ledger.Proposals(ctx, c.client, caller)
	if err != nil {
		return nil, err
	}

	c.Lock()
	if c.state == st {
		st.setProposals(phase, len(ps))
	}
	c.Unlock()

	return ps, nil
}

// Refresh reads the owner, the phase and the voter record again. The phase of
// the session never moves backward.
func (c *Controller) Refresh(ctx context.Context) error {
	c.RLock()
	st := c.state
	if st == nil {
		err := c.bootErr
		c.RUnlock()

		return NotBootstrappedError.Wrap(err)
	}

	caller := st.caller
	c.RUnlock()

	_, err, _ := c.sf.Do("refresh:"+caller.Key(), func() (interface{}, error) {
		owner, err := ledger.Owner(ctx, c.client)
		if err != nil {
			return nil, LedgerUnreachableError.Wrap(err)
		}

		phase, err := ledger.Phase(ctx, c.client)
		if err != nil {
			return nil, LedgerUnreachableError.Wrap(err)
		}

		voter, verr := ledger.Voter(ctx, c.client, caller, caller)

		c.Lock()
		defer c.Unlock()

		if c.state != st {
			return nil, nil
		}

		st.owner = owner

		switch {
		case phase > st.phase:
			c.Log().Debug().Stringer("from", st.phase).Stringer("to", phase).Msg("phase caught up with ledger")

			st.phase = phase
		case phase < st.phase:
			c.Log().Warn().Stringer("local", st.phase).Stringer("ledger", phase).
				Msg("ledger phase is behind session; ignored")
		}

		if verr == nil {
			st.voter = voter
		}

		return nil, nil
	})

	return err
}

// View is the read-only projection of the controller.
type View struct {
	Bootstrapped bool               `json:"bootstrapped"`
	Error        string             `json:"error,omitempty"`
	Caller       base.Address       `json:"caller,omitempty"`
	Owner        base.Address       `json:"owner,omitempty"`
	Role         base.Role          `json:"role"`
	Phase        base.Phase         `json:"phase"`
	Voter        base.VoterStatus   `json:"voter"`
	Proposals    int                `json:"proposals"`
	Pending      *PendingSubmission `json:"pending,omitempty"`
	LastOutcome  *Outcome           `json:"last_outcome,omitempty"`
}

func (c *Controller) View() View {
	c.RLock()
	defer c.RUnlock()

	if c.state == nil {
		v := View{Proposals: -1}
		if c.bootErr != nil {
			v.Error = c.bootErr.Error()
		}

		return v
	}

	st := c.state

	v := View{
		Bootstrapped: true,
		Caller:       st.caller,
		Owner:        st.owner,
		Role:         st.Role(),
		Phase:        st.phase,
		Voter:        st.voter,
		Proposals:    st.proposals,
	}

	if st.pending != nil {
		p := *st.pending
		v.Pending = &p
	}

	if c.last != nil {
		o := *c.last
		v.LastOutcome = &o
	}

	return v
}

func (c *Controller) CurrentPhase() (base.Phase, bool) {
	c.RLock()
	defer c.RUnlock()

	if c.state == nil {
		return 0, false
	}

	return c.state.phase, true
}

func (c *Controller) CurrentRole() (base.Role, bool) {
	c.RLock()
	defer c.RUnlock()

	if c.state == nil {
		return base.RoleParticipant, false
	}

	return c.state.Role(), true
}

func (c *Controller) Pending() (PendingSubmission, bool) {
	c.RLock()
	defer c.RUnlock()

	if c.state == nil || c.state.pending == nil {
		return PendingSubmission{}, false
	}

	return *c.state.pending, true
}

func (c *Controller) LastOutcome() (Outcome, bool) {
	c.RLock()
	defer c.RUnlock()

	if c.last == nil {
		return Outcome{}, false
	}

	return *c.last, true
}

// BootstrapError is the reason the controller has no session.
func (c *Controller) BootstrapError() error {
	c.RLock()
	defer c.RUnlock()

	return c.bootErr
}

func validatePayload(st *State, action base.ActionKind, payload base.Payload) workflow.Decision {
	switch action {
	case base.ActionRegisterVoter:
		if err := payload.Voter.IsValid(nil); err != nil {
			return workflow.Deny(workflow.DenialInvalidPayload, "invalid voter address, %q", payload.Voter)
		}
	case base.ActionSubmitProposal:
		if len(strings.TrimSpace(payload.Description)) < 1 {
			return workflow.Deny(workflow.DenialInvalidPayload, "empty proposal description")
		}
	case base.ActionCastVote:
		switch {
		case payload.ProposalID < 1:
			return workflow.Deny(workflow.DenialInvalidPayload, "proposal id must be greater than zero")
		case st.proposals >= 0 && payload.ProposalID > uint64(st.proposals):
			return workflow.Deny(workflow.DenialInvalidPayload,
				"unknown proposal #%d; %d proposals registered", payload.ProposalID, st.proposals)
		}
	}

	return workflow.Allow()
}
