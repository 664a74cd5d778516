package network

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/identity"
	"github.com/spikeekips/mitum-voting/ledger"
	"github.com/spikeekips/mitum-voting/session"
	"github.com/spikeekips/mitum-voting/util"
	"github.com/spikeekips/mitum-voting/util/logging"
	"github.com/spikeekips/mitum-voting/workflow"
)

var (
	HandlerPathSession  = "/session"
	HandlerPathOutcome  = "/outcome"
	HandlerPathAction   = "/actions/{action}"
	HandlerPathProposal = "/proposals"
	HandlerPathWinner   = "/winner"
	HandlerPathRefresh  = "/refresh"
	HandlerPathJournal  = "/journal"
	HandlerPathOutcomes = "/journal/{id}"
	HandlerPathIdentity = "/identity"
)

var DefaultJournalLimit = 20

// Controller is what the handlers drive.
type Controller interface {
	View() session.View
	LastOutcome() (session.Outcome, bool)
	Perform(context.Context, base.ActionKind, base.Payload) session.Outcome
	Proposals(context.Context) ([]base.Proposal, error)
	Winner(context.Context) (session.WinnerResult, error)
	Refresh(context.Context) error
}

type OutcomeReader interface {
	Outcomes(int) ([]session.Outcome, error)
	Outcome(string) (session.Outcome, bool, error)
}

type IdentitySelector interface {
	Addresses() []base.Address
	Select(base.Address) error
}

// Handlers serves the session over HTTP.
type Handlers struct {
	*logging.Logging
	ctrl      Controller
	journal   OutcomeReader
	selector  IdentitySelector
	performMW *RateLimitMiddleware
	readMW    *RateLimitMiddleware
	router    *mux.Router
}

func NewHandlers(ctrl Controller) *Handlers {
	return &Handlers{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "http-handlers")
		}),
		ctrl: ctrl,
	}
}

func (hd *Handlers) SetJournal(j OutcomeReader) *Handlers {
	hd.journal = j

	return hd
}

func (hd *Handlers) SetIdentitySelector(s IdentitySelector) *Handlers {
	hd.selector = s

	return hd
}

// SetRateLimit sets the middlewares; perform applies to the submissions and
// the identity switch, read to the others.
func (hd *Handlers) SetRateLimit(perform, read *RateLimitMiddleware) *Handlers {
	hd.performMW = perform
	hd.readMW = read

	return hd
}

func (hd *Handlers) Router() *mux.Router {
	if hd.router != nil {
		return hd.router
	}

	router := mux.NewRouter()

	hd.setHandler(router, HandlerPathSession, hd.handleSession, hd.readMW).Methods(http.MethodGet)
	hd.setHandler(router, HandlerPathOutcome, hd.handleOutcome, hd.readMW).Methods(http.MethodGet)
	hd.setHandler(router, HandlerPathAction, hd.handleAction, hd.performMW).Methods(http.MethodPost)
	hd.setHandler(router, HandlerPathProposal, hd.handleProposals, hd.readMW).Methods(http.MethodGet)
	hd.setHandler(router, HandlerPathWinner, hd.handleWinner, hd.readMW).Methods(http.MethodGet)
	hd.setHandler(router, HandlerPathRefresh, hd.handleRefresh, hd.readMW).Methods(http.MethodPost)
	hd.setHandler(router, HandlerPathJournal, hd.handleJournal, hd.readMW).Methods(http.MethodGet)
	hd.setHandler(router, HandlerPathOutcomes, hd.handleJournalOutcome, hd.readMW).Methods(http.MethodGet)
	hd.setHandler(router, HandlerPathIdentity, hd.handleIdentities, hd.readMW).Methods(http.MethodGet)
	hd.setHandler(router, HandlerPathIdentity, hd.handleIdentity, hd.performMW).Methods(http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(w, http.StatusNotFound, NewProblem(ProblemTypeNotFound, "not found").SetDetail(r.URL.Path))
	})

	hd.router = router

	return router
}

// Handler is the router with access logging.
func (hd *Handlers) Handler() http.Handler {
	return HTTPLogHandler(hd.Router(), hd.Log())
}

func (*Handlers) setHandler(
	router *mux.Router, path string, f HTTPHandlerFunc, mw *RateLimitMiddleware,
) *mux.Route {
	var handler http.Handler = http.HandlerFunc(f)
	if mw != nil {
		handler = mw.Middleware(handler)
	}

	return router.Handle(path, handler)
}

func (hd *Handlers) handleSession(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, hd.ctrl.View())
}

func (hd *Handlers) handleOutcome(w http.ResponseWriter, _ *http.Request) {
	o, found := hd.ctrl.LastOutcome()
	if !found {
		WriteProblem(w, http.StatusNotFound, NewProblem(ProblemTypeNotFound, "no outcome yet"))

		return
	}

	WriteJSON(w, http.StatusOK, outcomeBody(o))
}

func (hd *Handlers) handleAction(w http.ResponseWriter, r *http.Request) {
	action, err := base.ActionFromString(mux.Vars(r)["action"])
	if err != nil {
		WriteProblem(w, http.StatusBadRequest, NewProblem(ProblemTypeBadRequest, "unknown action").SetDetail(err.Error()))

		return
	}

	var payload base.Payload

	switch b, err := io.ReadAll(r.Body); {
	case err != nil:
		WriteProblemWithError(w, http.StatusBadRequest, err)

		return
	case len(strings.TrimSpace(string(b))) > 0:
		if err := util.JSONUnmarshal(b, &payload); err != nil {
			WriteProblem(w, http.StatusBadRequest,
				NewProblem(ProblemTypeBadRequest, "invalid payload").SetDetail(err.Error()))

			return
		}
	}

	o := hd.ctrl.Perform(r.Context(), action, payload)

	hd.writeOutcome(w, o)
}

func (*Handlers) writeOutcome(w http.ResponseWriter, o session.Outcome) {
	switch o.Kind {
	case session.OutcomeConfirmed:
		WriteJSON(w, http.StatusOK, outcomeBody(o))
	case session.OutcomeRejected:
		t := ProblemTypeRejected
		if o.Denial == workflow.DenialNoSession {
			t = ProblemTypeNoSession
		}

		WriteProblem(w, denialStatus(o.Denial),
			NewProblem(t, o.Denial.String()).SetDetail(o.Detail).AddExtra("outcome", outcomeBody(o)))
	default:
		status, t := http.StatusBadGateway, ProblemTypeLedgerUnreachable

		switch o.Failure {
		case session.FailureLedgerRevert:
			t = ProblemTypeLedgerRevert
		case session.FailureNoProposals:
			status, t = http.StatusNotFound, ProblemTypeNoProposals
		}

		WriteProblem(w, status,
			NewProblem(t, o.Failure.String()).SetDetail(o.Detail).AddExtra("outcome", outcomeBody(o)))
	}
}

func (hd *Handlers) handleProposals(w http.ResponseWriter, r *http.Request) {
	ps, err := hd.ctrl.Proposals(r.Context())
	if err != nil {
		hd.writeError(w, err)

		return
	}

	WriteJSON(w, http.StatusOK, ps)
}

func (hd *Handlers) handleWinner(w http.ResponseWriter, r *http.Request) {
	wr, err := hd.ctrl.Winner(r.Context())
	if err != nil {
		hd.writeError(w, err)

		return
	}

	WriteJSON(w, http.StatusOK, winnerBody{WinnerResult: wr, Display: wr.String()})
}

func (hd *Handlers) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := hd.ctrl.Refresh(r.Context()); err != nil {
		hd.writeError(w, err)

		return
	}

	WriteJSON(w, http.StatusOK, hd.ctrl.View())
}

func (hd *Handlers) handleJournal(w http.ResponseWriter, r *http.Request) {
	if hd.journal == nil {
		WriteProblem(w, http.StatusNotFound, NewProblem(ProblemTypeNotFound, "journal not enabled"))

		return
	}

	limit := DefaultJournalLimit
	if s := r.URL.Query().Get("limit"); len(s) > 0 {
		i, err := strconv.Atoi(s)
		if err != nil {
			WriteProblem(w, http.StatusBadRequest, NewProblem(ProblemTypeBadRequest, "invalid limit").SetDetail(s))

			return
		}

		limit = i
	}

	outcomes, err := hd.journal.Outcomes(limit)
	if err != nil {
		WriteProblemWithError(w, http.StatusInternalServerError, err)

		return
	}

	bodies := make([]outcomeJSON, len(outcomes))
	for i := range outcomes {
		bodies[i] = outcomeBody(outcomes[i])
	}

	WriteJSON(w, http.StatusOK, bodies)
}

func (hd *Handlers) handleJournalOutcome(w http.ResponseWriter, r *http.Request) {
	if hd.journal == nil {
		WriteProblem(w, http.StatusNotFound, NewProblem(ProblemTypeNotFound, "journal not enabled"))

		return
	}

	id := mux.Vars(r)["id"]

	switch o, found, err := hd.journal.Outcome(id); {
	case err != nil:
		WriteProblemWithError(w, http.StatusInternalServerError, err)
	case !found:
		WriteProblem(w, http.StatusNotFound, NewProblem(ProblemTypeNotFound, "outcome not found").SetDetail(id))
	default:
		WriteJSON(w, http.StatusOK, outcomeBody(o))
	}
}

func (hd *Handlers) handleIdentities(w http.ResponseWriter, _ *http.Request) {
	if hd.selector == nil {
		WriteProblem(w, http.StatusNotFound, NewProblem(ProblemTypeNotFound, "identity switching not enabled"))

		return
	}

	WriteJSON(w, http.StatusOK, hd.selector.Addresses())
}

func (hd *Handlers) handleIdentity(w http.ResponseWriter, r *http.Request) {
	if hd.selector == nil {
		WriteProblem(w, http.StatusNotFound, NewProblem(ProblemTypeNotFound, "identity switching not enabled"))

		return
	}

	var body struct {
		Address base.Address `json:"address"`
	}

	b, err := io.ReadAll(r.Body)
	if err == nil {
		err = util.JSONUnmarshal(b, &body)
	}

	if err != nil {
		WriteProblem(w, http.StatusBadRequest, NewProblem(ProblemTypeBadRequest, "invalid body").SetDetail(err.Error()))

		return
	}

	if err := hd.selector.Select(body.Address); err != nil {
		if errors.Is(err, identity.UnknownKeyError) {
			WriteProblem(w, http.StatusNotFound, NewProblem(ProblemTypeNotFound, "unknown identity").SetDetail(err.Error()))

			return
		}

		WriteProblemWithError(w, http.StatusBadRequest, err)

		return
	}

	WriteJSON(w, http.StatusOK, hd.ctrl.View())
}

func (hd *Handlers) writeError(w http.ResponseWriter, err error) {
	var de session.DeniedError

	switch {
	case errors.As(err, &de):
		WriteProblem(w, denialStatus(de.Decision.Denial),
			NewProblem(ProblemTypeRejected, de.Decision.Denial.String()).SetDetail(de.Decision.Reason))
	case errors.Is(err, session.NotBootstrappedError):
		WriteProblem(w, http.StatusServiceUnavailable,
			NewProblem(ProblemTypeNoSession, "session not bootstrapped").SetDetail(err.Error()))
	case errors.Is(err, session.NoProposalsError):
		WriteProblem(w, http.StatusNotFound,
			NewProblem(ProblemTypeNoProposals, session.FailureNoProposals.String()).SetDetail(err.Error()))
	default:
		if reason, ok := ledger.IsRevert(err); ok {
			WriteProblem(w, http.StatusBadGateway, NewProblem(ProblemTypeLedgerRevert, "ledger reverted").SetDetail(reason))

			return
		}

		hd.Log().Error().Err(err).Msg("failed to read ledger")

		WriteProblem(w, http.StatusBadGateway,
			NewProblem(ProblemTypeLedgerUnreachable, "ledger unreachable").SetDetail(err.Error()))
	}
}

func denialStatus(d workflow.Denial) int {
	switch d {
	case workflow.DenialWrongRole:
		return http.StatusForbidden
	case workflow.DenialInvalidPayload:
		return http.StatusBadRequest
	case workflow.DenialNoSession:
		return http.StatusServiceUnavailable
	default:
		return http.StatusConflict
	}
}

type outcomeJSON struct {
	session.Outcome
	Message string `json:"message"`
}

func outcomeBody(o session.Outcome) outcomeJSON {
	return outcomeJSON{Outcome: o, Message: o.Message()}
}

type winnerBody struct {
	session.WinnerResult
	Display string `json:"display"`
}
