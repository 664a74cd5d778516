package network

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	etherCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/identity"
	memledger "github.com/spikeekips/mitum-voting/ledger/memory"
	"github.com/spikeekips/mitum-voting/session"
	leveldbstorage "github.com/spikeekips/mitum-voting/storage/leveldb"
	"github.com/spikeekips/mitum-voting/util"
	"github.com/stretchr/testify/suite"
	"github.com/ulule/limiter/v3"
)

type testHandlers struct {
	suite.Suite
	kr      *identity.KeyRing
	owner   base.Address
	other   base.Address
	lg      *memledger.Ledger
	journal *leveldbstorage.Journal
	ctrl    *session.Controller
	hd      *Handlers
}

func (t *testHandlers) SetupTest() {
	var keys []string
	for i := 0; i < 2; i++ {
		pk, err := etherCrypto.GenerateKey()
		t.NoError(err)

		keys = append(keys, hexutil.Encode(etherCrypto.FromECDSA(pk)))
	}

	kr, err := identity.NewKeyRing(keys)
	t.NoError(err)

	t.kr = kr
	t.owner = kr.Addresses()[0]
	t.other = kr.Addresses()[1]

	t.lg = memledger.New(t.owner)
	t.journal = leveldbstorage.NewMemJournal()

	t.ctrl = session.NewController(t.lg, t.kr).SetJournal(t.journal)
	t.NoError(t.ctrl.Start(context.Background()))

	t.hd = NewHandlers(t.ctrl).SetJournal(t.journal).SetIdentitySelector(t.kr)
}

func (t *testHandlers) TearDownTest() {
	_ = t.journal.Close()
}

func (t *testHandlers) request(method, path string, body interface{}) *http.Response {
	var r io.Reader
	if body != nil {
		b, err := util.JSONMarshal(body)
		t.NoError(err)

		r = bytes.NewReader(b)
	}

	w := httptest.NewRecorder()
	t.hd.Handler().ServeHTTP(w, httptest.NewRequest(method, path, r))

	return w.Result()
}

func (t *testHandlers) decode(res *http.Response) map[string]interface{} {
	b, err := io.ReadAll(res.Body)
	t.NoError(err)

	var m map[string]interface{}
	t.NoError(util.JSONUnmarshal(b, &m), string(b))

	return m
}

func (t *testHandlers) problem(res *http.Response) Problem {
	pr, err := loadProblem(res)
	t.NoError(err)

	return pr
}

func (t *testHandlers) TestSession() {
	res := t.request(http.MethodGet, HandlerPathSession, nil)
	t.Equal(http.StatusOK, res.StatusCode)
	t.Equal(JSONMimetype, res.Header.Get("Content-Type"))

	m := t.decode(res)
	t.Equal(true, m["bootstrapped"])
	t.Equal("RegisteringVoters", m["phase"])
	t.Equal("Owner", m["role"])
	t.Equal(t.owner.String(), m["caller"])
}

func (t *testHandlers) TestNoOutcomeYet() {
	res := t.request(http.MethodGet, HandlerPathOutcome, nil)
	t.Equal(http.StatusNotFound, res.StatusCode)

	pr := t.problem(res)
	t.Equal(ProblemTypeNotFound, pr.Type())
}

func (t *testHandlers) TestPerformConfirmed() {
	res := t.request(http.MethodPost, "/actions/OpenProposalsRegistration", nil)
	t.Equal(http.StatusOK, res.StatusCode)

	m := t.decode(res)
	t.Equal("Confirmed", m["kind"])
	t.Equal("ProposalsRegistrationStarted", m["phase"])
	t.NotEmpty(m["message"])

	res = t.request(http.MethodGet, HandlerPathOutcome, nil)
	t.Equal(http.StatusOK, res.StatusCode)

	o := t.decode(res)
	t.Equal(m["id"], o["id"])
}

func (t *testHandlers) TestPerformWithPayload() {
	res := t.request(http.MethodPost, "/actions/RegisterVoter", base.Payload{Voter: t.other})
	t.Equal(http.StatusOK, res.StatusCode)

	res = t.request(http.MethodPost, "/actions/RegisterVoter", map[string]string{"voter": "0xnothex"})
	t.Equal(http.StatusBadRequest, res.StatusCode)

	pr := t.problem(res)
	t.Equal(ProblemTypeRejected, pr.Type())
	t.Equal("InvalidPayload", pr.Title())
}

func (t *testHandlers) TestPerformWrongRole() {
	t.NoError(t.kr.Select(t.other))

	res := t.request(http.MethodPost, "/actions/RegisterVoter", base.Payload{Voter: t.other})
	t.Equal(http.StatusForbidden, res.StatusCode)

	pr := t.problem(res)
	t.Equal(ProblemTypeRejected, pr.Type())
	t.Equal("WrongRole", pr.Title())
	t.NotNil(pr.Extra()["outcome"])
	t.Equal(uint64(0), t.lg.Submissions())
}

func (t *testHandlers) TestPerformWrongPhase() {
	res := t.request(http.MethodPost, "/actions/TallyVotes", nil)
	t.Equal(http.StatusConflict, res.StatusCode)

	pr := t.problem(res)
	t.Equal("WrongPhase", pr.Title())
}

func (t *testHandlers) TestPerformFailed() {
	t.lg.SetUnreachable(true)

	res := t.request(http.MethodPost, "/actions/OpenProposalsRegistration", nil)
	t.Equal(http.StatusBadGateway, res.StatusCode)

	pr := t.problem(res)
	t.Equal(ProblemTypeLedgerUnreachable, pr.Type())
	t.Equal("LedgerUnreachable", pr.Title())
}

func (t *testHandlers) TestPerformUnknownAction() {
	res := t.request(http.MethodPost, "/actions/Shutdown", nil)
	t.Equal(http.StatusBadRequest, res.StatusCode)

	res = t.request(http.MethodGet, "/actions/OpenProposalsRegistration", nil)
	t.NotEqual(http.StatusOK, res.StatusCode)
}

func (t *testHandlers) TestWinner() {
	res := t.request(http.MethodGet, HandlerPathWinner, nil)
	t.Equal(http.StatusConflict, res.StatusCode)
	t.Equal("WrongPhase", t.problem(res).Title())

	t.lg.SetState(base.PhaseVotesTallied, []base.Proposal{
		{ID: 1, Description: "a", VoteCount: 1},
		{ID: 2, Description: "b", VoteCount: 1},
	}, t.owner)

	res = t.request(http.MethodPost, HandlerPathRefresh, nil)
	t.Equal(http.StatusOK, res.StatusCode)
	t.Equal("VotesTallied", t.decode(res)["phase"])

	res = t.request(http.MethodGet, HandlerPathWinner, nil)
	t.Equal(http.StatusOK, res.StatusCode)

	m := t.decode(res)
	t.Equal(float64(1), m["id"])
	t.Equal("Winning proposal #1: a (1 votes)", m["display"])

	res = t.request(http.MethodGet, HandlerPathProposal, nil)
	t.Equal(http.StatusOK, res.StatusCode)
}

func (t *testHandlers) TestWinnerNoProposals() {
	t.lg.SetState(base.PhaseVotesTallied, nil, t.owner)

	res := t.request(http.MethodPost, HandlerPathRefresh, nil)
	t.Equal(http.StatusOK, res.StatusCode)

	res = t.request(http.MethodGet, HandlerPathWinner, nil)
	t.Equal(http.StatusNotFound, res.StatusCode)

	pr := t.problem(res)
	t.Equal(ProblemTypeNoProposals, pr.Type())
	t.Equal("NoProposals", pr.Title())

	res = t.request(http.MethodPost, "/actions/ReadWinner", nil)
	t.Equal(http.StatusNotFound, res.StatusCode)

	pr = t.problem(res)
	t.Equal(ProblemTypeNoProposals, pr.Type())
	t.Equal("NoProposals", pr.Title())

	o, ok := pr.Extra()["outcome"].(map[string]interface{})
	t.True(ok)
	t.Equal("Failed", o["kind"])
	t.Equal("NoProposals", o["failure"])

	outcomes, err := t.journal.Outcomes(0)
	t.NoError(err)
	t.Equal(1, len(outcomes))
	t.Equal(base.ActionReadWinner, outcomes[0].Action)
}

func (t *testHandlers) TestProposalsNotVoter() {
	res := t.request(http.MethodGet, HandlerPathProposal, nil)
	t.Equal(http.StatusBadGateway, res.StatusCode)

	pr := t.problem(res)
	t.Equal(ProblemTypeLedgerRevert, pr.Type())
	t.Equal(memledger.ReasonNotVoter, pr.Detail())
}

func (t *testHandlers) TestIdentity() {
	res := t.request(http.MethodGet, HandlerPathIdentity, nil)
	t.Equal(http.StatusOK, res.StatusCode)

	res = t.request(http.MethodPost, HandlerPathIdentity, map[string]string{"address": t.other.String()})
	t.Equal(http.StatusOK, res.StatusCode)

	m := t.decode(res)
	t.Equal(t.other.String(), m["caller"])
	t.Equal("Participant", m["role"])

	res = t.request(http.MethodPost, HandlerPathIdentity,
		map[string]string{"address": "0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db"})
	t.Equal(http.StatusNotFound, res.StatusCode)
}

func (t *testHandlers) TestJournal() {
	_ = t.request(http.MethodPost, "/actions/TallyVotes", nil)
	_ = t.request(http.MethodPost, "/actions/OpenProposalsRegistration", nil)

	res := t.request(http.MethodGet, HandlerPathJournal+"?limit=10", nil)
	t.Equal(http.StatusOK, res.StatusCode)

	b, err := io.ReadAll(res.Body)
	t.NoError(err)

	var l []map[string]interface{}
	t.NoError(util.JSONUnmarshal(b, &l))
	t.Equal(2, len(l))
	t.Equal("OpenProposalsRegistration", l[0]["action"])
	t.Equal("TallyVotes", l[1]["action"])

	res = t.request(http.MethodGet, "/journal/"+l[1]["id"].(string), nil)
	t.Equal(http.StatusOK, res.StatusCode)
	t.Equal("Rejected", t.decode(res)["kind"])

	res = t.request(http.MethodGet, "/journal/"+util.UUID().String(), nil)
	t.Equal(http.StatusNotFound, res.StatusCode)

	res = t.request(http.MethodGet, HandlerPathJournal+"?limit=a", nil)
	t.Equal(http.StatusBadRequest, res.StatusCode)
}

func (t *testHandlers) TestNotFound() {
	res := t.request(http.MethodGet, "/not-here", nil)
	t.Equal(http.StatusNotFound, res.StatusCode)
	t.Equal(ProblemTypeNotFound, t.problem(res).Type())
}

func (t *testHandlers) TestRateLimit() {
	rl := NewRateLimit(nil, limiter.Rate{Period: time.Minute, Limit: 1})
	t.hd = NewHandlers(t.ctrl).SetRateLimit(nil, NewRateLimitMiddleware(rl, nil))

	res := t.request(http.MethodGet, HandlerPathSession, nil)
	t.Equal(http.StatusOK, res.StatusCode)
	t.Equal("1", res.Header.Get("X-RateLimit-Limit"))

	res = t.request(http.MethodGet, HandlerPathSession, nil)
	t.Equal(http.StatusTooManyRequests, res.StatusCode)

	// perform routes are not limited
	res = t.request(http.MethodPost, "/actions/OpenProposalsRegistration", nil)
	t.Equal(http.StatusOK, res.StatusCode)
}

func (t *testHandlers) TestRateLimitTrusted() {
	_, trusted, err := net.ParseCIDR("192.0.2.0/24") // httptest requests come from 192.0.2.1
	t.NoError(err)

	rl := NewRateLimit(
		[]RateLimitRule{NewRateLimitRule(trusted, NoLimitRate)},
		limiter.Rate{Period: time.Minute, Limit: 1},
	)
	t.hd = NewHandlers(t.ctrl).SetRateLimit(nil, NewRateLimitMiddleware(rl, nil))

	for i := 0; i < 3; i++ {
		res := t.request(http.MethodGet, HandlerPathSession, nil)
		t.Equal(http.StatusOK, res.StatusCode)
		t.Equal("unlimited", res.Header.Get("X-RateLimit-Limit"))
	}

	forwarded := func() *http.Response {
		r := httptest.NewRequest(http.MethodGet, HandlerPathSession, nil)
		r.Header.Set("X-Forwarded-For", "198.51.100.7")

		w := httptest.NewRecorder()
		t.hd.Handler().ServeHTTP(w, r)

		return w.Result()
	}

	t.Equal(http.StatusOK, forwarded().StatusCode)
	t.Equal(http.StatusTooManyRequests, forwarded().StatusCode)
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(testHandlers))
}
