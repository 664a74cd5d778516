package network

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spikeekips/mitum-voting/util"
)

const (
	ProblemMimetype    = "application/problem+json; charset=utf-8"
	ProblemNamespace   = "https://github.com/spikeekips/mitum-voting/problems"
	DefaultProblemType = "others"
)

const (
	ProblemTypeRejected          = "rejected"
	ProblemTypeNoSession         = "no-session"
	ProblemTypeLedgerRevert      = "ledger-revert"
	ProblemTypeLedgerUnreachable = "ledger-unreachable"
	ProblemTypeNoProposals       = "no-proposals"
	ProblemTypeNotFound          = "not-found"
	ProblemTypeBadRequest        = "bad-request"
)

var (
	UnknownProblem     = NewProblem(DefaultProblemType, "unknown problem occurred")
	unknownProblemJSON = []byte(`{"type":"` + ProblemNamespace + "/" + DefaultProblemType +
		`","title":"unknown problem occurred"}`)
)

// Problem implements "Problem Details for HTTP
// APIs"<https://tools.ietf.org/html/rfc7807>.
type Problem struct {
	t      string // NOTE http problem type
	title  string
	detail string
	extra  map[string]interface{}
}

func NewProblem(t, title string) Problem {
	return Problem{t: t, title: title}
}

func NewProblemFromError(err error) Problem {
	return Problem{
		t:      DefaultProblemType,
		title:  fmt.Sprintf("%s", err),
		detail: fmt.Sprintf("%+v", err),
	}
}

func (pr Problem) Error() string {
	return pr.title
}

func (pr Problem) Type() string {
	return pr.t
}

func (pr Problem) Title() string {
	return pr.title
}

func (pr Problem) Detail() string {
	return pr.detail
}

func (pr Problem) SetDetail(detail string) Problem {
	pr.detail = detail

	return pr
}

func (pr Problem) Extra() map[string]interface{} {
	return pr.extra
}

func (pr Problem) AddExtra(k string, v interface{}) Problem {
	if pr.extra == nil {
		pr.extra = map[string]interface{}{}
	}

	pr.extra[k] = v

	return pr
}

func (pr Problem) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{}
	for k := range pr.extra {
		m[k] = pr.extra[k]
	}

	m["type"] = ProblemNamespace + "/" + pr.t
	m["title"] = pr.title

	if len(pr.detail) > 0 {
		m["detail"] = pr.detail
	}

	return util.JSONMarshal(m)
}

func (pr *Problem) UnmarshalJSON(b []byte) error {
	var m map[string]interface{}
	if err := util.JSONUnmarshal(b, &m); err != nil {
		return err
	}

	for k := range m {
		switch k {
		case "type":
			s, _ := m[k].(string)
			pr.t = strings.TrimPrefix(s, ProblemNamespace+"/")
		case "title":
			pr.title, _ = m[k].(string)
		case "detail":
			pr.detail, _ = m[k].(string)
		default:
			if pr.extra == nil {
				pr.extra = map[string]interface{}{}
			}

			pr.extra[k] = m[k]
		}
	}

	return nil
}

func WriteProblemWithError(w http.ResponseWriter, status int, err error) {
	WriteProblem(w, status, NewProblemFromError(err))
}

func WriteProblem(w http.ResponseWriter, status int, pr Problem) {
	if status == 0 {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", ProblemMimetype)
	w.Header().Set("X-Content-Type-Options", "nosniff")

	var output []byte
	if b, err := util.JSONMarshal(pr); err != nil {
		output = unknownProblemJSON
	} else {
		output = b
	}

	w.WriteHeader(status)
	_, _ = w.Write(output)
}
