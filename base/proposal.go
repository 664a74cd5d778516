package base

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var InvalidProposalError = errors.New("invalid proposal")

type Proposal struct {
	ID          uint64 `json:"id"`
	Description string `json:"description"`
	VoteCount   uint64 `json:"vote_count"`
}

func (p Proposal) IsValid([]byte) error {
	if p.ID < 1 {
		return errors.Wrap(InvalidProposalError, "zero id")
	}

	if len(strings.TrimSpace(p.Description)) < 1 {
		return errors.Wrapf(InvalidProposalError, "empty description; id=%d", p.ID)
	}

	return nil
}

// SortProposals sorts by ascending id.
func SortProposals(ps []Proposal) {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].ID < ps[j].ID
	})
}
