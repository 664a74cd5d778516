package session

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/util/cache"
	"github.com/spikeekips/mitum-voting/util/logging"
)

// WinnerResult is the winning proposal.
type WinnerResult struct {
	ID          uint64 `json:"id"`
	Description string `json:"description"`
	VoteCount   uint64 `json:"vote_count"`
}

func (wr WinnerResult) String() string {
	return fmt.Sprintf("Winning proposal #%d: %s (%d votes)", wr.ID, wr.Description, wr.VoteCount)
}

// ResolveWinner returns the proposal with the most votes. Among proposals with
// the same count the lowest id wins.
func ResolveWinner(ps []base.Proposal) (WinnerResult, error) {
	if len(ps) < 1 {
		return WinnerResult{}, NoProposalsError.Call()
	}

	sorted := make([]base.Proposal, len(ps))
	copy(sorted, ps)
	base.SortProposals(sorted)

	w := sorted[0]
	for i := range sorted[1:] {
		if p := sorted[i+1]; p.VoteCount > w.VoteCount {
			w = p
		}
	}

	return WinnerResult{ID: w.ID, Description: w.Description, VoteCount: w.VoteCount}, nil
}

// Aggregator resolves the winner and remembers the result for the same
// proposal list.
type Aggregator struct {
	*logging.Logging
	cache cache.Cache
}

func NewAggregator(ca cache.Cache) *Aggregator {
	if ca == nil {
		ca = cache.Dummy{}
	}

	return &Aggregator{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "winner-aggregator")
		}),
		cache: ca,
	}
}

func (ag *Aggregator) ResolveWinner(ps []base.Proposal) (WinnerResult, error) {
	key, err := proposalsDigest(ps)
	if err != nil {
		ag.Log().Debug().Err(err).Msg("failed to digest proposals; winner not cached")

		return ResolveWinner(ps)
	}

	if i, found := ag.cache.Get(key); found {
		if wr, ok := i.(WinnerResult); ok {
			return wr, nil
		}
	}

	wr, err := ResolveWinner(ps)
	if err != nil {
		return WinnerResult{}, err
	}

	if err := ag.cache.Set(key, wr, cache.DefaultCacheExpire); err != nil {
		ag.Log().Debug().Err(err).Str("key", key).Msg("failed to cache winner")
	}

	return wr, nil
}

func proposalsDigest(ps []base.Proposal) (string, error) {
	sorted := make([]base.Proposal, len(ps))
	copy(sorted, ps)
	base.SortProposals(sorted)

	b, err := rlp.EncodeToBytes(sorted)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode proposals")
	}

	return crypto.Keccak256Hash(b).Hex(), nil
}
