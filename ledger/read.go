package ledger

import (
	"context"

	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/util"
)

func Owner(ctx context.Context, c Client) (base.Address, error) {
	i, err := c.Read(ctx, Query{Kind: QueryOwner})
	if err != nil {
		return base.EmptyAddress, err
	}

	a, ok := i.(base.Address)
	if !ok {
		return base.EmptyAddress, util.WrongTypeError.Errorf("expected base.Address for owner, not %T", i)
	}

	return a, nil
}

func Phase(ctx context.Context, c Client) (base.Phase, error) {
	i, err := c.Read(ctx, Query{Kind: QueryPhase})
	if err != nil {
		return 0, err
	}

	ph, ok := i.(base.Phase)
	if !ok {
		return 0, util.WrongTypeError.Errorf("expected base.Phase for phase, not %T", i)
	}

	return ph, ph.IsValid(nil)
}

func Voter(ctx context.Context, c Client, caller, voter base.Address) (base.VoterStatus, error) {
	i, err := c.Read(ctx, Query{Kind: QueryVoter, Caller: caller, Voter: voter})
	if err != nil {
		return base.VoterStatus{}, err
	}

	vs, ok := i.(base.VoterStatus)
	if !ok {
		return base.VoterStatus{}, util.WrongTypeError.Errorf("expected base.VoterStatus for voter, not %T", i)
	}

	return vs, nil
}

// Proposals returns the proposals sorted by id.
func Proposals(ctx context.Context, c Client, caller base.Address) ([]base.Proposal, error) {
	i, err := c.Read(ctx, Query{Kind: QueryProposals, Caller: caller})
	if err != nil {
		return nil, err
	}

	ps, ok := i.([]base.Proposal)
	if !ok {
		return nil, util.WrongTypeError.Errorf("expected []base.Proposal for proposals, not %T", i)
	}

	sorted := make([]base.Proposal, len(ps))
	copy(sorted, ps)
	base.SortProposals(sorted)

	return sorted, nil
}

func Winner(ctx context.Context, c Client, caller base.Address) (uint64, error) {
	i, err := c.Read(ctx, Query{Kind: QueryWinner, Caller: caller})
	if err != nil {
		return 0, err
	}

	id, ok := i.(uint64)
	if !ok {
		return 0, util.WrongTypeError.Errorf("expected uint64 for winner, not %T", i)
	}

	return id, nil
}
