package session

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/identity"
	"github.com/spikeekips/mitum-voting/ledger"
	"github.com/spikeekips/mitum-voting/util/localtime"
	"github.com/spikeekips/mitum-voting/util/logging"
	"golang.org/x/sync/errgroup"
)

// Bootstrap builds a fresh State from the ledger for the current identity.
type Bootstrap struct {
	*logging.Logging
	client ledger.Client
	ids    identity.Provider
}

func NewBootstrap(client ledger.Client, ids identity.Provider) *Bootstrap {
	return &Bootstrap{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "session-bootstrap")
		}),
		client: client,
		ids:    ids,
	}
}

// Initialize reads the owner and the phase, both of them are required. The
// voter record and the proposals are read too, but when they can not be read
// the session stays usable and the ledger decides.
func (bs *Bootstrap) Initialize(ctx context.Context) (*State, error) {
	caller, found := bs.ids.CurrentIdentity()
	if !found {
		return nil, NoIdentityError.Call()
	}

	var owner base.Address
	var phase base.Phase
	var voter base.VoterStatus

	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		i, err := ledger.Owner(ectx, bs.client)
		if err != nil {
			return err
		}

		owner = i

		return nil
	})

	eg.Go(func() error {
		i, err := ledger.Phase(ectx, bs.client)
		if err != nil {
			return err
		}

		phase = i

		return nil
	})

	eg.Go(func() error {
		i, err := ledger.Voter(ectx, bs.client, caller, caller)
		if err != nil {
			if reason, ok := ledger.IsRevert(err); ok {
				// NOTE the ledger refuses to describe a non-voter
				voter = base.VoterStatus{Known: true}

				bs.Log().Debug().Str("reason", reason).Msg("voter record reverted; caller is not a voter")

				return nil
			}

			bs.Log().Debug().Err(err).Msg("failed to read voter record")

			return nil
		}

		voter = i

		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, LedgerUnreachableError.Wrap(err)
	}

	st := &State{
		phase:     phase,
		owner:     owner,
		caller:    caller,
		voter:     voter,
		proposals: -1,
		createdAt: localtime.UTCNow(),
	}

	// NOTE the proposals are read after the phase; before
	// PhaseProposalsRegistrationEnded the count can still change.
	if phase >= base.PhaseProposalsRegistrationEnded {
		switch ps, err := ledger.Proposals(ctx, bs.client, caller); {
		case err != nil:
			bs.Log().Debug().Err(err).Msg("failed to read proposals")
		default:
			st.setProposals(phase, len(ps))
		}
	}

	bs.Log().Debug().
		Stringer("phase", phase).
		Str("owner", owner.String()).
		Str("caller", caller.String()).
		Stringer("role", st.Role()).
		Interface("voter", voter).
		Msg("session bootstrapped")

	return st, nil
}
