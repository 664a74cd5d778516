package process

import (
	"context"

	"github.com/spikeekips/mitum-voting/identity"
	"github.com/spikeekips/mitum-voting/launch/config"
	"github.com/spikeekips/mitum-voting/launch/pm"
	"github.com/spikeekips/mitum-voting/ledger"
	"github.com/spikeekips/mitum-voting/session"
	leveldbstorage "github.com/spikeekips/mitum-voting/storage/leveldb"
	"github.com/spikeekips/mitum-voting/util/cache"
	"github.com/spikeekips/mitum-voting/util/logging"
)

const ProcessNameController = "controller"

var ProcessorController pm.Process

func init() {
	if i, err := pm.NewProcess(
		ProcessNameController,
		[]string{ProcessNameLedger, ProcessNameJournal},
		ProcessController,
	); err != nil {
		panic(err)
	} else {
		ProcessorController = i
	}
}

// ProcessController creates the session controller and bootstraps it. A
// failed bootstrap does not stop the process; the controller keeps the error
// and rejects the actions until the next bootstrap.
func ProcessController(ctx context.Context) (context.Context, error) {
	var conf *config.Config
	if err := LoadConfigContextValue(ctx, &conf); err != nil {
		return ctx, err
	}

	var kr *identity.KeyRing
	if err := LoadKeyRingContextValue(ctx, &kr); err != nil {
		return ctx, err
	}

	var client ledger.Client
	if err := LoadLedgerContextValue(ctx, &client); err != nil {
		return ctx, err
	}

	var j *leveldbstorage.Journal
	if err := LoadJournalContextValue(ctx, &j); err != nil {
		return ctx, err
	}

	ca, err := cache.NewCacheFromURI(conf.Cache())
	if err != nil {
		return ctx, err
	}

	ctrl := session.NewController(client, kr).
		SetAggregator(session.NewAggregator(ca)).
		SetJournal(j)

	var l *logging.Logging
	if err := LoadLogContextValue(ctx, &l); err == nil {
		_ = ctrl.SetLogging(l)
	}

	if err := ctrl.Start(ctx); err != nil {
		ctrl.Log().Error().Err(err).Msg("failed to bootstrap session")
	}

	return context.WithValue(ctx, ContextValueController, ctrl), nil
}
