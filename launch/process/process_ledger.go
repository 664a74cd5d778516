package process

import (
	"context"
	"net/url"

	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/identity"
	"github.com/spikeekips/mitum-voting/launch/config"
	"github.com/spikeekips/mitum-voting/launch/pm"
	"github.com/spikeekips/mitum-voting/ledger"
	etherledger "github.com/spikeekips/mitum-voting/ledger/ether"
	memledger "github.com/spikeekips/mitum-voting/ledger/memory"
	"github.com/spikeekips/mitum-voting/util/logging"
)

const ProcessNameLedger = "ledger"

var ProcessorLedger pm.Process

func init() {
	if i, err := pm.NewProcess(ProcessNameLedger, []string{ProcessNameIdentity}, ProcessLedger); err != nil {
		panic(err)
	} else {
		ProcessorLedger = i
	}
}

// ProcessLedger connects the ledger. "memory://" runs the in-process ledger
// owned by the "owner" query or by the first key.
func ProcessLedger(ctx context.Context) (context.Context, error) {
	var conf *config.Config
	if err := LoadConfigContextValue(ctx, &conf); err != nil {
		return ctx, err
	}

	var kr *identity.KeyRing
	if err := LoadKeyRingContextValue(ctx, &kr); err != nil {
		return ctx, err
	}

	var l *logging.Logging
	_ = LoadLogContextValue(ctx, &l)

	if conf.IsMemoryLedger() {
		owner, err := memoryLedgerOwner(conf, kr)
		if err != nil {
			return ctx, err
		}

		lg := memledger.New(owner)
		if l != nil {
			_ = lg.SetLogging(l)
		}

		return context.WithValue(ctx, ContextValueLedger, ledger.Client(lg)), nil
	}

	lg, client, err := etherledger.Dial(ctx, conf.Ledger(), conf.Contract(), kr, conf.ChainID())
	if err != nil {
		return ctx, err
	}

	_ = lg.SetWaitTimeout(conf.WaitTimeout())

	if l != nil {
		_ = lg.SetLogging(l)
	}

	ctx = context.WithValue(ctx, ContextValueEtherClient, client)

	return context.WithValue(ctx, ContextValueLedger, ledger.Client(lg)), nil
}

func memoryLedgerOwner(conf *config.Config, kr *identity.KeyRing) (base.Address, error) {
	u, err := url.Parse(conf.Ledger())
	if err != nil {
		return base.EmptyAddress, err
	}

	if s := u.Query().Get("owner"); len(s) > 0 {
		return base.NewAddress(s)
	}

	as := kr.Addresses()
	if len(as) < 1 {
		return base.EmptyAddress, config.InvalidConfigError.Errorf("no owner for memory ledger")
	}

	return as[0], nil
}
