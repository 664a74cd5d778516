package config

import (
	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/util"
	"github.com/spikeekips/mitum-voting/util/isvalid"
)

var InvalidConfigError = util.NewError("invalid config")

// Check fills the missing values which depend on the others.
func (no *Config) Check() error {
	if no.identity.IsEmpty() {
		if as := no.KeyAddresses(); len(as) > 0 {
			no.identity = as[0]
		}
	}

	return no.IsValid(nil)
}

func (no *Config) IsValid([]byte) error {
	if err := isvalid.CheckFunc(
		no.checkLedger,
		no.checkKeys,
		no.checkNetwork,
	); err != nil {
		return InvalidConfigError.Wrap(err)
	}

	return nil
}

func (no *Config) checkLedger() error {
	switch {
	case len(no.ledger) < 1:
		return errors.Errorf("ledger is missing")
	case no.chainID == nil || no.chainID.Sign() < 1:
		return errors.Errorf("chain id is missing")
	case no.waitTimeout < 1:
		return errors.Errorf("wait-timeout is missing")
	case len(no.cache) < 1:
		return errors.Errorf("cache is missing")
	case no.IsMemoryLedger():
		return nil
	case no.contract.IsEmpty():
		return errors.Errorf("contract is missing for %q", no.ledger)
	default:
		return isvalid.Check(nil, false, no.contract)
	}
}

func (no *Config) checkKeys() error {
	if len(no.keys) < 1 {
		return errors.Errorf("keys are missing")
	}

	if no.identity.IsEmpty() {
		return nil
	}

	as := no.KeyAddresses()
	for i := range as {
		if as[i].Equal(no.identity) {
			return nil
		}
	}

	return errors.Errorf("identity, %q not in keys", no.identity)
}

func (no *Config) checkNetwork() error {
	switch {
	case no.network == nil:
		return errors.Errorf("network is missing")
	case len(no.network.Bind()) < 1:
		return errors.Errorf("network bind is missing")
	case no.network.RateLimit() == nil:
		return errors.Errorf("network rate-limit is missing")
	case len(no.network.RateLimit().Store()) < 1:
		return errors.Errorf("network rate-limit store is missing")
	default:
		return nil
	}
}
