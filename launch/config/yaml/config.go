package yamlconfig

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/launch/config"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Ledger      *string  `yaml:",omitempty"`
	Contract    *string  `yaml:",omitempty"`
	ChainID     *int64   `yaml:"chain-id,omitempty"`
	Keys        []string `yaml:",omitempty"`
	Identity    *string  `yaml:",omitempty"`
	WaitTimeout *string  `yaml:"wait-timeout,omitempty"`
	Cache       *string  `yaml:",omitempty"`
	Journal     *string  `yaml:",omitempty"`
	Network     *Network `yaml:",omitempty"`
}

// Load applies the given values over the defaults and checks the result.
func (no Config) Load() (*config.Config, error) {
	conf := config.NewConfig()

	if no.Ledger != nil {
		if err := conf.SetLedger(*no.Ledger); err != nil {
			return nil, err
		}
	}

	if no.Contract != nil {
		if err := conf.SetContract(*no.Contract); err != nil {
			return nil, err
		}
	}

	if no.ChainID != nil {
		if err := conf.SetChainID(*no.ChainID); err != nil {
			return nil, err
		}
	}

	if len(no.Keys) > 0 {
		if err := conf.SetKeys(no.Keys); err != nil {
			return nil, err
		}
	}

	if no.Identity != nil {
		if err := conf.SetIdentity(*no.Identity); err != nil {
			return nil, err
		}
	}

	if no.WaitTimeout != nil {
		if err := conf.SetWaitTimeout(*no.WaitTimeout); err != nil {
			return nil, err
		}
	}

	if no.Cache != nil {
		if err := conf.SetCache(*no.Cache); err != nil {
			return nil, err
		}
	}

	if no.Journal != nil {
		if err := conf.SetJournal(*no.Journal); err != nil {
			return nil, err
		}
	}

	if no.Network != nil {
		if err := no.Network.Set(conf.Network()); err != nil {
			return nil, err
		}
	}

	if err := conf.Check(); err != nil {
		return nil, err
	}

	return conf, nil
}

// Load parses the yaml source into config.Config.
func Load(b []byte) (*config.Config, error) {
	var no Config
	if err := yaml.Unmarshal(b, &no); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	return no.Load()
}

func LoadFile(f string) (*config.Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config, %q", f)
	}

	return Load(b)
}
