package yamlconfig

import (
	"github.com/spikeekips/mitum-voting/launch/config"
)

type Network struct {
	Bind      *string    `yaml:",omitempty"`
	RateLimit *RateLimit `yaml:"rate-limit,omitempty"`
}

func (no Network) Set(conf *config.Network) error {
	if no.Bind != nil {
		if err := conf.SetBind(*no.Bind); err != nil {
			return err
		}
	}

	if no.RateLimit != nil {
		if err := no.RateLimit.Set(conf.RateLimit()); err != nil {
			return err
		}
	}

	return nil
}

type RateLimit struct {
	Perform *string  `yaml:",omitempty"`
	Read    *string  `yaml:",omitempty"`
	Store   *string  `yaml:",omitempty"`
	Trusted []string `yaml:",omitempty"`
}

func (no RateLimit) Set(conf *config.RateLimit) error {
	if no.Perform != nil {
		if err := conf.SetPerform(*no.Perform); err != nil {
			return err
		}
	}

	if no.Read != nil {
		if err := conf.SetRead(*no.Read); err != nil {
			return err
		}
	}

	if no.Store != nil {
		if err := conf.SetStore(*no.Store); err != nil {
			return err
		}
	}

	if no.Trusted != nil {
		if err := conf.SetTrusted(no.Trusted); err != nil {
			return err
		}
	}

	return nil
}
