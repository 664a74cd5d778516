package config

import (
	"net"
	"strconv"

	"github.com/ulule/limiter/v3"
)

type RateLimitPackerYAML struct {
	Perform string   `yaml:"perform"`
	Read    string   `yaml:"read"`
	Store   string   `yaml:"store"`
	Trusted []string `yaml:"trusted,omitempty"`
}

type NetworkPackerYAML struct {
	Bind      string              `yaml:"bind"`
	RateLimit RateLimitPackerYAML `yaml:"rate-limit"`
}

type ConfigPackerYAML struct {
	Ledger      string            `yaml:"ledger"`
	Contract    string            `yaml:"contract,omitempty"`
	ChainID     int64             `yaml:"chain-id"`
	Keys        []string          `yaml:"keys,omitempty"`
	Identity    string            `yaml:"identity,omitempty"`
	WaitTimeout string            `yaml:"wait-timeout"`
	Cache       string            `yaml:"cache"`
	Journal     string            `yaml:"journal,omitempty"`
	Network     NetworkPackerYAML `yaml:"network"`
}

// MarshalYAML hides the private keys.
func (no *Config) MarshalYAML() (interface{}, error) {
	keys := make([]string, len(no.keys))
	for i := range no.keys {
		keys[i] = "<hidden>"
	}

	return ConfigPackerYAML{
		Ledger:      no.ledger,
		Contract:    no.contract.String(),
		ChainID:     no.chainID.Int64(),
		Keys:        keys,
		Identity:    no.identity.String(),
		WaitTimeout: no.waitTimeout.String(),
		Cache:       no.cache,
		Journal:     no.journal,
		Network: NetworkPackerYAML{
			Bind: no.network.Bind(),
			RateLimit: RateLimitPackerYAML{
				Perform: formatRate(no.network.RateLimit().Perform()),
				Read:    formatRate(no.network.RateLimit().Read()),
				Store:   no.network.RateLimit().Store(),
				Trusted: formatNetworks(no.network.RateLimit().Trusted()),
			},
		},
	}, nil
}

func formatRate(r limiter.Rate) string {
	if r.Limit < 0 {
		return "unlimited"
	}

	if len(r.Formatted) > 0 {
		return r.Formatted
	}

	return strconv.FormatInt(r.Limit, 10) + "-" + r.Period.String()
}

func formatNetworks(ns []*net.IPNet) []string {
	if len(ns) < 1 {
		return nil
	}

	ss := make([]string, len(ns))
	for i := range ns {
		ss[i] = ns[i].String()
	}

	return ss
}
