package config

import (
	"net"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/network"
	"github.com/ulule/limiter/v3"
)

var (
	DefaultNetworkBind      = "127.0.0.1:54320"
	DefaultRateLimitPerform = "10-M"
	DefaultRateLimitRead    = "unlimited"
	DefaultRateLimitStore   = "memory://"
)

type Network struct {
	bind      string
	rateLimit *RateLimit
}

func NewNetwork() *Network {
	return &Network{
		bind:      DefaultNetworkBind,
		rateLimit: NewRateLimit(),
	}
}

func (no *Network) Bind() string {
	return no.bind
}

func (no *Network) SetBind(s string) error {
	s = strings.TrimSpace(s)

	if _, _, err := net.SplitHostPort(s); err != nil {
		return errors.Wrapf(err, "invalid bind, %q", s)
	}

	no.bind = s

	return nil
}

func (no *Network) RateLimit() *RateLimit {
	return no.rateLimit
}

func (no *Network) SetRateLimit(r *RateLimit) error {
	if r == nil {
		return errors.Errorf("empty rate limit")
	}

	no.rateLimit = r

	return nil
}

// RateLimit has the rates of the submitting routes and the reading routes.
// Clients in the trusted networks are not limited.
type RateLimit struct {
	perform limiter.Rate
	read    limiter.Rate
	store   string
	trusted []*net.IPNet
}

func NewRateLimit() *RateLimit {
	perform, _ := network.ParseRate(DefaultRateLimitPerform)
	read, _ := network.ParseRate(DefaultRateLimitRead)

	return &RateLimit{
		perform: perform,
		read:    read,
		store:   DefaultRateLimitStore,
	}
}

func (no *RateLimit) Perform() limiter.Rate {
	return no.perform
}

func (no *RateLimit) SetPerform(s string) error {
	r, err := network.ParseRate(strings.TrimSpace(s))
	if err != nil {
		return err
	}

	no.perform = r

	return nil
}

func (no *RateLimit) Read() limiter.Rate {
	return no.read
}

func (no *RateLimit) SetRead(s string) error {
	r, err := network.ParseRate(strings.TrimSpace(s))
	if err != nil {
		return err
	}

	no.read = r

	return nil
}

func (no *RateLimit) Store() string {
	return no.store
}

func (no *RateLimit) SetStore(s string) error {
	s = strings.TrimSpace(s)

	u, err := url.Parse(s)
	if err != nil {
		return errors.Wrapf(err, "invalid rate limit store, %q", s)
	}

	switch u.Scheme {
	case "memory", "redis":
	default:
		return errors.Errorf("unknown rate limit store, %q", s)
	}

	no.store = s

	return nil
}

func (no *RateLimit) Trusted() []*net.IPNet {
	return no.trusted
}

// SetTrusted sets the trusted networks; a single ip is taken as the network
// of the ip only.
func (no *RateLimit) SetTrusted(ss []string) error {
	ns := make([]*net.IPNet, len(ss))

	for i := range ss {
		s := strings.TrimSpace(ss[i])

		if ip := net.ParseIP(s); ip != nil {
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}

			ns[i] = &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}

			continue
		}

		_, n, err := net.ParseCIDR(s)
		if err != nil {
			return errors.Wrapf(err, "invalid trusted network, %q", s)
		}

		ns[i] = n
	}

	no.trusted = ns

	return nil
}
