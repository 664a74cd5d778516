package config

import (
	"math/big"
	"net/url"
	"strings"
	"time"

	etherCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/util/cache"
)

var (
	DefaultLedgerURI   = "memory://"
	DefaultChainID     = big.NewInt(1337)
	DefaultWaitTimeout = time.Minute * 2
	DefaultCacheURI    = "gcache://?type=lru&size=100&expire=1h"
)

// Config is the configuration of the voting client.
type Config struct {
	ledger      string
	contract    base.Address
	chainID     *big.Int
	keys        []string
	identity    base.Address
	waitTimeout time.Duration
	cache       string
	journal     string
	network     *Network
}

// NewConfig returns Config filled with the defaults.
func NewConfig() *Config {
	return &Config{
		ledger:      DefaultLedgerURI,
		chainID:     new(big.Int).Set(DefaultChainID),
		waitTimeout: DefaultWaitTimeout,
		cache:       DefaultCacheURI,
		network:     NewNetwork(),
	}
}

func (no *Config) Ledger() string {
	return no.ledger
}

// SetLedger sets the ledger uri; "memory://" runs the in-process ledger,
// "http(s)://" or "ws(s)://" dials the JSON-RPC endpoint.
func (no *Config) SetLedger(s string) error {
	s = strings.TrimSpace(s)

	u, err := url.Parse(s)
	if err != nil {
		return errors.Wrapf(err, "invalid ledger uri, %q", s)
	}

	switch u.Scheme {
	case "memory":
	case "http", "https", "ws", "wss":
		if len(u.Host) < 1 {
			return errors.Errorf("empty host of ledger uri, %q", s)
		}
	default:
		return errors.Errorf("unknown ledger uri scheme, %q", u.Scheme)
	}

	no.ledger = s

	return nil
}

// IsMemoryLedger is true when the ledger runs in-process.
func (no *Config) IsMemoryLedger() bool {
	return strings.HasPrefix(no.ledger, "memory:")
}

func (no *Config) Contract() base.Address {
	return no.contract
}

func (no *Config) SetContract(s string) error {
	a, err := base.NewAddress(s)
	if err != nil {
		return errors.Wrap(err, "invalid contract address")
	}

	no.contract = a

	return nil
}

func (no *Config) ChainID() *big.Int {
	return no.chainID
}

func (no *Config) SetChainID(i int64) error {
	if i < 1 {
		return errors.Errorf("chain id should be over 0, %d", i)
	}

	no.chainID = big.NewInt(i)

	return nil
}

func (no *Config) Keys() []string {
	return no.keys
}

// SetKeys sets the hex encoded secp256k1 private keys.
func (no *Config) SetKeys(keys []string) error {
	ks := make([]string, len(keys))

	for i := range keys {
		k := strings.TrimPrefix(strings.TrimSpace(keys[i]), "0x")
		if _, err := etherCrypto.HexToECDSA(k); err != nil {
			return errors.Wrapf(err, "invalid private key #%d", i)
		}

		ks[i] = k
	}

	no.keys = ks

	return nil
}

// KeyAddresses returns the addresses of the keys in order.
func (no *Config) KeyAddresses() []base.Address {
	as := make([]base.Address, len(no.keys))

	for i := range no.keys {
		pk, err := etherCrypto.HexToECDSA(no.keys[i])
		if err != nil {
			continue
		}

		as[i] = base.AddressFromEther(etherCrypto.PubkeyToAddress(pk.PublicKey))
	}

	return as
}

func (no *Config) Identity() base.Address {
	return no.identity
}

func (no *Config) SetIdentity(s string) error {
	if len(strings.TrimSpace(s)) < 1 {
		no.identity = base.EmptyAddress

		return nil
	}

	a, err := base.NewAddress(s)
	if err != nil {
		return errors.Wrap(err, "invalid identity")
	}

	no.identity = a

	return nil
}

func (no *Config) WaitTimeout() time.Duration {
	return no.waitTimeout
}

func (no *Config) SetWaitTimeout(s string) error {
	d, err := parseTimeDuration(s, false)
	if err != nil {
		return errors.Wrap(err, "invalid wait-timeout")
	}

	if d < 1 {
		return errors.Errorf("wait-timeout should be over 0, %q", s)
	}

	no.waitTimeout = d

	return nil
}

func (no *Config) Cache() string {
	return no.cache
}

func (no *Config) SetCache(s string) error {
	s = strings.TrimSpace(s)

	if _, err := cache.NewCacheFromURI(s); err != nil {
		return err
	}

	no.cache = s

	return nil
}

// Journal is the leveldb path of the outcome journal; empty keeps the
// journal in memory.
func (no *Config) Journal() string {
	return no.journal
}

func (no *Config) SetJournal(s string) error {
	no.journal = strings.TrimSpace(s)

	return nil
}

func (no *Config) Network() *Network {
	return no.network
}

func (no *Config) SetNetwork(n *Network) error {
	if n == nil {
		return errors.Errorf("empty network")
	}

	no.network = n

	return nil
}
