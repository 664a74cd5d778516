package process

import (
	"context"
	"net"
	"net/url"

	"github.com/spikeekips/mitum-voting/identity"
	"github.com/spikeekips/mitum-voting/launch/config"
	"github.com/spikeekips/mitum-voting/launch/pm"
	"github.com/spikeekips/mitum-voting/network"
	"github.com/spikeekips/mitum-voting/session"
	leveldbstorage "github.com/spikeekips/mitum-voting/storage/leveldb"
	"github.com/spikeekips/mitum-voting/util/logging"
	"github.com/ulule/limiter/v3"
)

const (
	ProcessNameNetwork       = "network"
	ProcessNameHTTPServer    = "http_server"
	HookNameNetworkRateLimit = "network_ratelimit"
)

var (
	ProcessorNetwork    pm.Process
	ProcessorHTTPServer pm.Process
)

func init() {
	if i, err := pm.NewProcess(ProcessNameNetwork, []string{ProcessNameController}, ProcessNetwork); err != nil {
		panic(err)
	} else {
		ProcessorNetwork = i
	}

	if i, err := pm.NewProcess(ProcessNameHTTPServer, []string{ProcessNameNetwork}, ProcessHTTPServer); err != nil {
		panic(err)
	} else {
		ProcessorHTTPServer = i
	}
}

func ProcessNetwork(ctx context.Context) (context.Context, error) {
	var conf *config.Config
	if err := LoadConfigContextValue(ctx, &conf); err != nil {
		return ctx, err
	}

	var ctrl *session.Controller
	if err := LoadControllerContextValue(ctx, &ctrl); err != nil {
		return ctx, err
	}

	var kr *identity.KeyRing
	if err := LoadKeyRingContextValue(ctx, &kr); err != nil {
		return ctx, err
	}

	var j *leveldbstorage.Journal
	if err := LoadJournalContextValue(ctx, &j); err != nil {
		return ctx, err
	}

	hd := network.NewHandlers(ctrl).SetJournal(j).SetIdentitySelector(kr)

	var l *logging.Logging
	if err := LoadLogContextValue(ctx, &l); err == nil {
		_ = hd.SetLogging(l)
	}

	return context.WithValue(ctx, ContextValueHandlers, hd), nil
}

// ProcessHTTPServer prepares the server of the handlers; it does not start
// listening.
func ProcessHTTPServer(ctx context.Context) (context.Context, error) {
	var conf *config.Config
	if err := LoadConfigContextValue(ctx, &conf); err != nil {
		return ctx, err
	}

	var hd *network.Handlers
	if err := LoadHandlersContextValue(ctx, &hd); err != nil {
		return ctx, err
	}

	sv := network.NewHTTPServer(conf.Network().Bind(), hd.Handler())

	var l *logging.Logging
	if err := LoadLogContextValue(ctx, &l); err == nil {
		_ = sv.SetLogging(l)
	}

	return context.WithValue(ctx, ContextValueHTTPServer, sv), nil
}

// HookNetworkRateLimit sets the rate limits of the handlers from the config.
func HookNetworkRateLimit(ctx context.Context) (context.Context, error) {
	var conf *config.Config
	if err := LoadConfigContextValue(ctx, &conf); err != nil {
		return ctx, err
	}

	var hd *network.Handlers
	if err := LoadHandlersContextValue(ctx, &hd); err != nil {
		return ctx, err
	}

	rc := conf.Network().RateLimit()

	perform, err := rateLimitMiddleware(rc.Store(), "perform", rc.Perform(), rc.Trusted())
	if err != nil {
		return ctx, err
	}

	read, err := rateLimitMiddleware(rc.Store(), "read", rc.Read(), rc.Trusted())
	if err != nil {
		return ctx, err
	}

	_ = hd.SetRateLimit(perform, read)

	return ctx, nil
}

// rateLimitMiddleware keeps the counters of each group under its own
// prefix. The trusted networks are not limited.
func rateLimitMiddleware(
	uri, group string, rate limiter.Rate, trusted []*net.IPNet,
) (*network.RateLimitMiddleware, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	prefix := q.Get("prefix")
	if len(prefix) < 1 {
		prefix = network.DefaultRateLimitPrefix
	}

	q.Set("prefix", prefix+":"+group)
	u.RawQuery = q.Encode()

	store, err := network.RateLimitStoreFromURI(u.String())
	if err != nil {
		return nil, err
	}

	rules := make([]network.RateLimitRule, len(trusted))
	for i := range trusted {
		rules[i] = network.NewRateLimitRule(trusted[i], network.NoLimitRate)
	}

	return network.NewRateLimitMiddleware(network.NewRateLimit(rules, rate), store), nil
}
