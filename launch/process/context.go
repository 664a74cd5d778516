package process

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spikeekips/mitum-voting/identity"
	"github.com/spikeekips/mitum-voting/launch/config"
	"github.com/spikeekips/mitum-voting/ledger"
	"github.com/spikeekips/mitum-voting/network"
	"github.com/spikeekips/mitum-voting/session"
	leveldbstorage "github.com/spikeekips/mitum-voting/storage/leveldb"
	"github.com/spikeekips/mitum-voting/util"
	"github.com/spikeekips/mitum-voting/util/logging"
)

var (
	ContextValueVersion      util.ContextKey = "version"
	ContextValueConfigSource util.ContextKey = "config_source"
	ContextValueConfig       util.ContextKey = "config"
	ContextValueLog          util.ContextKey = "log"
	ContextValueKeyRing      util.ContextKey = "keyring"
	ContextValueLedger       util.ContextKey = "ledger"
	ContextValueEtherClient  util.ContextKey = "ether_client"
	ContextValueJournal      util.ContextKey = "journal"
	ContextValueController   util.ContextKey = "controller"
	ContextValueHandlers     util.ContextKey = "handlers"
	ContextValueHTTPServer   util.ContextKey = "http_server"
)

func LoadVersionContextValue(ctx context.Context, l *util.Version) error {
	return util.LoadFromContextValue(ctx, ContextValueVersion, l)
}

func LoadConfigSourceContextValue(ctx context.Context, l *[]byte) error {
	return util.LoadFromContextValue(ctx, ContextValueConfigSource, l)
}

func LoadConfigContextValue(ctx context.Context, l **config.Config) error {
	return util.LoadFromContextValue(ctx, ContextValueConfig, l)
}

func LoadLogContextValue(ctx context.Context, l **logging.Logging) error {
	return util.LoadFromContextValue(ctx, ContextValueLog, l)
}

func LoadKeyRingContextValue(ctx context.Context, l **identity.KeyRing) error {
	return util.LoadFromContextValue(ctx, ContextValueKeyRing, l)
}

func LoadLedgerContextValue(ctx context.Context, l *ledger.Client) error {
	return util.LoadFromContextValue(ctx, ContextValueLedger, l)
}

func LoadEtherClientContextValue(ctx context.Context, l **ethclient.Client) error {
	return util.LoadFromContextValue(ctx, ContextValueEtherClient, l)
}

func LoadJournalContextValue(ctx context.Context, l **leveldbstorage.Journal) error {
	return util.LoadFromContextValue(ctx, ContextValueJournal, l)
}

func LoadControllerContextValue(ctx context.Context, l **session.Controller) error {
	return util.LoadFromContextValue(ctx, ContextValueController, l)
}

func LoadHandlersContextValue(ctx context.Context, l **network.Handlers) error {
	return util.LoadFromContextValue(ctx, ContextValueHandlers, l)
}

func LoadHTTPServerContextValue(ctx context.Context, l **network.HTTPServer) error {
	return util.LoadFromContextValue(ctx, ContextValueHTTPServer, l)
}

// Close releases the resources opened by the processes.
func Close(ctx context.Context) error {
	var j *leveldbstorage.Journal
	if err := LoadJournalContextValue(ctx, &j); err == nil {
		if err := j.Close(); err != nil {
			return err
		}
	}

	var client *ethclient.Client
	if err := LoadEtherClientContextValue(ctx, &client); err == nil {
		client.Close()
	}

	return nil
}
