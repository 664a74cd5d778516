package process

import (
	"context"

	"github.com/spikeekips/mitum-voting/launch/config"
	"github.com/spikeekips/mitum-voting/launch/pm"
	leveldbstorage "github.com/spikeekips/mitum-voting/storage/leveldb"
	"github.com/spikeekips/mitum-voting/util/logging"
)

const ProcessNameJournal = "journal"

var ProcessorJournal pm.Process

func init() {
	if i, err := pm.NewProcess(ProcessNameJournal, []string{ProcessNameConfig}, ProcessJournal); err != nil {
		panic(err)
	} else {
		ProcessorJournal = i
	}
}

func ProcessJournal(ctx context.Context) (context.Context, error) {
	var conf *config.Config
	if err := LoadConfigContextValue(ctx, &conf); err != nil {
		return ctx, err
	}

	var j *leveldbstorage.Journal

	if p := conf.Journal(); len(p) > 0 {
		i, err := leveldbstorage.OpenJournal(p)
		if err != nil {
			return ctx, err
		}

		j = i
	} else {
		j = leveldbstorage.NewMemJournal()
	}

	var l *logging.Logging
	if err := LoadLogContextValue(ctx, &l); err == nil {
		_ = j.SetLogging(l)
	}

	return context.WithValue(ctx, ContextValueJournal, j), nil
}
