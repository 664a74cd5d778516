package process

import (
	"context"

	"github.com/spikeekips/mitum-voting/identity"
	"github.com/spikeekips/mitum-voting/launch/config"
	"github.com/spikeekips/mitum-voting/launch/pm"
)

const ProcessNameIdentity = "identity"

var ProcessorIdentity pm.Process

func init() {
	if i, err := pm.NewProcess(ProcessNameIdentity, []string{ProcessNameConfig}, ProcessIdentity); err != nil {
		panic(err)
	} else {
		ProcessorIdentity = i
	}
}

func ProcessIdentity(ctx context.Context) (context.Context, error) {
	var conf *config.Config
	if err := LoadConfigContextValue(ctx, &conf); err != nil {
		return ctx, err
	}

	kr, err := identity.NewKeyRing(conf.Keys())
	if err != nil {
		return ctx, err
	}

	if a := conf.Identity(); !a.IsEmpty() {
		if err := kr.Select(a); err != nil {
			return ctx, err
		}
	}

	return context.WithValue(ctx, ContextValueKeyRing, kr), nil
}
