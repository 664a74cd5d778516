package process

import (
	"context"

	"github.com/spikeekips/mitum-voting/launch/config"
	yamlconfig "github.com/spikeekips/mitum-voting/launch/config/yaml"
	"github.com/spikeekips/mitum-voting/launch/pm"
)

const ProcessNameConfig = "config"

var ProcessorConfig pm.Process

func init() {
	if i, err := pm.NewProcess(ProcessNameConfig, nil, ProcessConfig); err != nil {
		panic(err)
	} else {
		ProcessorConfig = i
	}
}

// ProcessConfig loads the yaml config source. When the config is already in
// the context, the source is not needed.
func ProcessConfig(ctx context.Context) (context.Context, error) {
	var conf *config.Config
	if err := LoadConfigContextValue(ctx, &conf); err == nil {
		return ctx, conf.Check()
	}

	var source []byte
	if err := LoadConfigSourceContextValue(ctx, &source); err != nil {
		return ctx, err
	}

	conf, err := yamlconfig.Load(source)
	if err != nil {
		return ctx, err
	}

	return context.WithValue(ctx, ContextValueConfig, conf), nil
}
