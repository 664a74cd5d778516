package cmds

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/launch"
	"github.com/spikeekips/mitum-voting/launch/config"
	"github.com/spikeekips/mitum-voting/launch/pm"
	"github.com/spikeekips/mitum-voting/launch/process"
	"github.com/spikeekips/mitum-voting/session"
)

// ProcessCommand runs the processes from the config before the command
// does its work.
type ProcessCommand struct {
	*BaseCommand
	Config  FileLoad      `name:"config" help:"config file, '-' reads stdin (default: ${config})" default:"${config}"`
	Timeout time.Duration `name:"timeout" help:"timeout of ledger requests (default: ${timeout})" default:"${timeout}"`
	conf    *config.Config
}

func NewProcessCommand(name string) *ProcessCommand {
	return &ProcessCommand{BaseCommand: NewBaseCommand(name)}
}

// SetConfig skips loading the config file.
func (cmd *ProcessCommand) SetConfig(conf *config.Config) *ProcessCommand {
	cmd.conf = conf

	return cmd
}

func (cmd *ProcessCommand) prepare(processes []pm.Process) (context.Context, error) {
	ctx := context.WithValue(context.Background(), process.ContextValueVersion, cmd.version)
	ctx = context.WithValue(ctx, process.ContextValueLog, cmd.Logging)

	if cmd.conf != nil {
		ctx = context.WithValue(ctx, process.ContextValueConfig, cmd.conf)
	} else {
		ctx = context.WithValue(ctx, process.ContextValueConfigSource, cmd.Config.Bytes())
	}

	ps := launch.DefaultProcesses(processes).SetContext(ctx)
	_ = ps.SetLogging(cmd.Logging)

	err := ps.Run()

	cmd.AddExitHook(func() error {
		return process.Close(ps.Context())
	})

	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare")
	}

	return ps.Context(), nil
}

func (cmd *ProcessCommand) controller(processes []pm.Process) (*session.Controller, error) {
	ctx, err := cmd.prepare(processes)
	if err != nil {
		return nil, err
	}

	var ctrl *session.Controller
	if err := process.LoadControllerContextValue(ctx, &ctrl); err != nil {
		return nil, err
	}

	return ctrl, nil
}

func (cmd *ProcessCommand) timeoutContext() (context.Context, context.CancelFunc) {
	if cmd.Timeout < 1 {
		return context.WithCancel(context.Background())
	}

	return context.WithTimeout(context.Background(), cmd.Timeout)
}

// session runs the client processes and refreshes the session.
func (cmd *ProcessCommand) session() (*session.Controller, error) {
	ctrl, err := cmd.controller(launch.ClientProcesses)
	if err != nil {
		return nil, err
	}

	if err := ctrl.BootstrapError(); err != nil {
		return nil, err
	}

	return ctrl, nil
}
