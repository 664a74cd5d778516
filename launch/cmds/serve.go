package cmds

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/launch"
	"github.com/spikeekips/mitum-voting/launch/process"
	"github.com/spikeekips/mitum-voting/network"
	"github.com/spikeekips/mitum-voting/util"
)

type ServeCommand struct {
	*ProcessCommand
	ExitAfter time.Duration `name:"exit-after" help:"exit after the given duration"`
}

func NewServeCommand() ServeCommand {
	return ServeCommand{ProcessCommand: NewProcessCommand("serve")}
}

func (cmd *ServeCommand) Run(version util.Version) error {
	if err := cmd.Initialize(cmd, version); err != nil {
		return errors.Wrap(err, "failed to initialize command")
	}

	defer cmd.Done()

	pctx, err := cmd.prepare(launch.ServeProcesses)
	if err != nil {
		return err
	}

	var sv *network.HTTPServer
	if err := process.LoadHTTPServerContextValue(pctx, &sv); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	if cmd.ExitAfter > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.ExitAfter)

		defer cancel()

		cmd.Log().Debug().Dur("exit-after", cmd.ExitAfter).Msg("will exit")
	}

	cmd.Log().Info().Msg("serving session")

	return sv.Start(ctx)
}
