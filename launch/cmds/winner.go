package cmds

import (
	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/util"
)

type WinnerCommand struct {
	*ProcessCommand
	JSON bool `name:"json" help:"print as json"`
}

func NewWinnerCommand() WinnerCommand {
	return WinnerCommand{ProcessCommand: NewProcessCommand("winner")}
}

func (cmd *WinnerCommand) Run(version util.Version) error {
	if err := cmd.Initialize(cmd, version); err != nil {
		return errors.Wrap(err, "failed to initialize command")
	}

	defer cmd.Done()

	ctrl, err := cmd.session()
	if err != nil {
		return err
	}

	ctx, cancel := cmd.timeoutContext()
	defer cancel()

	wr, err := ctrl.Winner(ctx)
	if err != nil {
		return err
	}

	if cmd.JSON {
		return cmd.print(wr)
	}

	return cmd.println(wr.String())
}
