package cmds

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/session"
	"github.com/spikeekips/mitum-voting/util"
)

type StatusCommand struct {
	*ProcessCommand
	Refresh bool `name:"refresh" help:"read owner and phase again before printing"`
	Table   bool `name:"table" help:"print as table"`
}

func NewStatusCommand() StatusCommand {
	return StatusCommand{ProcessCommand: NewProcessCommand("status")}
}

func (cmd *StatusCommand) Run(version util.Version) error {
	if err := cmd.Initialize(cmd, version); err != nil {
		return errors.Wrap(err, "failed to initialize command")
	}

	defer cmd.Done()

	ctrl, err := cmd.session()
	if err != nil {
		return err
	}

	if cmd.Refresh {
		ctx, cancel := cmd.timeoutContext()
		defer cancel()

		if err := ctrl.Refresh(ctx); err != nil {
			return err
		}
	}

	if cmd.Table {
		return cmd.printView(ctrl.View())
	}

	return cmd.print(ctrl.View())
}

func (cmd *StatusCommand) printView(v session.View) error {
	rows := [][]string{
		{"caller", v.Caller.String()},
		{"owner", v.Owner.String()},
		{"role", v.Role.String()},
		{"phase", v.Phase.String()},
		{"registered", strconv.FormatBool(v.Voter.Registered)},
		{"voted", strconv.FormatBool(v.Voter.HasVoted)},
	}

	if v.Proposals >= 0 {
		rows = append(rows, []string{"proposals", strconv.Itoa(v.Proposals)})
	}

	if v.Pending != nil {
		rows = append(rows, []string{"pending", v.Pending.Action.String()})
	}

	if v.LastOutcome != nil {
		rows = append(rows, []string{"last outcome", v.LastOutcome.Message()})
	}

	return cmd.printTable([]string{"", ""}, rows)
}
