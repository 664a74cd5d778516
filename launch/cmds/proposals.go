package cmds

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/util"
)

type ProposalsCommand struct {
	*ProcessCommand
	JSON bool `name:"json" help:"print as json"`
}

func NewProposalsCommand() ProposalsCommand {
	return ProposalsCommand{ProcessCommand: NewProcessCommand("proposals")}
}

func (cmd *ProposalsCommand) Run(version util.Version) error {
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

	ps, err := ctrl.Proposals(ctx)
	if err != nil {
		return err
	}

	if cmd.JSON {
		return cmd.print(ps)
	}

	rows := make([][]string, len(ps))
	for i := range ps {
		rows[i] = []string{
			strconv.FormatUint(ps[i].ID, 10),
			ps[i].Description,
			strconv.FormatUint(ps[i].VoteCount, 10),
		}
	}

	return cmd.printTable([]string{"id", "description", "votes"}, rows)
}
