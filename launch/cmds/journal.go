package cmds

import (
	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/launch/pm"
	"github.com/spikeekips/mitum-voting/launch/process"
	leveldbstorage "github.com/spikeekips/mitum-voting/storage/leveldb"
	"github.com/spikeekips/mitum-voting/util"
)

type JournalCommand struct {
	*ProcessCommand
	Limit int    `name:"limit" help:"number of outcomes, latest first; 0 prints all" default:"20"`
	ID    string `name:"id" help:"print the outcome of the id"`
}

func NewJournalCommand() JournalCommand {
	return JournalCommand{ProcessCommand: NewProcessCommand("journal")}
}

func (cmd *JournalCommand) Run(version util.Version) error {
	if err := cmd.Initialize(cmd, version); err != nil {
		return errors.Wrap(err, "failed to initialize command")
	}

	defer cmd.Done()

	ctx, err := cmd.prepare([]pm.Process{process.ProcessorConfig, process.ProcessorJournal})
	if err != nil {
		return err
	}

	var j *leveldbstorage.Journal
	if err := process.LoadJournalContextValue(ctx, &j); err != nil {
		return err
	}

	if len(cmd.ID) > 0 {
		switch o, found, err := j.Outcome(cmd.ID); {
		case err != nil:
			return err
		case !found:
			return util.NotFoundError.Errorf("outcome, %q", cmd.ID)
		default:
			return cmd.print(o)
		}
	}

	outcomes, err := j.Outcomes(cmd.Limit)
	if err != nil {
		return err
	}

	for i := range outcomes {
		if err := cmd.println(outcomes[i].At.Format("2006-01-02T15:04:05.000Z07:00") + " " +
			outcomes[i].ID + " " + outcomes[i].Message()); err != nil {
			return err
		}
	}

	return nil
}
