package cmds

import (
	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/identity"
	"github.com/spikeekips/mitum-voting/launch"
	"github.com/spikeekips/mitum-voting/launch/process"
	"github.com/spikeekips/mitum-voting/session"
	"github.com/spikeekips/mitum-voting/util"
)

var NotConfirmedError = util.NewError("not confirmed")

type PerformCommand struct {
	*ProcessCommand
	Action      string      `arg:"" name:"action" help:"action name, like RegisterVoter or CastVote"`
	Voter       AddressFlag `name:"voter" help:"voter address of RegisterVoter"`
	Description string      `name:"description" help:"description of SubmitProposal"`
	ProposalID  uint64      `name:"proposal" help:"proposal id of CastVote"`
	As          AddressFlag `name:"as" help:"perform as the given configured key"`
}

func NewPerformCommand() PerformCommand {
	return PerformCommand{ProcessCommand: NewProcessCommand("perform")}
}

func (cmd *PerformCommand) Run(version util.Version) error {
	if err := cmd.Initialize(cmd, version); err != nil {
		return errors.Wrap(err, "failed to initialize command")
	}

	defer cmd.Done()

	action, err := base.ActionFromString(cmd.Action)
	if err != nil {
		return err
	}

	pctx, err := cmd.prepare(launch.ClientProcesses)
	if err != nil {
		return err
	}

	var ctrl *session.Controller
	if err := process.LoadControllerContextValue(pctx, &ctrl); err != nil {
		return err
	}

	if a := cmd.As.Address(); !a.IsEmpty() {
		var kr *identity.KeyRing
		if err := process.LoadKeyRingContextValue(pctx, &kr); err != nil {
			return err
		}

		if err := kr.Select(a); err != nil {
			return err
		}
	}

	ctx, cancel := cmd.timeoutContext()
	defer cancel()

	o := ctrl.Perform(ctx, action, base.Payload{
		Voter:       cmd.Voter.Address(),
		Description: cmd.Description,
		ProposalID:  cmd.ProposalID,
	})

	cmd.Log().Debug().Interface("outcome", o).Msg("performed")

	if err := cmd.println(o.Message()); err != nil {
		return err
	}

	if !o.IsConfirmed() {
		return NotConfirmedError.Errorf("%s", o.Kind)
	}

	return nil
}
