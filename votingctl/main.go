package main

import (
	"fmt"
	"os"

	"github.com/spikeekips/mitum-voting/launch/cmds"
	"github.com/spikeekips/mitum-voting/util"
)

var Version = "v0.0.1"

var flags = struct {
	Version   cmds.VersionCommand   `cmd:"" help:"print version"`
	Serve     cmds.ServeCommand     `cmd:"" help:"serve the session over http"`
	Status    cmds.StatusCommand    `cmd:"" help:"print the session of the current identity"`
	Perform   cmds.PerformCommand   `cmd:"" help:"perform an action"`
	Winner    cmds.WinnerCommand    `cmd:"" help:"print the winning proposal"`
	Proposals cmds.ProposalsCommand `cmd:"" help:"print the proposals"`
	Journal   cmds.JournalCommand   `cmd:"" help:"print the journaled outcomes"`
}{
	Serve:     cmds.NewServeCommand(),
	Status:    cmds.NewStatusCommand(),
	Perform:   cmds.NewPerformCommand(),
	Winner:    cmds.NewWinnerCommand(),
	Proposals: cmds.NewProposalsCommand(),
	Journal:   cmds.NewJournalCommand(),
}

func main() {
	kctx, err := cmds.Context(os.Args[1:], &flags)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %+v\n", err)

		os.Exit(1)
	}

	if err := kctx.Run(util.Version(Version)); err != nil {
		kctx.FatalIfErrorf(err)
	}
}
