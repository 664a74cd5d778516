package cmds

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spikeekips/mitum-voting/util"
)

type VersionCommand struct {
	Out io.Writer `kong:"-"`
}

func (cmd *VersionCommand) Run(version util.Version) error {
	if err := version.IsValid(nil); err != nil {
		return err
	}

	out := cmd.Out
	if out == nil {
		out = os.Stdout
	}

	_, err := fmt.Fprintln(out, version.String(), runtime.Version())

	return err
}
