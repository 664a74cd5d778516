package cmds

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
)

func (cmd *BaseCommand) printTable(header []string, rows [][]string) error {
	if f, ok := cmd.Out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		pterm.DisableColor()
	}

	data := make(pterm.TableData, 0, len(rows)+1)
	data = append(data, header)
	data = append(data, rows...)

	s, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render table")
	}

	_, err = fmt.Fprintln(cmd.Out, s)

	return err
}
