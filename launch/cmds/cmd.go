package cmds

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/mitum-voting/util"
	"github.com/spikeekips/mitum-voting/util/logging"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	DefaultName        = "votingctl"
	DefaultDescription = "votingctl drives the voting ledger workflow"
	MainOptions        = kong.HelpOptions{NoAppSummary: false, Compact: true, Summary: false, Tree: true}
)

var defaultKongOptions = []kong.Option{
	kong.Name(DefaultName),
	kong.Description(DefaultDescription),
	kong.UsageOnError(),
	kong.ConfigureHelp(MainOptions),
	LogVars,
	PprofVars,
	ConfigVars,
}

func Context(args []string, flags interface{}, options ...kong.Option) (*kong.Context, error) {
	ops := make([]kong.Option, len(defaultKongOptions)+len(options))
	copy(ops, defaultKongOptions)
	copy(ops[len(defaultKongOptions):], options)

	p, err := kong.New(flags, ops...)
	if err != nil {
		return nil, err
	}

	return p.Parse(args)
}

type BaseCommand struct {
	*logging.Logging
	*LogFlags
	*PprofFlags
	LogOutput io.Writer `kong:"-"`
	Out       io.Writer `kong:"-"`
	name      string
	version   util.Version
	exithooks []func() error
}

func NewBaseCommand(name string) *BaseCommand {
	return &BaseCommand{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", fmt.Sprintf("command-%s", name))
		}),
		LogFlags:   &LogFlags{},
		PprofFlags: &PprofFlags{},
		name:       name,
	}
}

func (cmd *BaseCommand) Initialize(flags interface{}, version util.Version) error {
	if cmd.LogOutput == nil {
		cmd.LogOutput = os.Stderr
	}

	if cmd.Out == nil {
		cmd.Out = os.Stdout
	}

	i, err := SetupLoggingFromFlags(cmd.LogFlags, cmd.LogOutput)
	if err != nil {
		return err
	}

	_ = cmd.SetLogging(i)

	_, _ = maxprocs.Set(maxprocs.Logger(func(f string, s ...interface{}) {
		cmd.Log().Debug().Msgf(f, s...)
	}))

	hook, err := RunPprofs(cmd.name, cmd.PprofFlags)
	if err != nil {
		return err
	}

	cmd.exithooks = append(cmd.exithooks, hook)

	cmd.Log().Debug().Interface("flags", flags).Msg("flags parsed")

	if err := version.IsValid(nil); err != nil {
		return err
	}

	cmd.version = version

	return nil
}

func (cmd *BaseCommand) AddExitHook(f func() error) {
	cmd.exithooks = append(cmd.exithooks, f)
}

func (cmd *BaseCommand) Done() {
	for i := len(cmd.exithooks) - 1; i >= 0; i-- {
		if err := cmd.exithooks[i](); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: %+v\n", err)
		}
	}

	cmd.Log().Debug().Msg("stopped")
}

func (cmd *BaseCommand) Version() util.Version {
	return cmd.version
}

func (cmd *BaseCommand) print(i interface{}) error {
	b, err := util.JSONMarshalIndent(i)
	if err != nil {
		return errors.Wrap(err, "failed to marshal output")
	}

	_, err = fmt.Fprintln(cmd.Out, string(b))

	return err
}

func (cmd *BaseCommand) println(s string) error {
	_, err := fmt.Fprintln(cmd.Out, s)

	return err
}
