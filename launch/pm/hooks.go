package pm

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/mitum-voting/util/logging"
)

type Hooks struct {
	*logging.Logging
	seq   []string
	hooks map[string] /* hook */ ProcessFunc
}

func NewHooks(name string) *Hooks {
	return &Hooks{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", fmt.Sprintf("hooks-%s", name))
		}),
		hooks: map[string]ProcessFunc{},
	}
}

func (hs *Hooks) Add(name string, f ProcessFunc, override bool) error {
	if _, found := hs.hooks[name]; found {
		if !override {
			return errors.Errorf("hook already added, %q", name)
		}
	} else {
		hs.seq = append(hs.seq, name)
	}

	hs.hooks[name] = f

	return nil
}

func (hs *Hooks) AddBefore(name, target string, f ProcessFunc, override bool) error {
	return hs.insert(name, target, f, override, true)
}

func (hs *Hooks) AddAfter(name, target string, f ProcessFunc, override bool) error {
	return hs.insert(name, target, f, override, false)
}

func (hs *Hooks) insert(name, target string, f ProcessFunc, override, before bool) error {
	if _, found := hs.hooks[target]; !found {
		return errors.Errorf("target hook not found, %q", target)
	}

	if err := hs.Add(name, f, override); err != nil {
		return err
	}

	b := make([]string, 0, len(hs.seq))

	for _, k := range hs.seq {
		switch {
		case k == name:
			continue
		case k != target:
			b = append(b, k)
		case before:
			b = append(b, name, k)
		default:
			b = append(b, k, name)
		}
	}

	hs.seq = b

	return nil
}

func (hs *Hooks) Names() []string {
	return hs.seq
}

// Run runs the hooks in order; the context returned by a hook is passed to
// the next one.
func (hs Hooks) Run(ctx context.Context) (context.Context, error) {
	if len(hs.seq) < 1 {
		return ctx, nil
	}

	hs.Log().Debug().Msg("running hooks")

	for i := range hs.seq {
		name := hs.seq[i]
		i, err := hs.hooks[name](ctx)
		if err != nil {
			hs.Log().Error().Err(err).Str("hook", name).Msg("failed to run hook")

			return ctx, errors.Wrapf(err, "hook, %q", name)
		}
		hs.Log().Debug().Str("hook", name).Msg("hook done")

		ctx = i
	}

	hs.Log().Debug().Msg("hooks done")

	return ctx, nil
}
