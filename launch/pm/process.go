package pm

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/mitum-voting/util/logging"
)

const (
	HookPrefixPre  = "pre"
	HookPrefixPost = "post"
)

type ProcessFunc func(context.Context) (context.Context, error)

// Process is a named step which runs after the processes it requires.
type Process struct {
	name     string
	requires []string
	f        ProcessFunc
}

func NewProcess(name string, requires []string, f ProcessFunc) (Process, error) {
	if len(name) < 1 {
		return Process{}, errors.Errorf("empty process name")
	}

	if f == nil {
		return Process{}, errors.Errorf("empty process function, %q", name)
	}

	for i := range requires {
		if requires[i] == name {
			return Process{}, errors.Errorf("process requires itself, %q", name)
		}
	}

	return Process{name: name, requires: requires, f: f}, nil
}

func (pr Process) Name() string {
	return pr.name
}

func (pr Process) Requires() []string {
	return pr.requires
}

type Hook struct {
	Prefix   string
	Process  string
	Name     string
	F        ProcessFunc
	Override bool
}

func NewHook(prefix, process, name string, f ProcessFunc) Hook {
	return Hook{Prefix: prefix, Process: process, Name: name, F: f}
}

func (h Hook) SetOverride(b bool) Hook {
	h.Override = b

	return h
}

// Processes runs the added processes by their requirements. Every process
// has pre and post hooks.
type Processes struct {
	*logging.Logging
	ctx       context.Context
	processes map[string]Process
	seq       []string
	pre       map[string]*Hooks
	post      map[string]*Hooks
}

func NewProcesses() *Processes {
	return &Processes{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "processes")
		}),
		ctx:       context.Background(),
		processes: map[string]Process{},
		pre:       map[string]*Hooks{},
		post:      map[string]*Hooks{},
	}
}

func (ps *Processes) Context() context.Context {
	return ps.ctx
}

func (ps *Processes) SetContext(ctx context.Context) *Processes {
	ps.ctx = ctx

	return ps
}

func (ps *Processes) AddProcess(pr Process, override bool) error {
	if _, found := ps.processes[pr.name]; found {
		if !override {
			return errors.Errorf("process already added, %q", pr.name)
		}
	} else {
		ps.seq = append(ps.seq, pr.name)
	}

	ps.processes[pr.name] = pr

	return nil
}

func (ps *Processes) AddHook(prefix, process, name string, f ProcessFunc, override bool) error {
	var hooks map[string]*Hooks

	switch prefix {
	case HookPrefixPre:
		hooks = ps.pre
	case HookPrefixPost:
		hooks = ps.post
	default:
		return errors.Errorf("unknown hook prefix, %q", prefix)
	}

	hs, found := hooks[process]
	if !found {
		hs = NewHooks(fmt.Sprintf("%s-%s", prefix, process))
		_ = hs.SetLogging(ps.Logging)

		hooks[process] = hs
	}

	return hs.Add(name, f, override)
}

// Run runs the processes; the context is shared along the processes and
// their hooks.
func (ps *Processes) Run() error {
	order, err := ps.order()
	if err != nil {
		return err
	}

	ctx := ps.ctx

	for i := range order {
		name := order[i]

		if hs, found := ps.pre[name]; found {
			if ctx, err = hs.Run(ctx); err != nil {
				return errors.Wrapf(err, "pre hooks of %q", name)
			}
		}

		ps.Log().Debug().Str("process", name).Msg("running process")

		if ctx, err = ps.processes[name].f(ctx); err != nil {
			return errors.Wrapf(err, "process, %q", name)
		}

		if hs, found := ps.post[name]; found {
			if ctx, err = hs.Run(ctx); err != nil {
				return errors.Wrapf(err, "post hooks of %q", name)
			}
		}

		ps.ctx = ctx
	}

	return nil
}

// order sorts the processes topologically, keeping the added order among
// the independent ones.
func (ps *Processes) order() ([]string, error) {
	var order []string

	done := map[string]bool{}
	visiting := map[string]bool{}

	var visit func(string) error
	visit = func(name string) error {
		switch {
		case done[name]:
			return nil
		case visiting[name]:
			return errors.Errorf("circular requirement found, %q", name)
		}

		pr, found := ps.processes[name]
		if !found {
			return errors.Errorf("required process not found, %q", name)
		}

		visiting[name] = true

		for i := range pr.requires {
			if err := visit(pr.requires[i]); err != nil {
				return err
			}
		}

		visiting[name] = false
		done[name] = true
		order = append(order, name)

		return nil
	}

	for i := range ps.seq {
		if err := visit(ps.seq[i]); err != nil {
			return nil, err
		}
	}

	return order, nil
}
