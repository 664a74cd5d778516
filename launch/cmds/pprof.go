package cmds

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
)

var PprofVars = kong.Vars{
	"enable_pprof":   "false",
	"pprof_dir":      ".",
	"pprof_profiles": "cpu,mem",
}

type PprofFlags struct {
	EnableProfiling bool     `name:"enable-pprof" help:"enable profiling (default:${enable_pprof})" default:"${enable_pprof}"`         // nolint
	Dir             string   `name:"pprof-dir" help:"directory of profile files (default:${pprof_dir})" default:"${pprof_dir}"`        // nolint
	Profiles        []string `name:"pprof" help:"profiles, cpu, mem or trace (default:${pprof_profiles})" default:"${pprof_profiles}"` // nolint
}

var profilers = map[string]func(string) (func() error, error){
	"cpu":   runCPUPprof,
	"mem":   runMemPprof,
	"trace": runTracePprof,
}

// PprofFile is the profile file of the command; every command writes its own
// files, so a serve profile is not overwritten by a status run.
func PprofFile(dir, command, kind string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s-%s.pprof", DefaultName, command, kind))
}

// RunPprofs starts the profiles of the command. The goroutines started after
// it carry the "command" label, so the samples of the command can be told
// from the others in the same profile.
func RunPprofs(command string, flags *PprofFlags) (func() error, error) {
	if !flags.EnableProfiling {
		return func() error {
			return nil
		}, nil
	}

	if fi, err := os.Stat(flags.Dir); err != nil {
		return nil, errors.Wrap(err, "invalid pprof directory")
	} else if !fi.IsDir() {
		return nil, errors.Errorf("pprof directory, %q is not directory", flags.Dir)
	}

	kinds := map[string]bool{}
	for i := range flags.Profiles {
		kind := strings.TrimSpace(strings.ToLower(flags.Profiles[i]))
		if _, found := profilers[kind]; !found {
			return nil, errors.Errorf("unknown profile, %q", flags.Profiles[i])
		}

		kinds[kind] = true
	}

	pprof.SetGoroutineLabels(pprof.WithLabels(context.Background(), pprof.Labels("command", command)))

	var exitHooks []func() error
	for _, kind := range []string{"trace", "cpu", "mem"} {
		if !kinds[kind] {
			continue
		}

		c, err := profilers[kind](PprofFile(flags.Dir, command, kind))
		if err != nil {
			for i := range exitHooks {
				_ = exitHooks[i]()
			}

			return nil, err
		}

		exitHooks = append(exitHooks, c)
	}

	return func() error {
		var errs []string
		for i := range exitHooks {
			if err := exitHooks[i](); err != nil {
				errs = append(errs, err.Error())
			}
		}

		if len(errs) > 0 {
			return errors.Errorf("failed to close profiling: %v", errs)
		}

		return nil
	}, nil
}

func runTracePprof(s string) (func() error, error) {
	f, err := os.Create(filepath.Clean(s))
	if err != nil {
		return nil, err
	}

	if err := trace.Start(f); err != nil {
		_ = f.Close()

		return nil, err
	}

	return func() error {
		trace.Stop()

		return errors.Wrapf(f.Close(), "failed to close trace prof file, %s", s)
	}, nil
}

func runCPUPprof(s string) (func() error, error) {
	f, err := os.Create(filepath.Clean(s))
	if err != nil {
		return nil, err
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()

		return nil, err
	}

	return func() error {
		pprof.StopCPUProfile()

		return errors.Wrapf(f.Close(), "failed to close cpu prof file, %s", s)
	}, nil
}

// runMemPprof writes the heap profile when the command exits.
func runMemPprof(s string) (func() error, error) {
	f, err := os.Create(filepath.Clean(s))
	if err != nil {
		return nil, err
	}

	return func() error {
		defer func() {
			_ = f.Close()
		}()

		runtime.GC()

		return errors.Wrapf(pprof.WriteHeapProfile(f), "failed to write mem prof file, %s", s)
	}, nil
}
