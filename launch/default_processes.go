package launch

import (
	"github.com/spikeekips/mitum-voting/launch/pm"
	"github.com/spikeekips/mitum-voting/launch/process"
)

// ClientProcesses are enough to drive the session from the command line.
var ClientProcesses = []pm.Process{
	process.ProcessorConfig,
	process.ProcessorIdentity,
	process.ProcessorLedger,
	process.ProcessorJournal,
	process.ProcessorController,
}

// ServeProcesses add the http view of the session.
var ServeProcesses = append(append([]pm.Process{}, ClientProcesses...),
	process.ProcessorNetwork,
	process.ProcessorHTTPServer,
)

var defaultHooks = []pm.Hook{
	pm.NewHook(pm.HookPrefixPost, process.ProcessNameNetwork,
		process.HookNameNetworkRateLimit, process.HookNetworkRateLimit),
}

// DefaultProcesses prepares the processes; hooks of the missing processes are
// ignored.
func DefaultProcesses(processes []pm.Process) *pm.Processes {
	ps := pm.NewProcesses()

	names := map[string]bool{}

	for i := range processes {
		if err := ps.AddProcess(processes[i], false); err != nil {
			panic(err)
		}

		names[processes[i].Name()] = true
	}

	for i := range defaultHooks {
		hook := defaultHooks[i]
		if !names[hook.Process] {
			continue
		}

		if err := ps.AddHook(hook.Prefix, hook.Process, hook.Name, hook.F, true); err != nil {
			panic(err)
		}
	}

	return ps
}
