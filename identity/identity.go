package identity

import (
	"sync"

	"github.com/spikeekips/mitum-voting/base"
)

// Provider supplies the current caller and notifies when it changes. An empty
// address means no identity is available.
type Provider interface {
	CurrentIdentity() (base.Address, bool)
	OnIdentityChanged(func(base.Address))
}

// Switcher is an in-memory Provider; Switch and Clear fire the listeners
// synchronously, in the order they were added.
type Switcher struct {
	sync.RWMutex
	current   base.Address
	listeners []func(base.Address)
}

func NewSwitcher(current base.Address) *Switcher {
	return &Switcher{current: current}
}

func (sw *Switcher) CurrentIdentity() (base.Address, bool) {
	sw.RLock()
	defer sw.RUnlock()

	return sw.current, !sw.current.IsEmpty()
}

func (sw *Switcher) OnIdentityChanged(f func(base.Address)) {
	sw.Lock()
	defer sw.Unlock()

	sw.listeners = append(sw.listeners, f)
}

// Switch changes the current identity. Listeners are not called when a is the
// current identity.
func (sw *Switcher) Switch(a base.Address) {
	sw.Lock()
	if sw.current.Equal(a) {
		sw.Unlock()

		return
	}

	sw.current = a
	listeners := make([]func(base.Address), len(sw.listeners))
	copy(listeners, sw.listeners)
	sw.Unlock()

	for i := range listeners {
		listeners[i](a)
	}
}

func (sw *Switcher) Clear() {
	sw.Switch(base.EmptyAddress)
}
