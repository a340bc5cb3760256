// Package registry maintains the singleton admin registry that gates
// privileged bounty operations. The registry is created once at deployment
// and persists for the node's full lifetime; only the current admin can
// rotate the admin identity, and rotations take effect immediately for
// subsequent calls.
package registry

import (
	"encoding/hex"

	"bountychain/core/events"
	"bountychain/core/types"
)

// Registry holds the current administrator identity.
type Registry struct {
	Admin [20]byte
}

// Clone returns a copy of the registry.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

type engineState interface {
	RegistryGet() (*Registry, bool)
	RegistryPut(*Registry) error
}

type registryEvent struct {
	evt *types.Event
}

func (e registryEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e registryEvent) Event() *types.Event { return e.evt }

// EventTypeAdminRotated is emitted when the admin identity changes, including
// the initial bootstrap.
const EventTypeAdminRotated = "registry.admin_rotated"

func newAdminEvent(previous, current [20]byte) *types.Event {
	attrs := map[string]string{
		"admin": hex.EncodeToString(current[:]),
	}
	if previous != ([20]byte{}) {
		attrs["previousAdmin"] = hex.EncodeToString(previous[:])
	}
	return &types.Event{Type: EventTypeAdminRotated, Attributes: attrs}
}

// Engine wires the registry operations with external state.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine creates a registry engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(registryEvent{evt: event})
}

// Initialize creates the registry with the caller as the first admin. It is
// valid exactly once; any later call fails regardless of caller.
func (e *Engine) Initialize(caller [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if caller == ([20]byte{}) {
		return ErrInvalidAdmin
	}
	if _, ok := e.state.RegistryGet(); ok {
		return ErrAlreadyInitialized
	}
	reg := &Registry{Admin: caller}
	if err := e.state.RegistryPut(reg); err != nil {
		return err
	}
	e.emit(newAdminEvent([20]byte{}, caller))
	return nil
}

// Rotate replaces the admin identity. Only the current admin may rotate; the
// zero identity and a no-op rotation to the current admin are both rejected
// as invalid input, not treated as success.
func (e *Engine) Rotate(caller [20]byte, newAdmin [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	reg, ok := e.state.RegistryGet()
	if !ok {
		return ErrNotInitialized
	}
	if caller != reg.Admin {
		return ErrUnauthorized
	}
	if newAdmin == ([20]byte{}) {
		return ErrInvalidAdmin
	}
	if newAdmin == reg.Admin {
		return ErrUnchangedAdmin
	}
	previous := reg.Admin
	reg.Admin = newAdmin
	if err := e.state.RegistryPut(reg); err != nil {
		return err
	}
	e.emit(newAdminEvent(previous, newAdmin))
	return nil
}

// Admin returns the current admin identity, reading the registry at call
// time so a rotation is observed immediately.
func (e *Engine) Admin() ([20]byte, bool) {
	if e == nil || e.state == nil {
		return [20]byte{}, false
	}
	reg, ok := e.state.RegistryGet()
	if !ok {
		return [20]byte{}, false
	}
	return reg.Admin, true
}
