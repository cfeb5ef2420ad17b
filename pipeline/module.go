package pipeline

import "fmt"

// Handler processes one Front for a module instance: it should walk
// Front.Input and, for each packet, call Front.Keep or
// Front.DropPacket (or both, for a module that clones packets), then
// return. Mirrors module_handler.
type Handler func(instance *ModuleConfig, front *Front)

// ConfigHandler builds or updates a module instance's configuration.
// old is the instance's previous ModuleConfig, or nil the first time a
// name is configured; the handler is responsible for preserving any
// runtime state old carries forward (counters, caches, compiled
// filters it doesn't need to rebuild). Mirrors module_config_handler.
type ConfigHandler func(data any, old *ModuleConfig) (*ModuleConfig, error)

// Module is a named packet-processing stage: a Handler that does the
// work and a ConfigHandler that turns configuration data into the
// state the Handler reads. Mirrors struct module.
type Module struct {
	Name    string
	Handler Handler
	Config  ConfigHandler
}

// ModuleConfig is one configured instance of a Module: a name (unique
// among instances of the same Module, so Chain reconfiguration can
// find and reuse it by name) plus whatever state the module's
// ConfigHandler attaches via Data.
type ModuleConfig struct {
	Name string
	Data any
}

// Registry maps module names to their Module definition. Built and
// owned by the caller and passed explicitly into Configure - never a
// package-level singleton (module_lookup/module_register in the
// original are free functions over implicit global state; this is the
// one place this port deliberately does not reach for source parity,
// since a mutable global registry is exactly the kind of hidden state
// Go idiom steers away from).
type Registry struct {
	modules map[string]*Module
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Register adds module to the registry. A second Register call for
// the same name replaces the first.
func (r *Registry) Register(m *Module) {
	r.modules[m.Name] = m
}

// Lookup returns the module registered under name, or nil if none is.
func (r *Registry) Lookup(name string) *Module {
	return r.modules[name]
}

// ErrModuleNotFound is returned by Configure when a stage names a
// module the Registry doesn't have.
type ErrModuleNotFound struct{ Name string }

func (e *ErrModuleNotFound) Error() string {
	return fmt.Sprintf("pipeline: module %q not registered", e.Name)
}
