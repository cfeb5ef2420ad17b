package pipeline

import (
	"fmt"
	"sync/atomic"
)

// StageConfig names one chain position: which Module to run and which
// named instance of it to configure, plus the raw configuration data
// for that instance. Mirrors pipeline_module_config_data.
type StageConfig struct {
	ModuleName string
	ConfigName string
	Data       any
}

// stage is one resolved, ready-to-run chain position.
type stage struct {
	module *Module
	config *ModuleConfig
}

// chain is one fully-built, immutable module sequence. A *Pipeline
// never mutates a chain in place - Configure always builds a fresh one
// and swaps the pointer, so a Process call that is mid-flight always
// finishes against the chain it started with. Mirrors
// pipeline->module_configs, an immutable singly linked list built
// fresh by pipeline_configure and swapped in with one pointer write.
type chain struct {
	stages []stage
}

// Pipeline runs a Front through a hot-swappable chain of configured
// module instances. The zero Pipeline is ready to use and runs an
// empty chain (Process is then a no-op) until Configure is called.
type Pipeline struct {
	current atomic.Pointer[chain]
}

// Configure rebuilds the chain from configs, in order, against
// registry. For each stage it looks for an existing instance with the
// same (module name, config name) in the chain currently live and, if
// found, hands its ModuleConfig to the module's ConfigHandler as old
// so the module can preserve whatever runtime state it wants to carry
// forward; otherwise old is nil. The new chain is only swapped in
// after every stage configures successfully, so a failed Configure
// call leaves the previously running chain untouched.
//
// Mirrors pipeline_configure's find-or-create-then-swap-at-the-end
// structure; the original's FIXME about freeing the old chain does not
// apply here, since superseded *chain values are simply left for the
// garbage collector once no Process call still holds them.
func (p *Pipeline) Configure(registry *Registry, configs []StageConfig) error {
	prev := p.current.Load()

	next := &chain{stages: make([]stage, 0, len(configs))}
	for i, cfg := range configs {
		module := registry.Lookup(cfg.ModuleName)
		if module == nil {
			return &ErrModuleNotFound{Name: cfg.ModuleName}
		}

		var old *ModuleConfig
		if prev != nil {
			old = findStageConfig(prev, cfg.ModuleName, cfg.ConfigName)
		}

		instance, err := module.Config(cfg.Data, old)
		if err != nil {
			return fmt.Errorf("pipeline: configuring stage %d (%s/%s): %w", i, cfg.ModuleName, cfg.ConfigName, err)
		}
		if instance.Name == "" {
			instance.Name = cfg.ConfigName
		}

		next.stages = append(next.stages, stage{module: module, config: instance})
	}

	p.current.Store(next)
	return nil
}

// findStageConfig scans c's stages for an instance matching
// moduleName/configName, mirroring pipeline_find_module_config's
// linear reuse scan.
func findStageConfig(c *chain, moduleName, configName string) *ModuleConfig {
	for _, s := range c.stages {
		if s.module.Name == moduleName && s.config.Name == configName {
			return s.config
		}
	}
	return nil
}

// Process drives front through every stage of the currently live
// chain, in order, switching Input/Output between each so one stage's
// kept packets become the next stage's input. Mirrors pipeline_process.
func (p *Pipeline) Process(front *Front) {
	c := p.current.Load()
	if c == nil {
		return
	}
	for _, s := range c.stages {
		front.Switch()
		s.module.Handler(s.config, front)
	}
}
