package pipeline

import (
	"fmt"

	acl "github.com/packetforge/aclc"
)

// ACLModuleName is the Module name an ACL-filtering stage is
// registered under in a Registry.
const ACLModuleName = "acl"

// ACLConfigData is the StageConfig.Data an ACL module instance expects:
// a compiled filter and the action id that means "drop this packet".
type ACLConfigData struct {
	Filter     *acl.Filter
	DropAction uint32
}

type aclInstanceState struct {
	filter     *acl.Filter
	dropAction uint32
}

// NewACLModule returns a Module that classifies every packet in a
// Front's Input against a compiled acl.Filter, keeping packets whose
// action differs from DropAction and dropping the rest.
func NewACLModule() *Module {
	return &Module{
		Name:    ACLModuleName,
		Handler: aclHandler,
		Config:  aclConfigHandler,
	}
}

func aclConfigHandler(data any, old *ModuleConfig) (*ModuleConfig, error) {
	cfg, ok := data.(ACLConfigData)
	if !ok {
		return nil, fmt.Errorf("pipeline: acl module expects ACLConfigData, got %T", data)
	}
	if cfg.Filter == nil {
		return nil, fmt.Errorf("pipeline: acl module configured with a nil Filter")
	}

	name := ""
	if old != nil {
		name = old.Name
	}
	return &ModuleConfig{
		Name: name,
		Data: aclInstanceState{filter: cfg.Filter, dropAction: cfg.DropAction},
	}, nil
}

func aclHandler(instance *ModuleConfig, front *Front) {
	state := instance.Data.(aclInstanceState)

	for p := front.Input.First(); p != nil; {
		next := p.Next
		if state.filter.Classify(p) == state.dropAction {
			front.DropPacket(p)
		} else {
			front.Keep(p)
		}
		p = next
	}
}
