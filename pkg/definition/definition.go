// Package definition loads machine configs from YAML. Hooks and conditions are referenced by
// name and resolved against a Hooks registry.
//
//	state: idle
//	enter: log
//	graph:
//	  - state: idle
//	    to:
//	      - state: running
//	        condition: ready
//	  - state: running
package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/stateforward/go-asm"
)

var ErrUnknownHook = errors.New("definition: unknown hook")

// Hooks maps the names used in a definition to their implementations.
type Hooks map[string]asm.Hook

func (hooks Hooks) resolve(name string) (asm.Hook, error) {
	if name == "" {
		return nil, nil
	}
	hook, ok := hooks[name]
	if !ok || hook == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHook, name)
	}
	return hook, nil
}

type Definition struct {
	State  string            `yaml:"state"`
	Before string            `yaml:"before,omitempty"`
	After  string            `yaml:"after,omitempty"`
	Enter  string            `yaml:"enter,omitempty"`
	Leave  string            `yaml:"leave,omitempty"`
	Graph  []StateDefinition `yaml:"graph"`
}

type StateDefinition struct {
	State      string                 `yaml:"state"`
	Enter      string                 `yaml:"enter,omitempty"`
	Leave      string                 `yaml:"leave,omitempty"`
	EnterEvent string                 `yaml:"enterEvent,omitempty"`
	LeaveEvent string                 `yaml:"leaveEvent,omitempty"`
	To         []TransitionDefinition `yaml:"to,omitempty"`
}

type TransitionDefinition struct {
	State       string `yaml:"state"`
	Condition   string `yaml:"condition,omitempty"`
	Before      string `yaml:"before,omitempty"`
	After       string `yaml:"after,omitempty"`
	BeforeEvent string `yaml:"beforeEvent,omitempty"`
	AfterEvent  string `yaml:"afterEvent,omitempty"`
}

// Parse decodes a YAML definition and resolves it into a config.
func Parse(data []byte, hooks Hooks) (asm.Config, error) {
	return Load(bytes.NewReader(data), hooks)
}

// Load is Parse reading from r. Unknown fields are rejected.
func Load(r io.Reader, hooks Hooks) (asm.Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var definition Definition
	if err := decoder.Decode(&definition); err != nil {
		return asm.Config{}, fmt.Errorf("definition: decode: %w", err)
	}
	return definition.Config(hooks)
}

// Config resolves every hook name of the definition. The returned config is not normalized.
func (definition Definition) Config(hooks Hooks) (asm.Config, error) {
	var err error
	resolve := func(name string) asm.Hook {
		hook, resolveErr := hooks.resolve(name)
		err = errors.Join(err, resolveErr)
		return hook
	}
	config := asm.Config{
		State:  definition.State,
		Before: resolve(definition.Before),
		After:  resolve(definition.After),
		Enter:  resolve(definition.Enter),
		Leave:  resolve(definition.Leave),
		Graph:  make([]asm.StateConfig, 0, len(definition.Graph)),
	}
	for _, state := range definition.Graph {
		stateConfig := asm.StateConfig{
			State:      state.State,
			Enter:      resolve(state.Enter),
			Leave:      resolve(state.Leave),
			EnterEvent: state.EnterEvent,
			LeaveEvent: state.LeaveEvent,
			To:         make([]asm.TransitionConfig, 0, len(state.To)),
		}
		for _, transition := range state.To {
			stateConfig.To = append(stateConfig.To, asm.TransitionConfig{
				State:       transition.State,
				Condition:   resolve(transition.Condition),
				Before:      resolve(transition.Before),
				After:       resolve(transition.After),
				BeforeEvent: transition.BeforeEvent,
				AfterEvent:  transition.AfterEvent,
			})
		}
		config.Graph = append(config.Graph, stateConfig)
	}
	if err != nil {
		return asm.Config{}, err
	}
	return config, nil
}

// Marshal renders the names of config back to YAML. Hooks are not representable and are left
// out; event names are written as given.
func Marshal(config asm.Config) ([]byte, error) {
	definition := Definition{State: config.State}
	for _, state := range config.Graph {
		stateDefinition := StateDefinition{
			State:      state.State,
			EnterEvent: state.EnterEvent,
			LeaveEvent: state.LeaveEvent,
		}
		for _, transition := range state.To {
			stateDefinition.To = append(stateDefinition.To, TransitionDefinition{
				State:       transition.State,
				BeforeEvent: transition.BeforeEvent,
				AfterEvent:  transition.AfterEvent,
			})
		}
		definition.Graph = append(definition.Graph, stateDefinition)
	}
	return yaml.Marshal(definition)
}
