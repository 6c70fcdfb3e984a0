// Package loader reads sequence definitions from YAML documents and turns
// them into sequences ready to be submitted to the engine
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kode4food/seqexec/internal/engine"
	"github.com/kode4food/seqexec/pkg/api"
)

type (
	// Definition is the YAML form of a sequence
	Definition struct {
		ID         string           `yaml:"id"`
		Instrument string           `yaml:"instrument"`
		Name       string           `yaml:"name,omitempty"`
		Observer   string           `yaml:"observer,omitempty"`
		Target     string           `yaml:"target,omitempty"`
		Steps      []StepDefinition `yaml:"steps"`
	}

	// StepDefinition is the YAML form of a step. Each entry of Executions
	// is a group of actions that run in parallel
	StepDefinition struct {
		Metadata   map[string]string    `yaml:"metadata,omitempty"`
		Breakpoint bool                 `yaml:"breakpoint,omitempty"`
		Skip       bool                 `yaml:"skip,omitempty"`
		Executions [][]ActionDefinition `yaml:"executions"`
	}

	// ActionDefinition names exactly one of the resource to configure or
	// the instrument to observe with
	ActionDefinition struct {
		Configure string `yaml:"configure,omitempty"`
		Observe   string `yaml:"observe,omitempty"`
	}
)

var (
	ErrInvalidDefinition = errors.New("invalid sequence definition")
	ErrUnknownResource   = errors.New("unknown resource")
	ErrAmbiguousAction   = errors.New(
		"action must name exactly one of configure or observe",
	)
	ErrDuplicateID = errors.New("duplicate sequence id")
)

var extensions = []string{".yaml", ".yml"}

// Parse decodes a single YAML sequence definition
func Parse(data []byte) (*api.Sequence, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return def.Sequence()
}

// LoadFile reads and parses one sequence definition file
func LoadFile(path string) (*api.Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	seq, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return seq, nil
}

// LoadDir parses every YAML file in a directory, in file name order.
// Sequence IDs must be unique across the directory
func LoadDir(dir string) ([]*api.Sequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var res []*api.Sequence
	seen := map[api.SequenceID]string{}
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || !slices.Contains(extensions, ext) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		seq, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if other, ok := seen[seq.ID]; ok {
			return nil, fmt.Errorf("%w: %s in %s and %s",
				ErrDuplicateID, seq.ID, other, path)
		}
		seen[seq.ID] = path
		res = append(res, seq)
	}
	return res, nil
}

// Sequence converts the definition into a validated, pending sequence
func (d *Definition) Sequence() (*api.Sequence, error) {
	inst, err := resource(d.Instrument)
	if err != nil {
		return nil, fmt.Errorf("%w: instrument: %w", ErrInvalidDefinition, err)
	}

	seq := &api.Sequence{
		ID: api.SequenceID(d.ID),
		Metadata: api.SequenceMetadata{
			Instrument: inst,
			Name:       d.Name,
			Observer:   d.Observer,
			Target:     d.Target,
		},
		Steps: make([]api.Step, len(d.Steps)),
	}

	for si, sd := range d.Steps {
		step, err := sd.step()
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %w",
				ErrInvalidDefinition, si, err)
		}
		seq.Steps[si] = step
	}

	if err := engine.ValidateSequence(seq); err != nil {
		return nil, err
	}
	return seq, nil
}

func (s *StepDefinition) step() (api.Step, error) {
	execs := make(api.Executions, len(s.Executions))
	for gi, gd := range s.Executions {
		group := make(api.Execution, len(gd))
		for ai, ad := range gd {
			a, err := ad.action()
			if err != nil {
				return api.Step{}, fmt.Errorf("group %d action %d: %w",
					gi, ai, err)
			}
			group[ai] = a
		}
		execs[gi] = group
	}

	var meta api.Metadata
	if len(s.Metadata) > 0 {
		meta = api.Metadata(s.Metadata)
	}
	return api.Step{
		Metadata:   meta,
		Executions: execs,
		Breakpoint: s.Breakpoint,
		Skip:       s.Skip,
	}, nil
}

func (a ActionDefinition) action() (api.Action, error) {
	switch {
	case a.Configure != "" && a.Observe == "":
		r, err := resource(a.Configure)
		if err != nil {
			return api.Action{}, err
		}
		return api.Configure(r), nil
	case a.Observe != "" && a.Configure == "":
		r, err := resource(a.Observe)
		if err != nil {
			return api.Action{}, err
		}
		return api.Observe(r), nil
	default:
		return api.Action{}, ErrAmbiguousAction
	}
}

func resource(name string) (api.Resource, error) {
	r := api.Resource(name)
	if !r.IsKnown() {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}
	return r, nil
}
