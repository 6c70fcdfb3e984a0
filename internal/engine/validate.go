package engine

import (
	"errors"
	"fmt"

	"github.com/kode4food/seqexec/pkg/api"
	"github.com/kode4food/seqexec/pkg/util"
)

var (
	ErrInvalidSequence = errors.New("invalid sequence")
	ErrMissingID       = errors.New("sequence id is required")
	ErrSharedResource  = errors.New("resource used twice in one group")
	ErrUnknownKind     = errors.New("unknown action kind")
	ErrMissingResource = errors.New("action has no resource")
)

// ValidateSequence checks that a sequence can be loaded: it must have an
// ID, and every parallel group must reference disjoint resources
func ValidateSequence(seq *api.Sequence) error {
	if seq == nil || seq.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSequence, ErrMissingID)
	}
	for si, step := range seq.Steps {
		for gi, ex := range step.Executions {
			if err := validateGroup(ex); err != nil {
				return fmt.Errorf("%w: %s step %d group %d: %w",
					ErrInvalidSequence, seq.ID, si, gi, err)
			}
		}
	}
	return nil
}

func validateGroup(ex api.Execution) error {
	seen := util.Set[api.Resource]{}
	for _, a := range ex {
		switch a.Kind {
		case api.ActionConfigure, api.ActionObserve:
		default:
			return fmt.Errorf("%w: %s", ErrUnknownKind, a.Kind)
		}
		if a.Resource == "" {
			return ErrMissingResource
		}
		if seen.Contains(a.Resource) {
			return fmt.Errorf("%w: %s", ErrSharedResource, a.Resource)
		}
		seen.Add(a.Resource)
	}
	return nil
}
