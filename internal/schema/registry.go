// Package schema declares every validated form field and its active rule
// set. Validation is pure and total: the same record always yields the same
// error mapping and nothing is mutated. The rule set is swappable without
// touching the session state machine.
package schema

import (
	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/pkg/config"
)

// Check evaluates one rule against a record, returning an error message or
// the empty string.
type Check func(*models.Submission) string

// FieldSpec binds a field name to its ordered rule checks. The first failing
// check supplies the field's message.
type FieldSpec struct {
	Name   string
	Checks []Check
}

// Registry holds the field specs for the active schema variant.
type Registry struct {
	variant string
	specs   []FieldSpec
	byName  map[string]int
}

// New builds a registry for the given variant; anything but the strict
// variant yields the lenient rule set.
func New(variant string) *Registry {
	var specs []FieldSpec
	if variant == config.VariantStrict {
		specs = strictSpecs()
		variant = config.VariantStrict
	} else {
		specs = lenientSpecs()
		variant = config.VariantLenient
	}
	byName := make(map[string]int, len(specs))
	for i, spec := range specs {
		byName[spec.Name] = i
	}
	return &Registry{variant: variant, specs: specs, byName: byName}
}

// Variant returns the active rule set name.
func (r *Registry) Variant() string {
	return r.variant
}

// Strict reports whether proceed-time section gating is active.
func (r *Registry) Strict() bool {
	return r.variant == config.VariantStrict
}

// Validate evaluates the record against every registered field, or against
// the named subset when fields are given. Field names without a spec are
// ignored, not errors.
func (r *Registry) Validate(record *models.Submission, fields ...string) map[string]string {
	errs := make(map[string]string)
	if record == nil {
		return errs
	}
	if len(fields) == 0 {
		for _, spec := range r.specs {
			r.check(record, spec, errs)
		}
		return errs
	}
	for _, name := range fields {
		if i, ok := r.byName[name]; ok {
			r.check(record, r.specs[i], errs)
		}
	}
	return errs
}

func (r *Registry) check(record *models.Submission, spec FieldSpec, errs map[string]string) {
	for _, check := range spec.Checks {
		if msg := check(record); msg != "" {
			errs[spec.Name] = msg
			return
		}
	}
}
