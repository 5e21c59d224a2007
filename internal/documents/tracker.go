// Package documents tracks the optional and required file attachments of an
// onboarding session, grouped by category, validated against a configurable
// policy before acceptance.
package documents

import (
	"github.com/clumsypasta/abans-form/internal/models"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
)

// Slot keys.
const (
	SlotAadhar              = "aadhar"
	SlotPan                 = "pan"
	SlotSSCMarksheet        = "ssc_marksheet"
	SlotSSCPassing          = "ssc_passing"
	SlotHSCMarksheet        = "hsc_marksheet"
	SlotHSCPassing          = "hsc_passing"
	SlotGraduationMarksheet = "graduation_marksheet"
	SlotGraduationPassing   = "graduation_passing"
	SlotPostgradMarksheet   = "postgrad_marksheet"
	SlotPostgradPassing     = "postgrad_passing"
	SlotSalarySlips         = "salary_slips"
	SlotIncrementLetter     = "increment_letter"
	SlotOfferLetter         = "offer_letter"
	SlotRelievingLetter     = "relieving_letter"
)

var slotCatalog = []models.SlotSpec{
	{Key: SlotAadhar, Category: models.CategoryKYC},
	{Key: SlotPan, Category: models.CategoryKYC},
	{Key: SlotSSCMarksheet, Category: models.CategoryEducation},
	{Key: SlotSSCPassing, Category: models.CategoryEducation},
	{Key: SlotHSCMarksheet, Category: models.CategoryEducation},
	{Key: SlotHSCPassing, Category: models.CategoryEducation},
	{Key: SlotGraduationMarksheet, Category: models.CategoryEducation},
	{Key: SlotGraduationPassing, Category: models.CategoryEducation},
	{Key: SlotPostgradMarksheet, Category: models.CategoryEducation},
	{Key: SlotPostgradPassing, Category: models.CategoryEducation},
	{Key: SlotSalarySlips, Category: models.CategoryEmployment, Multi: true},
	{Key: SlotIncrementLetter, Category: models.CategoryEmployment},
	{Key: SlotOfferLetter, Category: models.CategoryEmployment},
	{Key: SlotRelievingLetter, Category: models.CategoryEmployment},
}

// Slots returns the full slot catalog in display order.
func Slots() []models.SlotSpec {
	return slotCatalog
}

// SlotByKey resolves a slot spec, reporting whether the key is known.
func SlotByKey(key string) (models.SlotSpec, bool) {
	for _, spec := range slotCatalog {
		if spec.Key == key {
			return spec, true
		}
	}
	return models.SlotSpec{}, false
}

// Tracker holds the staged attachments of one session. A rejected file never
// mutates its slot; it only records a slot-scoped error message, cleared on
// the next successful assignment or explicit removal. Callers serialize
// access (the owning session holds its lock).
type Tracker struct {
	policy Policy
	files  map[string][]models.StagedFile
	errs   map[string]string
}

// NewTracker builds an empty tracker under the given policy.
func NewTracker(policy Policy) *Tracker {
	return &Tracker{
		policy: policy,
		files:  make(map[string][]models.StagedFile),
		errs:   make(map[string]string),
	}
}

// Policy exposes the active validation policy.
func (t *Tracker) Policy() Policy {
	return t.policy
}

// Assign stages one file into a slot. On a single slot the file replaces any
// previous one; on a multi slot it appends subject to the count bound.
func (t *Tracker) Assign(slot string, file models.StagedFile) error {
	spec, ok := SlotByKey(slot)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "unknown document slot")
	}
	if msg := t.validate(file); msg != "" {
		return t.reject(slot, msg)
	}
	if spec.Multi && len(t.files[slot])+1 > t.policy.MaxMultiFiles {
		return t.reject(slot, t.policy.countMessage())
	}
	if spec.Multi {
		t.files[slot] = append(t.files[slot], file)
	} else {
		t.files[slot] = []models.StagedFile{file}
	}
	delete(t.errs, slot)
	return nil
}

// AssignBatch stages several files into a multi slot atomically: a batch
// that would exceed the bound, or contains any invalid file, is rejected in
// full and the slot keeps its prior contents.
func (t *Tracker) AssignBatch(slot string, files []models.StagedFile) error {
	spec, ok := SlotByKey(slot)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "unknown document slot")
	}
	if !spec.Multi {
		return appErrors.Clone(appErrors.ErrValidation, "slot accepts a single file")
	}
	if len(files) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "no files provided")
	}
	if len(t.files[slot])+len(files) > t.policy.MaxMultiFiles {
		return t.reject(slot, t.policy.countMessage())
	}
	for _, file := range files {
		if msg := t.validate(file); msg != "" {
			return t.reject(slot, msg)
		}
	}
	t.files[slot] = append(t.files[slot], files...)
	delete(t.errs, slot)
	return nil
}

// Remove clears a slot's files and its error.
func (t *Tracker) Remove(slot string) []models.StagedFile {
	removed := t.files[slot]
	delete(t.files, slot)
	delete(t.errs, slot)
	return removed
}

// Files returns the ordered staged files of a slot.
func (t *Tracker) Files(slot string) []models.StagedFile {
	return t.files[slot]
}

// Error returns the slot-scoped rejection message, empty when none.
func (t *Tracker) Error(slot string) string {
	return t.errs[slot]
}

// States returns the per-slot view for every catalog slot.
func (t *Tracker) States() []models.SlotState {
	states := make([]models.SlotState, 0, len(slotCatalog))
	for _, spec := range slotCatalog {
		states = append(states, models.SlotState{
			Key:   spec.Key,
			Files: append([]models.StagedFile(nil), t.files[spec.Key]...),
			Error: t.errs[spec.Key],
		})
	}
	return states
}

// Snapshot deep-copies the staged files keyed by slot, for handoff to the
// submission pipeline.
func (t *Tracker) Snapshot() map[string][]models.StagedFile {
	out := make(map[string][]models.StagedFile, len(t.files))
	for slot, files := range t.files {
		out[slot] = append([]models.StagedFile(nil), files...)
	}
	return out
}

func (t *Tracker) validate(file models.StagedFile) string {
	return t.policy.Validate(file)
}

func (t *Tracker) reject(slot, msg string) error {
	t.errs[slot] = msg
	return appErrors.Clone(appErrors.ErrValidation, msg)
}
