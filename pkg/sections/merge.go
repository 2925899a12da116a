package sections

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dompl/campaignforge/pkg/logger"
)

// NewSectionInstance seeds a section's settings from the type defaults,
// with an optional preset overlay on top. Seeding happens exactly once
// here; nothing re-applies defaults to an existing instance afterwards.
// Per-field AI flags start enabled for every AI-eligible field.
func NewSectionInstance(st *SectionType, overlay map[string]interface{}) *SectionInstance {
	inst := &SectionInstance{
		Type:     st.Type,
		Settings: make(map[string]interface{}, len(st.Defaults)),
		AIFlags:  make(map[string]bool),
	}
	for k, v := range st.Defaults {
		inst.Settings[k] = cloneValue(v)
	}
	for k, v := range overlay {
		if st.HasField(k) {
			inst.Settings[k] = cloneValue(v)
		}
	}
	for _, f := range st.Fields {
		if f.AIEligible {
			inst.AIFlags[f.Key] = true
		}
	}
	return inst
}

// PatchResult reports the per-field outcome of an AI patch so the caller
// can decide credit/refund policy on partial failures.
type PatchResult struct {
	Applied []string
	Skipped []string // fields pinned by a disabled AI flag
	Unknown []string // keys not in the type's schema
}

// ApplyAIPatch merges an AI-generated field patch into the section's
// settings. A field is written only when its AI flag is enabled; fields the
// user toggled to manual keep their pinned value even when the patch
// includes them. Keys outside the schema are logged and ignored. Applying
// the same patch twice yields the same settings as applying it once.
func ApplyAIPatch(inst *SectionInstance, st *SectionType, patch map[string]interface{}, log logger.Logger) PatchResult {
	var result PatchResult
	for _, f := range st.Fields {
		value, ok := patch[f.Key]
		if !ok {
			continue
		}
		if f.AIEligible && !inst.AIEnabled(f.Key) {
			result.Skipped = append(result.Skipped, f.Key)
			continue
		}
		inst.Settings[f.Key] = cloneValue(value)
		result.Applied = append(result.Applied, f.Key)
	}
	for key := range patch {
		if !st.HasField(key) {
			result.Unknown = append(result.Unknown, key)
			if log != nil {
				log.WithFields(map[string]interface{}{
					"section_id":   inst.ID,
					"section_type": inst.Type,
					"field":        key,
				}).Warn("ignoring AI patch for unknown field")
			}
		}
	}
	return result
}

// ApplyAIPatchJSON ingests a patch arriving as a loose JSON object from the
// generation collaborator and merges it through ApplyAIPatch.
func ApplyAIPatchJSON(inst *SectionInstance, st *SectionType, raw []byte, log logger.Logger) (PatchResult, error) {
	if !gjson.ValidBytes(raw) {
		return PatchResult{}, fmt.Errorf("AI patch is not valid JSON")
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return PatchResult{}, fmt.Errorf("AI patch must be a JSON object, got %s", parsed.Type)
	}
	patch := make(map[string]interface{})
	parsed.ForEach(func(key, value gjson.Result) bool {
		patch[key.String()] = value.Value()
		return true
	})
	return ApplyAIPatch(inst, st, patch, log), nil
}

// ApplyUserEdit writes a field value directly. User edits always win over
// the current value; they do not touch the AI flag. The value is validated
// against the field schema first.
func ApplyUserEdit(inst *SectionInstance, st *SectionType, key string, value interface{}) error {
	if IsInternalKey(key) {
		inst.Settings[key] = cloneValue(value)
		return nil
	}
	f, ok := st.Field(key)
	if !ok {
		return fmt.Errorf("section type %s has no field %s", st.Type, key)
	}
	if err := ValidateFieldValue(f, value); err != nil {
		return err
	}
	inst.Settings[key] = cloneValue(value)
	return nil
}

// SetAIFlag toggles whether AI generation may write the field. Toggling in
// either direction never clears the current value: switching to manual
// simply pins what is there, switching back waits for the next successful
// generation to overwrite it.
func SetAIFlag(inst *SectionInstance, st *SectionType, key string, enabled bool) error {
	f, ok := st.Field(key)
	if !ok {
		return fmt.Errorf("section type %s has no field %s", st.Type, key)
	}
	if !f.AIEligible {
		return fmt.Errorf("field %s of section type %s is not AI-eligible", key, st.Type)
	}
	if inst.AIFlags == nil {
		inst.AIFlags = make(map[string]bool)
	}
	inst.AIFlags[key] = enabled
	return nil
}
