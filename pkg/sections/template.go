package sections

import (
	"fmt"

	"github.com/google/uuid"
)

// UnknownSectionError is returned when an operation targets a section id
// that is not part of the model.
type UnknownSectionError struct {
	ID string
}

func (e *UnknownSectionError) Error() string {
	return fmt.Sprintf("unknown section id: %s", e.ID)
}

// NewTemplateModel creates an empty, unsaved template.
func NewTemplateModel(name string) *TemplateModel {
	return &TemplateModel{
		Name:     name,
		Sections: []*SectionInstance{},
	}
}

// AddSection appends a new section of the given type. When variantID is
// non-empty, the matching preset overlay is applied on top of the type
// defaults, once, at creation time. The seeded settings are never
// recomputed by later renders.
func (m *TemplateModel) AddSection(typeName, variantID string) (*SectionInstance, error) {
	st, err := GetType(typeName)
	if err != nil {
		return nil, err
	}

	var overlay map[string]interface{}
	if variantID != "" {
		preset, err := ResolveVariant(variantID)
		if err != nil {
			return nil, err
		}
		if preset.Type != typeName {
			return nil, fmt.Errorf("preset variant %s belongs to type %s, not %s", variantID, preset.Type, typeName)
		}
		overlay = preset.Overlay
	}

	inst := NewSectionInstance(st, overlay)
	inst.ID = uuid.New().String()
	m.Sections = append(m.Sections, inst)
	return inst, nil
}

// RemoveSection deletes the section with the given id and reports whether a
// removal occurred. Removing an absent id is a safe no-op.
func (m *TemplateModel) RemoveSection(id string) bool {
	_, idx, ok := m.SectionByID(id)
	if !ok {
		return false
	}
	m.Sections = append(m.Sections[:idx], m.Sections[idx+1:]...)
	return true
}

// MoveSection moves the section to newIndex, clamping the index to the
// valid range. The relative order of all other sections is preserved.
func (m *TemplateModel) MoveSection(id string, newIndex int) bool {
	inst, idx, ok := m.SectionByID(id)
	if !ok {
		return false
	}
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(m.Sections)-1 {
		newIndex = len(m.Sections) - 1
	}
	if newIndex == idx {
		return true
	}
	m.Sections = append(m.Sections[:idx], m.Sections[idx+1:]...)
	rest := make([]*SectionInstance, 0, len(m.Sections)+1)
	rest = append(rest, m.Sections[:newIndex]...)
	rest = append(rest, inst)
	rest = append(rest, m.Sections[newIndex:]...)
	m.Sections = rest
	return true
}

// DuplicateSection deep-copies the section, assigns a fresh id and inserts
// the copy immediately after the source.
func (m *TemplateModel) DuplicateSection(id string) (*SectionInstance, error) {
	inst, idx, ok := m.SectionByID(id)
	if !ok {
		return nil, &UnknownSectionError{ID: id}
	}
	dup := inst.Clone()
	dup.ID = uuid.New().String()
	out := make([]*SectionInstance, 0, len(m.Sections)+1)
	out = append(out, m.Sections[:idx+1]...)
	out = append(out, dup)
	out = append(out, m.Sections[idx+1:]...)
	m.Sections = out
	return dup, nil
}

// ReconcileOrder rewrites the section order from an explicit external
// signal such as a drag-and-drop result. This is the only path by which
// order may be derived from outside the model. Ids not present in the
// model are ignored; sections missing from the signal keep their relative
// order after the reordered ones.
func (m *TemplateModel) ReconcileOrder(explicitOrder []string) {
	if len(explicitOrder) == 0 {
		return
	}
	placed := make(map[string]bool, len(explicitOrder))
	out := make([]*SectionInstance, 0, len(m.Sections))
	for _, id := range explicitOrder {
		if placed[id] {
			continue
		}
		if inst, _, ok := m.SectionByID(id); ok {
			out = append(out, inst)
			placed[id] = true
		}
	}
	for _, inst := range m.Sections {
		if !placed[inst.ID] {
			out = append(out, inst)
		}
	}
	m.Sections = out
}
