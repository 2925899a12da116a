// Package sections implements the section-based email template engine: a
// typed catalog of section kinds, preset variants, the ordered template
// model, the settings merge rules and the email-client-safe HTML renderer.
package sections

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldKind enumerates the supported field value kinds. The renderer and
// the settings UI route strictly by kind, never by inspecting value shape.
type FieldKind string

const (
	FieldKindText          FieldKind = "text"
	FieldKindTextarea      FieldKind = "textarea"
	FieldKindNumber        FieldKind = "number"
	FieldKindRange         FieldKind = "range"
	FieldKindColor         FieldKind = "color"
	FieldKindToggle        FieldKind = "toggle"
	FieldKindSelect        FieldKind = "select"
	FieldKindImage         FieldKind = "image"
	FieldKindDate          FieldKind = "date"
	FieldKindLinks         FieldKind = "links"
	FieldKindProductSelect FieldKind = "product_select"
	FieldKindJSON          FieldKind = "json"
)

// FieldOption is one entry of a select field's option list.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldSchema describes one configurable field of a section type.
type FieldSchema struct {
	Key        string        `json:"key"`
	Label      string        `json:"label"`
	Kind       FieldKind     `json:"kind"`
	AIEligible bool          `json:"aiEligible"`
	Options    []FieldOption `json:"options,omitempty"`
	// Min, Max and Step apply to number and range kinds only.
	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Step float64 `json:"step,omitempty"`
}

// SectionType is the immutable, registry-defined schema shared by all
// instances of a section kind.
type SectionType struct {
	Type     string                 `json:"type"`
	Label    string                 `json:"label"`
	Icon     string                 `json:"icon"`
	Category string                 `json:"category"`
	HasAI    bool                   `json:"hasAi"`
	Fields   []FieldSchema          `json:"fields"`
	Defaults map[string]interface{} `json:"defaults"`
}

// Field returns the schema for the given key.
func (t *SectionType) Field(key string) (FieldSchema, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// HasField reports whether key belongs to the type's schema.
func (t *SectionType) HasField(key string) bool {
	_, ok := t.Field(key)
	return ok
}

// AIEligibleKeys returns the keys AI generation may populate, in schema order.
func (t *SectionType) AIEligibleKeys() []string {
	var keys []string
	for _, f := range t.Fields {
		if f.AIEligible {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// internalKeyPrefix marks private settings keys (cached display metadata
// such as product names captured by a picker). They live alongside schema
// fields without colliding with them.
const internalKeyPrefix = "_"

// IsInternalKey reports whether a settings key is a private/internal key
// rather than a schema field.
func IsInternalKey(key string) bool {
	return strings.HasPrefix(key, internalKeyPrefix)
}

// SectionInstance is one concrete section of a template. The ID is assigned
// at creation and never reassigned, so it stays stable across reorder, edit
// and regenerate operations.
type SectionInstance struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Settings map[string]interface{} `json:"settings"`
	AIFlags  map[string]bool        `json:"aiFlags,omitempty"`
}

// Clone deep-copies the instance, including nested settings values. The
// copy keeps the same ID; callers duplicating a section assign a fresh one.
func (s *SectionInstance) Clone() *SectionInstance {
	if s == nil {
		return nil
	}
	clone := &SectionInstance{
		ID:       s.ID,
		Type:     s.Type,
		Settings: make(map[string]interface{}, len(s.Settings)),
		AIFlags:  make(map[string]bool, len(s.AIFlags)),
	}
	for k, v := range s.Settings {
		clone.Settings[k] = cloneValue(v)
	}
	for k, v := range s.AIFlags {
		clone.AIFlags[k] = v
	}
	return clone
}

// AIEnabled reports whether AI generation may write the given field right
// now. Fields without a flag entry default to enabled.
func (s *SectionInstance) AIEnabled(key string) bool {
	enabled, ok := s.AIFlags[key]
	if !ok {
		return true
	}
	return enabled
}

// cloneValue deep-copies JSON-shaped values (maps, slices, scalars).
func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

// TemplateModel is the ordered sequence of section instances making up one
// email layout. Order is user-controlled: only the explicit operations in
// template.go may change it, never a render or preview.
type TemplateModel struct {
	ID       string             `json:"id,omitempty"` // empty until first save
	Name     string             `json:"name"`
	Sections []*SectionInstance `json:"sections"`
}

// SectionByID returns the section with the given id and its position.
func (m *TemplateModel) SectionByID(id string) (*SectionInstance, int, bool) {
	for i, s := range m.Sections {
		if s.ID == id {
			return s, i, true
		}
	}
	return nil, -1, false
}

// SectionOrder returns the current section ids in order.
func (m *TemplateModel) SectionOrder() []string {
	order := make([]string, len(m.Sections))
	for i, s := range m.Sections {
		order[i] = s.ID
	}
	return order
}

// Clone deep-copies the whole model, so a snapshot can be marshalled or
// rendered on another goroutine while the original keeps taking edits.
func (m *TemplateModel) Clone() *TemplateModel {
	if m == nil {
		return nil
	}
	clone := &TemplateModel{
		ID:       m.ID,
		Name:     m.Name,
		Sections: make([]*SectionInstance, len(m.Sections)),
	}
	for i, s := range m.Sections {
		clone.Sections[i] = s.Clone()
	}
	return clone
}

// Validate checks structural integrity: unique non-empty ids and known
// section types.
func (m *TemplateModel) Validate() error {
	seen := make(map[string]bool, len(m.Sections))
	for i, s := range m.Sections {
		if s == nil {
			return fmt.Errorf("invalid template model: section %d is nil", i)
		}
		if s.ID == "" {
			return fmt.Errorf("invalid template model: section %d has no id", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("invalid template model: duplicate section id %s", s.ID)
		}
		seen[s.ID] = true
		if _, err := GetType(s.Type); err != nil {
			return fmt.Errorf("invalid template model: section %s: %w", s.ID, err)
		}
	}
	return nil
}

// MarshalTemplateModel serializes the model to its persisted JSON form.
func MarshalTemplateModel(m *TemplateModel) ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(m)
}

// UnmarshalTemplateModel parses the persisted JSON form back into a model.
// Section ids and types are validated so a corrupted payload is rejected at
// the load boundary rather than surfacing later as a render failure.
func UnmarshalTemplateModel(data []byte) (*TemplateModel, error) {
	var m TemplateModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
