package sections

// Preset is a named settings overlay for one section type. Applying a
// preset is the template model's job, done once when the section is
// created; the library itself is pure data.
type Preset struct {
	VariantID string                 `json:"variantId"`
	Type      string                 `json:"type"`
	Label     string                 `json:"label"`
	Overlay   map[string]interface{} `json:"settingsOverlay"`
}

// PresetGroup is one palette category with its presets in display order.
type PresetGroup struct {
	Category string   `json:"category"`
	Presets  []Preset `json:"presets"`
}

var presets = []Preset{
	{
		VariantID: "header-classic",
		Type:      "header",
		Label:     "Classic Light",
		Overlay:   map[string]interface{}{},
	},
	{
		VariantID: "header-dark",
		Type:      "header",
		Label:     "Midnight",
		Overlay: map[string]interface{}{
			"background_color": "#111827",
			"text_color":       "#f9fafb",
		},
	},
	{
		VariantID: "hero-forest-green",
		Type:      "hero",
		Label:     "Forest Green",
		Overlay: map[string]interface{}{
			"background_color": "#1b4332",
			"text_color":       "#ffffff",
		},
	},
	{
		VariantID: "hero-sunset",
		Type:      "hero",
		Label:     "Sunset Glow",
		Overlay: map[string]interface{}{
			"background_color": "#7c2d12",
			"text_color":       "#ffedd5",
			"align":            "left",
		},
	},
	{
		VariantID: "products-three-up",
		Type:      "products",
		Label:     "Three Up",
		Overlay: map[string]interface{}{
			"columns": "3",
		},
	},
	{
		VariantID: "products-spotlight",
		Type:      "products",
		Label:     "Spotlight",
		Overlay: map[string]interface{}{
			"columns":    "1",
			"show_price": true,
		},
	},
	{
		VariantID: "coupon-golden-ribbon",
		Type:      "coupon",
		Label:     "Golden Ribbon",
		Overlay: map[string]interface{}{
			"background_color": "#facc15",
			"border_style":     "solid",
		},
	},
	{
		VariantID: "divider-hairline",
		Type:      "divider",
		Label:     "Hairline",
		Overlay: map[string]interface{}{
			"thickness": float64(1),
			"spacing":   float64(12),
		},
	},
	{
		VariantID: "footer-slate",
		Type:      "footer",
		Label:     "Slate",
		Overlay: map[string]interface{}{
			"background_color": "#1e293b",
		},
	},
}

var presetsByVariant map[string]*Preset

func init() {
	presetsByVariant = make(map[string]*Preset, len(presets))
	for i := range presets {
		presetsByVariant[presets[i].VariantID] = &presets[i]
	}
}

// ResolveVariant returns the preset for a variant id.
func ResolveVariant(variantID string) (*Preset, error) {
	p, ok := presetsByVariant[variantID]
	if !ok {
		return nil, &UnknownVariantError{VariantID: variantID}
	}
	return p, nil
}

// ListPresetsByCategory groups the preset library by the section type's
// palette category, preserving the stable category and preset order.
func ListPresetsByCategory() []PresetGroup {
	var groups []PresetGroup
	for _, cat := range Categories() {
		group := PresetGroup{Category: cat}
		for _, p := range presets {
			t, err := GetType(p.Type)
			if err != nil {
				continue
			}
			if t.Category == cat {
				group.Presets = append(group.Presets, p)
			}
		}
		if len(group.Presets) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}
