package sections

import (
	"fmt"
)

// UnknownTypeError is returned when a section type is not in the catalog.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown section type: %s", e.Type)
}

// UnknownVariantError is returned when a preset variant id cannot be resolved.
type UnknownVariantError struct {
	VariantID string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown preset variant: %s", e.VariantID)
}

// Catalog categories, in palette display order.
const (
	CategoryStructure = "Structure"
	CategoryContent   = "Content"
	CategoryCommerce  = "Commerce"
	CategoryUtility   = "Social & Utility"
)

var categoryOrder = []string{CategoryStructure, CategoryContent, CategoryCommerce, CategoryUtility}

// catalog is the fixed section type registry. It is configuration data,
// read-only at runtime.
var catalog = []*SectionType{
	{
		Type:     "header",
		Label:    "Header",
		Icon:     "layout-top",
		Category: CategoryStructure,
		HasAI:    true,
		Fields: []FieldSchema{
			{Key: "logo_url", Label: "Logo", Kind: FieldKindImage},
			{Key: "store_name", Label: "Store name", Kind: FieldKindText, AIEligible: true},
			{Key: "background_color", Label: "Background", Kind: FieldKindColor},
			{Key: "text_color", Label: "Text color", Kind: FieldKindColor},
			{Key: "show_nav", Label: "Show navigation", Kind: FieldKindToggle},
			{Key: "nav_links", Label: "Navigation links", Kind: FieldKindLinks},
		},
		Defaults: map[string]interface{}{
			"logo_url":         "",
			"store_name":       "Your Store",
			"background_color": "#ffffff",
			"text_color":       "#1f2937",
			"show_nav":         true,
			"nav_links":        []interface{}{},
		},
	},
	{
		Type:     "hero",
		Label:    "Hero",
		Icon:     "sparkles",
		Category: CategoryContent,
		HasAI:    true,
		Fields: []FieldSchema{
			{Key: "headline", Label: "Headline", Kind: FieldKindText, AIEligible: true},
			{Key: "subtext", Label: "Subtext", Kind: FieldKindTextarea, AIEligible: true},
			{Key: "image_url", Label: "Image", Kind: FieldKindImage},
			{Key: "background_color", Label: "Background", Kind: FieldKindColor},
			{Key: "text_color", Label: "Text color", Kind: FieldKindColor},
			{Key: "align", Label: "Alignment", Kind: FieldKindSelect, Options: alignOptions},
			{Key: "button_label", Label: "Button label", Kind: FieldKindText},
			{Key: "button_url", Label: "Button URL", Kind: FieldKindText},
		},
		Defaults: map[string]interface{}{
			"headline":         "Big news for your inbox",
			"subtext":          "We have something special for you.",
			"image_url":        "",
			"background_color": "#f4f4f5",
			"text_color":       "#111827",
			"align":            "center",
			"button_label":     "Shop now",
			"button_url":       "",
		},
	},
	{
		Type:     "intro",
		Label:    "Text",
		Icon:     "align-left",
		Category: CategoryContent,
		HasAI:    true,
		Fields: []FieldSchema{
			{Key: "heading", Label: "Heading", Kind: FieldKindText, AIEligible: true},
			{Key: "body", Label: "Body", Kind: FieldKindTextarea, AIEligible: true},
			{Key: "font_size", Label: "Font size", Kind: FieldKindRange, Min: 12, Max: 24, Step: 1},
			{Key: "align", Label: "Alignment", Kind: FieldKindSelect, Options: alignOptions},
		},
		Defaults: map[string]interface{}{
			"heading":   "A quick hello",
			"body":      "",
			"font_size": float64(16),
			"align":     "left",
		},
	},
	{
		Type:     "image_banner",
		Label:    "Image banner",
		Icon:     "image",
		Category: CategoryContent,
		HasAI:    true,
		Fields: []FieldSchema{
			{Key: "image_url", Label: "Image", Kind: FieldKindImage},
			{Key: "alt_text", Label: "Alt text", Kind: FieldKindText, AIEligible: true},
			{Key: "link_url", Label: "Link URL", Kind: FieldKindText},
			{Key: "full_width", Label: "Full width", Kind: FieldKindToggle},
		},
		Defaults: map[string]interface{}{
			"image_url":  "",
			"alt_text":   "",
			"link_url":   "",
			"full_width": false,
		},
	},
	{
		Type:     "products",
		Label:    "Products",
		Icon:     "shopping-bag",
		Category: CategoryCommerce,
		HasAI:    true,
		Fields: []FieldSchema{
			{Key: "title", Label: "Title", Kind: FieldKindText, AIEligible: true},
			{Key: "product_ids", Label: "Products", Kind: FieldKindProductSelect},
			{Key: "columns", Label: "Columns", Kind: FieldKindSelect, Options: []FieldOption{
				{Value: "1", Label: "One"},
				{Value: "2", Label: "Two"},
				{Value: "3", Label: "Three"},
			}},
			{Key: "show_price", Label: "Show prices", Kind: FieldKindToggle},
			{Key: "button_label", Label: "Button label", Kind: FieldKindText},
		},
		Defaults: map[string]interface{}{
			"title":        "Featured products",
			"product_ids":  []interface{}{},
			"columns":      "2",
			"show_price":   true,
			"button_label": "View product",
		},
	},
	{
		Type:     "coupon",
		Label:    "Coupon",
		Icon:     "ticket",
		Category: CategoryCommerce,
		HasAI:    true,
		Fields: []FieldSchema{
			{Key: "title", Label: "Title", Kind: FieldKindText, AIEligible: true},
			{Key: "code", Label: "Coupon code", Kind: FieldKindText},
			{Key: "description", Label: "Description", Kind: FieldKindTextarea, AIEligible: true},
			{Key: "expiry", Label: "Expiry date", Kind: FieldKindDate},
			{Key: "background_color", Label: "Background", Kind: FieldKindColor},
			{Key: "border_style", Label: "Border style", Kind: FieldKindSelect, Options: []FieldOption{
				{Value: "solid", Label: "Solid"},
				{Value: "dashed", Label: "Dashed"},
				{Value: "dotted", Label: "Dotted"},
			}},
		},
		Defaults: map[string]interface{}{
			"title":            "A little thank you",
			"code":             "WELCOME10",
			"description":      "Use this code at checkout.",
			"expiry":           "",
			"background_color": "#fef3c7",
			"border_style":     "dashed",
		},
	},
	{
		Type:     "social",
		Label:    "Social",
		Icon:     "share",
		Category: CategoryUtility,
		HasAI:    true,
		Fields: []FieldSchema{
			{Key: "title", Label: "Title", Kind: FieldKindText, AIEligible: true},
			// AI-eligible even though the key contains "link": eligibility is
			// an explicit schema property, not a key naming convention.
			{Key: "link_teaser", Label: "Teaser", Kind: FieldKindText, AIEligible: true},
			{Key: "icon_size", Label: "Icon size", Kind: FieldKindRange, Min: 16, Max: 48, Step: 4},
			{Key: "links", Label: "Profiles", Kind: FieldKindLinks},
		},
		Defaults: map[string]interface{}{
			"title":       "Follow us",
			"link_teaser": "",
			"icon_size":   float64(32),
			"links":       []interface{}{},
		},
	},
	{
		Type:     "divider",
		Label:    "Divider",
		Icon:     "minus",
		Category: CategoryUtility,
		HasAI:    false,
		Fields: []FieldSchema{
			{Key: "color", Label: "Color", Kind: FieldKindColor},
			{Key: "thickness", Label: "Thickness", Kind: FieldKindNumber, Min: 1, Max: 10},
			{Key: "spacing", Label: "Spacing", Kind: FieldKindRange, Min: 8, Max: 48, Step: 4},
		},
		Defaults: map[string]interface{}{
			"color":     "#e5e7eb",
			"thickness": float64(1),
			"spacing":   float64(24),
		},
	},
	{
		Type:     "footer",
		Label:    "Footer",
		Icon:     "layout-bottom",
		Category: CategoryStructure,
		HasAI:    true,
		Fields: []FieldSchema{
			{Key: "company_name", Label: "Company name", Kind: FieldKindText},
			{Key: "address", Label: "Postal address", Kind: FieldKindTextarea},
			{Key: "unsubscribe_text", Label: "Unsubscribe text", Kind: FieldKindText, AIEligible: true},
			{Key: "background_color", Label: "Background", Kind: FieldKindColor},
			{Key: "text_color", Label: "Text color", Kind: FieldKindColor},
		},
		Defaults: map[string]interface{}{
			"company_name":     "",
			"address":          "",
			"unsubscribe_text": "Unsubscribe",
			"background_color": "#111827",
			"text_color":       "#9ca3af",
		},
	},
}

var alignOptions = []FieldOption{
	{Value: "left", Label: "Left"},
	{Value: "center", Label: "Center"},
	{Value: "right", Label: "Right"},
}

var catalogByType map[string]*SectionType

func init() {
	catalogByType = make(map[string]*SectionType, len(catalog))
	for _, t := range catalog {
		catalogByType[t.Type] = t
	}
}

// GetType looks up a section type by its key. The returned value is shared
// configuration and must not be mutated.
func GetType(typeName string) (*SectionType, error) {
	t, ok := catalogByType[typeName]
	if !ok {
		return nil, &UnknownTypeError{Type: typeName}
	}
	return t, nil
}

// ListTypes returns the full catalog grouped by category in the stable
// palette order.
func ListTypes() []*SectionType {
	out := make([]*SectionType, 0, len(catalog))
	for _, cat := range categoryOrder {
		for _, t := range catalog {
			if t.Category == cat {
				out = append(out, t)
			}
		}
	}
	return out
}

// Categories returns the palette category names in display order.
func Categories() []string {
	out := make([]string, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}
