package sections

import (
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/dompl/campaignforge/pkg/mergetags"
)

// ValidateFieldValue checks a candidate value against the field schema.
// Empty strings are accepted for every string-shaped kind so a field can be
// cleared; kind-specific constraints apply to non-empty values.
func ValidateFieldValue(f FieldSchema, value interface{}) error {
	switch f.Kind {
	case FieldKindText, FieldKindTextarea:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field %s expects a string, got %T", f.Key, value)
		}
		return nil

	case FieldKindColor:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s expects a color string, got %T", f.Key, value)
		}
		if s != "" && !govalidator.IsHexcolor(s) {
			return fmt.Errorf("field %s expects a hex color, got %q", f.Key, s)
		}
		return nil

	case FieldKindImage:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s expects an image URL string, got %T", f.Key, value)
		}
		// Tokens like {{logo_url}} resolve at render time, so they pass here.
		if s != "" && !govalidator.IsRequestURL(s) && !mergetags.ContainsTags(s) {
			return fmt.Errorf("field %s expects a URL, got %q", f.Key, s)
		}
		return nil

	case FieldKindNumber, FieldKindRange:
		n, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("field %s expects a number, got %T", f.Key, value)
		}
		if f.Min != 0 || f.Max != 0 {
			if n < f.Min || n > f.Max {
				return fmt.Errorf("field %s expects a value between %g and %g, got %g", f.Key, f.Min, f.Max, n)
			}
		}
		return nil

	case FieldKindToggle:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %s expects a boolean, got %T", f.Key, value)
		}
		return nil

	case FieldKindSelect:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s expects a string option, got %T", f.Key, value)
		}
		for _, opt := range f.Options {
			if opt.Value == s {
				return nil
			}
		}
		return fmt.Errorf("field %s has no option %q", f.Key, s)

	case FieldKindDate:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s expects a date string, got %T", f.Key, value)
		}
		if s == "" {
			return nil
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return fmt.Errorf("field %s expects a YYYY-MM-DD date, got %q", f.Key, s)
		}
		return nil

	case FieldKindLinks:
		list, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("field %s expects a list of links, got %T", f.Key, value)
		}
		for i, item := range list {
			link, ok := item.(map[string]interface{})
			if !ok {
				return fmt.Errorf("field %s link %d is not an object", f.Key, i)
			}
			if _, ok := link["label"].(string); !ok {
				return fmt.Errorf("field %s link %d is missing a label", f.Key, i)
			}
			if _, ok := link["url"].(string); !ok {
				return fmt.Errorf("field %s link %d is missing a url", f.Key, i)
			}
		}
		return nil

	case FieldKindProductSelect:
		list, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("field %s expects a list of product ids, got %T", f.Key, value)
		}
		for i, item := range list {
			switch item.(type) {
			case string, float64, int:
			default:
				return fmt.Errorf("field %s product id %d has unsupported type %T", f.Key, i, item)
			}
		}
		return nil

	case FieldKindJSON:
		switch v := value.(type) {
		case map[string]interface{}, []interface{}, nil:
			return nil
		case string:
			if v == "" || govalidator.IsJSON(v) {
				return nil
			}
			return fmt.Errorf("field %s expects valid JSON", f.Key)
		default:
			return fmt.Errorf("field %s expects a JSON value, got %T", f.Key, value)
		}

	default:
		return fmt.Errorf("field %s has unsupported kind %s", f.Key, f.Kind)
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
