package mergetags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTokens(t *testing.T) {
	ctx := map[string]interface{}{
		"store_name": "Acme Outdoors",
		"count":      3,
		"ratio":      0.5,
		"active":     true,
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"plain text untouched", "hello world", "hello world"},
		{"single token", "Welcome to {{store_name}}!", "Welcome to Acme Outdoors!"},
		{"token with spaces", "{{ store_name }}", "Acme Outdoors"},
		{"unknown token renders empty", "before {{missing}} after", "before  after"},
		{"integer value", "{{count}} items", "3 items"},
		{"float value", "{{ratio}}", "0.5"},
		{"bool value", "{{active}}", "true"},
		{"multiple tokens", "{{store_name}}: {{count}}", "Acme Outdoors: 3"},
		{"empty tag is literal", "a {{}} b", "a {{}} b"},
		{"unterminated delimiter is literal", "a {{store_name", "a {{store_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(tt.template, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestRenderTokenInsideAttribute(t *testing.T) {
	ctx := map[string]interface{}{
		"logo_url":   "https://cdn.example.com/logo.png?v=2",
		"store_name": "Acme",
	}

	out, err := Render(`<img src="{{logo_url}}" alt="{{store_name}}">`, ctx)
	require.NoError(t, err)
	assert.Equal(t, `<img src="https://cdn.example.com/logo.png?v=2" alt="Acme">`, out)
	assert.NotContains(t, out, "{{")
}

func TestRenderConditionals(t *testing.T) {
	ctx := map[string]interface{}{
		"coupon_code": "SAVE10",
		"empty":       "",
		"zero_str":    "0",
		"zero_int":    0,
		"flag_off":    false,
		"flag_on":     true,
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"truthy string shows block", "{{#if coupon_code}}Use {{coupon_code}}{{/if}}", "Use SAVE10"},
		{"empty string hides block", "a{{#if empty}}X{{/if}}b", "ab"},
		{"zero string hides block", "{{#if zero_str}}X{{/if}}", ""},
		{"zero int hides block", "{{#if zero_int}}X{{/if}}", ""},
		{"false hides block", "{{#if flag_off}}X{{/if}}", ""},
		{"true shows block", "{{#if flag_on}}X{{/if}}", "X"},
		{"absent hides block", "{{#if nope}}X{{/if}}", ""},
		{"text around blocks", "pre {{#if flag_on}}mid{{/if}} post", "pre mid post"},
		{"two sibling blocks", "{{#if flag_on}}A{{/if}}{{#if flag_off}}B{{/if}}", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(tt.template, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestRenderRejectsMalformedConditionals(t *testing.T) {
	tests := []struct {
		name     string
		template string
		contains string
	}{
		{"nested conditional", "{{#if a}}{{#if b}}X{{/if}}{{/if}}", "nested"},
		{"unclosed conditional", "{{#if a}}X", "never closed"},
		{"stray closing tag", "X{{/if}}", "without a matching"},
		{"missing identifier", "{{#if }}X{{/if}}", "missing an identifier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.template, map[string]interface{}{"a": "1", "b": "1"})
			require.Error(t, err)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Contains(t, parseErr.Message, tt.contains)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("plain {{token}} and {{#if a}}x{{/if}}"))
	assert.Error(t, Validate("{{#if a}}{{#if b}}x{{/if}}{{/if}}"))
}

func TestRenderIdempotent(t *testing.T) {
	ctx := map[string]interface{}{
		"store_name": "Acme & Sons",
		"greeting":   "Hi there",
	}
	template := "{{greeting}} from {{store_name}}. {{#if greeting}}See you soon.{{/if}}"

	once, err := Render(template, ctx)
	require.NoError(t, err)
	twice, err := Render(once, ctx)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestContainsTags(t *testing.T) {
	assert.True(t, ContainsTags("{{a}}"))
	assert.True(t, ContainsTags("text {{#if a}}"))
	assert.False(t, ContainsTags("no tags here"))
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy("0"))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(0))
	assert.False(t, Truthy(0.0))
	assert.True(t, Truthy("hello"))
	assert.True(t, Truthy(1))
	assert.True(t, Truthy(true))
}
