package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dompl/campaignforge/pkg/logger"
)

func newHeroInstance(t *testing.T) (*SectionInstance, *SectionType) {
	t.Helper()
	st, err := GetType("hero")
	require.NoError(t, err)
	inst := NewSectionInstance(st, nil)
	inst.ID = "hero-1"
	return inst, st
}

func TestNewSectionInstanceSeedsOnce(t *testing.T) {
	st, err := GetType("hero")
	require.NoError(t, err)

	inst := NewSectionInstance(st, map[string]interface{}{
		"background_color": "#1b4332",
		"not_a_field":      "dropped",
	})

	assert.Equal(t, "#1b4332", inst.Settings["background_color"])
	assert.Equal(t, "Big news for your inbox", inst.Settings["headline"])
	assert.NotContains(t, inst.Settings, "not_a_field")

	// The seed is a copy: editing the instance never reaches the catalog.
	inst.Settings["headline"] = "edited"
	assert.Equal(t, "Big news for your inbox", st.Defaults["headline"])
}

func TestApplyAIPatchRespectsFlags(t *testing.T) {
	inst, st := newHeroInstance(t)
	require.NoError(t, SetAIFlag(inst, st, "headline", false))
	inst.Settings["headline"] = "Hand-written headline"

	result := ApplyAIPatch(inst, st, map[string]interface{}{
		"headline": "Generated headline",
		"subtext":  "Generated subtext",
	}, logger.NewMockLogger(t))

	// The pinned field keeps the manual copy, the enabled one is patched.
	assert.Equal(t, "Hand-written headline", inst.Settings["headline"])
	assert.Equal(t, "Generated subtext", inst.Settings["subtext"])
	assert.Equal(t, []string{"subtext"}, result.Applied)
	assert.Equal(t, []string{"headline"}, result.Skipped)
	assert.Empty(t, result.Unknown)
}

func TestApplyAIPatchIgnoresUnknownFields(t *testing.T) {
	inst, st := newHeroInstance(t)

	result := ApplyAIPatch(inst, st, map[string]interface{}{
		"headline":   "Generated",
		"mystery":    "ignored",
		"another_ai": "ignored too",
	}, logger.NewMockLogger(t))

	assert.Equal(t, "Generated", inst.Settings["headline"])
	assert.NotContains(t, inst.Settings, "mystery")
	assert.ElementsMatch(t, []string{"mystery", "another_ai"}, result.Unknown)
}

func TestApplyAIPatchIdempotent(t *testing.T) {
	inst, st := newHeroInstance(t)
	patch := map[string]interface{}{"headline": "Same twice", "subtext": "Also same"}

	ApplyAIPatch(inst, st, patch, nil)
	first := inst.Clone()
	ApplyAIPatch(inst, st, patch, nil)

	assert.Equal(t, first.Settings, inst.Settings)
	assert.Equal(t, first.AIFlags, inst.AIFlags)
}

func TestApplyAIPatchBoundaryLinkKey(t *testing.T) {
	st, err := GetType("social")
	require.NoError(t, err)
	inst := NewSectionInstance(st, nil)
	inst.ID = "social-1"

	// link_teaser is AI-eligible despite the key naming, so the flag
	// machinery applies to it like any other copy field.
	result := ApplyAIPatch(inst, st, map[string]interface{}{
		"link_teaser": "Fresh off the press",
	}, nil)

	assert.Equal(t, "Fresh off the press", inst.Settings["link_teaser"])
	assert.Equal(t, []string{"link_teaser"}, result.Applied)

	require.NoError(t, SetAIFlag(inst, st, "link_teaser", false))
	result = ApplyAIPatch(inst, st, map[string]interface{}{
		"link_teaser": "Overwrite attempt",
	}, nil)
	assert.Equal(t, "Fresh off the press", inst.Settings["link_teaser"])
	assert.Equal(t, []string{"link_teaser"}, result.Skipped)
}

func TestApplyAIPatchJSON(t *testing.T) {
	inst, st := newHeroInstance(t)

	result, err := ApplyAIPatchJSON(inst, st, []byte(`{"headline": "From JSON", "ghost": 1}`), logger.NewMockLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "From JSON", inst.Settings["headline"])
	assert.Equal(t, []string{"headline"}, result.Applied)
	assert.Equal(t, []string{"ghost"}, result.Unknown)

	_, err = ApplyAIPatchJSON(inst, st, []byte(`not json`), nil)
	assert.Error(t, err)

	_, err = ApplyAIPatchJSON(inst, st, []byte(`["array"]`), nil)
	assert.Error(t, err)
}

func TestApplyUserEdit(t *testing.T) {
	inst, st := newHeroInstance(t)
	require.NoError(t, SetAIFlag(inst, st, "headline", false))

	// User edits always win, regardless of the AI flag.
	require.NoError(t, ApplyUserEdit(inst, st, "headline", "Manual copy"))
	assert.Equal(t, "Manual copy", inst.Settings["headline"])
	assert.False(t, inst.AIFlags["headline"])

	// Values are validated against the schema.
	assert.Error(t, ApplyUserEdit(inst, st, "background_color", "not-a-color"))
	assert.Error(t, ApplyUserEdit(inst, st, "align", "diagonal"))
	assert.Error(t, ApplyUserEdit(inst, st, "no_such_field", "x"))

	// Internal keys bypass the schema.
	require.NoError(t, ApplyUserEdit(inst, st, "_picker_cache", map[string]interface{}{"a": "b"}))
	assert.Contains(t, inst.Settings, "_picker_cache")
}

func TestSetAIFlagPreservesValue(t *testing.T) {
	inst, st := newHeroInstance(t)
	require.NoError(t, ApplyUserEdit(inst, st, "headline", "Keep me"))

	require.NoError(t, SetAIFlag(inst, st, "headline", false))
	assert.Equal(t, "Keep me", inst.Settings["headline"])

	// Toggling back to AI mode does not clear the value either; the next
	// successful generation is what overwrites it.
	require.NoError(t, SetAIFlag(inst, st, "headline", true))
	assert.Equal(t, "Keep me", inst.Settings["headline"])

	assert.Error(t, SetAIFlag(inst, st, "button_url", true))
	assert.Error(t, SetAIFlag(inst, st, "no_such_field", true))
}
