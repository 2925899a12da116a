package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildModel(t *testing.T, types ...string) *TemplateModel {
	t.Helper()
	model := NewTemplateModel("test")
	for _, typeName := range types {
		_, err := model.AddSection(typeName, "")
		require.NoError(t, err)
	}
	return model
}

func TestAddSectionSeedsDefaultsAndPreset(t *testing.T) {
	model := NewTemplateModel("Spring Sale")

	inst, err := model.AddSection("hero", "hero-forest-green")
	require.NoError(t, err)
	require.Len(t, model.Sections, 1)
	assert.NotEmpty(t, inst.ID)

	// Preset overlays what it names, type defaults fill the rest.
	assert.Equal(t, "#1b4332", inst.Settings["background_color"])
	assert.Equal(t, "#ffffff", inst.Settings["text_color"])
	assert.Equal(t, "Big news for your inbox", inst.Settings["headline"])
	assert.Equal(t, "center", inst.Settings["align"])

	// AI flags start enabled for eligible fields only.
	assert.True(t, inst.AIFlags["headline"])
	assert.True(t, inst.AIFlags["subtext"])
	_, hasButtonFlag := inst.AIFlags["button_label"]
	assert.False(t, hasButtonFlag)
}

func TestAddSectionErrors(t *testing.T) {
	model := NewTemplateModel("x")

	_, err := model.AddSection("carousel", "")
	assert.Error(t, err)

	_, err = model.AddSection("hero", "no-such-variant")
	assert.Error(t, err)

	// Variant belonging to a different type is rejected.
	_, err = model.AddSection("coupon", "hero-forest-green")
	assert.Error(t, err)

	assert.Empty(t, model.Sections)
}

func TestAddSectionAssignsUniqueIDs(t *testing.T) {
	model := buildModel(t, "hero", "hero", "hero")
	ids := map[string]bool{}
	for _, s := range model.Sections {
		assert.False(t, ids[s.ID])
		ids[s.ID] = true
	}
}

func TestRemoveSection(t *testing.T) {
	model := buildModel(t, "header", "hero", "footer")
	target := model.Sections[1].ID

	assert.True(t, model.RemoveSection(target))
	require.Len(t, model.Sections, 2)
	assert.Equal(t, "header", model.Sections[0].Type)
	assert.Equal(t, "footer", model.Sections[1].Type)

	// Removing again is a safe no-op, reported to the caller.
	assert.False(t, model.RemoveSection(target))
	assert.Len(t, model.Sections, 2)
}

func TestMoveSection(t *testing.T) {
	model := buildModel(t, "header", "hero", "coupon", "footer")
	a, b, c, d := model.Sections[0].ID, model.Sections[1].ID, model.Sections[2].ID, model.Sections[3].ID

	assert.True(t, model.MoveSection(c, 1))
	assert.Equal(t, []string{a, c, b, d}, model.SectionOrder())

	// Index clamps to the valid range.
	assert.True(t, model.MoveSection(a, 99))
	assert.Equal(t, []string{c, b, d, a}, model.SectionOrder())
	assert.True(t, model.MoveSection(a, -5))
	assert.Equal(t, []string{a, c, b, d}, model.SectionOrder())

	// Moving to its own index changes nothing.
	assert.True(t, model.MoveSection(c, 1))
	assert.Equal(t, []string{a, c, b, d}, model.SectionOrder())

	assert.False(t, model.MoveSection("missing", 0))
	assert.Equal(t, []string{a, c, b, d}, model.SectionOrder())
}

func TestDuplicateSection(t *testing.T) {
	model := buildModel(t, "hero", "footer")
	source := model.Sections[0]
	source.Settings["headline"] = "Original headline"

	dup, err := model.DuplicateSection(source.ID)
	require.NoError(t, err)
	require.Len(t, model.Sections, 3)

	// Inserted immediately after the source, with a fresh identity and an
	// independent deep copy of the settings.
	assert.Equal(t, dup.ID, model.Sections[1].ID)
	assert.NotEqual(t, source.ID, dup.ID)
	assert.Equal(t, "Original headline", dup.Settings["headline"])
	dup.Settings["headline"] = "Changed"
	assert.Equal(t, "Original headline", source.Settings["headline"])

	_, err = model.DuplicateSection("missing")
	var unknownErr *UnknownSectionError
	require.ErrorAs(t, err, &unknownErr)
}

func TestReconcileOrder(t *testing.T) {
	model := buildModel(t, "header", "hero", "coupon", "footer")
	a, b, c, d := model.Sections[0].ID, model.Sections[1].ID, model.Sections[2].ID, model.Sections[3].ID

	model.ReconcileOrder([]string{d, b, a, c})
	assert.Equal(t, []string{d, b, a, c}, model.SectionOrder())

	// Unknown ids are ignored; sections missing from the signal keep their
	// relative order at the end.
	model.ReconcileOrder([]string{c, "ghost", a})
	assert.Equal(t, []string{c, a, d, b}, model.SectionOrder())

	// Duplicate ids in the signal place the section once.
	model.ReconcileOrder([]string{b, b, c})
	assert.Equal(t, []string{b, c, a, d}, model.SectionOrder())

	// An empty signal never clears the model.
	model.ReconcileOrder(nil)
	assert.Equal(t, []string{b, c, a, d}, model.SectionOrder())
}
