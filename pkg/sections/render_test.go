package sections

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dompl/campaignforge/pkg/logger"
)

type fakeProductResolver struct {
	products map[string]Product
	calls    int
}

func (f *fakeProductResolver) ResolveProducts(_ context.Context, ids []string) (map[string]Product, error) {
	f.calls++
	out := map[string]Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestRenderDocumentStructure(t *testing.T) {
	model := buildModel(t, "header", "hero", "footer")
	r := NewRenderer(logger.NewMockLogger(t))

	html, err := r.RenderDocument(context.Background(), model, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Equal(t, 1, strings.Count(html, "<style"), "exactly one style block")
	assert.Contains(t, html, "@media only screen and (max-width: 620px)")
	assert.Contains(t, html, "max-width:600px")

	doc := parseHTML(t, html)
	container := doc.Find("table.cf-container")
	require.Equal(t, 1, container.Length())
	style, _ := container.Attr("style")
	assert.Contains(t, style, "width:100%")
	assert.Contains(t, style, "max-width:600px")

	// Every layout table is presentation-role and width 100%.
	doc.Find("body > table").Each(func(_ int, s *goquery.Selection) {
		role, _ := s.Attr("role")
		assert.Equal(t, "presentation", role)
	})
}

func TestRenderDocumentIsDeterministicAndNonMutating(t *testing.T) {
	model := buildModel(t, "header", "hero", "products", "coupon", "footer")
	order := model.SectionOrder()
	r := NewRenderer(nil)
	rc := &RenderContext{
		Data: map[string]interface{}{"first_name": "Ava"},
		Products: &fakeProductResolver{products: map[string]Product{
			"1": {ID: "1", Name: "Walking Boots", PriceDisplay: "£89.00"},
		}},
	}

	first, err := r.RenderDocument(context.Background(), model, rc)
	require.NoError(t, err)
	second, err := r.RenderDocument(context.Background(), model, rc)
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeated renders must be byte-identical")
	assert.Equal(t, order, model.SectionOrder(), "rendering must not reorder sections")
}

func TestRenderDocumentPreservesSectionOrder(t *testing.T) {
	model := buildModel(t, "hero", "coupon", "footer")
	model.Sections[0].Settings["headline"] = "FIRST-MARKER"
	model.Sections[1].Settings["title"] = "SECOND-MARKER"
	model.Sections[2].Settings["company_name"] = "THIRD-MARKER"

	html, err := NewRenderer(nil).RenderDocument(context.Background(), model, nil)
	require.NoError(t, err)

	first := strings.Index(html, "FIRST-MARKER")
	second := strings.Index(html, "SECOND-MARKER")
	third := strings.Index(html, "THIRD-MARKER")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	require.NotEqual(t, -1, third)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
}

func TestRenderCouponExpiryFormat(t *testing.T) {
	model := buildModel(t, "coupon")
	inst := model.Sections[0]
	inst.Settings["expiry"] = "2026-03-01"

	html, err := NewRenderer(nil).RenderSection(context.Background(), inst, nil)
	require.NoError(t, err)
	assert.Contains(t, html, "Expires 1 Mar 2026")
	assert.Contains(t, html, "WELCOME10")
}

func TestRenderCouponInvalidExpiryOmitted(t *testing.T) {
	model := buildModel(t, "coupon")
	inst := model.Sections[0]
	inst.Settings["expiry"] = "next week"

	html, err := NewRenderer(logger.NewMockLogger(t)).RenderSection(context.Background(), inst, nil)
	require.NoError(t, err)
	assert.NotContains(t, html, "Expires")
	assert.NotContains(t, html, "next week")
}

func TestRenderProductsDropsMissingIDs(t *testing.T) {
	model := buildModel(t, "products")
	inst := model.Sections[0]
	inst.Settings["product_ids"] = []interface{}{"1", "2", "999"}
	inst.Settings["show_price"] = true

	resolver := &fakeProductResolver{products: map[string]Product{
		"1": {ID: "1", Name: "Walking Boots", ImageURL: "https://cdn.example.com/1.jpg", PriceDisplay: "£89.00"},
		"2": {ID: "2", Name: "Wool Socks", PriceDisplay: "£12.00"},
	}}

	html, err := NewRenderer(nil).RenderSection(context.Background(), inst, &RenderContext{Products: resolver})
	require.NoError(t, err)

	doc := parseHTML(t, html)
	assert.Contains(t, html, "Walking Boots")
	assert.Contains(t, html, "Wool Socks")
	assert.Contains(t, html, "£89.00")
	assert.NotContains(t, html, "999")

	// Product cells stack on mobile.
	assert.GreaterOrEqual(t, doc.Find("td.cf-stack").Length(), 2)
}

func TestRenderProductsWithoutResolver(t *testing.T) {
	model := buildModel(t, "products")
	model.Sections[0].Settings["product_ids"] = []interface{}{"1", "2"}

	html, err := NewRenderer(nil).RenderSection(context.Background(), model.Sections[0], nil)
	require.NoError(t, err)
	assert.NotContains(t, html, "Walking Boots")
	assert.Contains(t, html, "Featured products")
}

func TestRenderSubstitutesTokensInAttributes(t *testing.T) {
	model := buildModel(t, "hero")
	inst := model.Sections[0]
	inst.Settings["image_url"] = "{{banner_url}}"
	inst.Settings["headline"] = "Hi {{first_name}}"

	rc := &RenderContext{Data: map[string]interface{}{
		"banner_url": "https://cdn.example.com/banner.png",
		"first_name": "Ava",
	}}
	html, err := NewRenderer(nil).RenderSection(context.Background(), inst, rc)
	require.NoError(t, err)

	doc := parseHTML(t, html)
	src, ok := doc.Find("img").First().Attr("src")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/banner.png", src)
	assert.Contains(t, html, "Hi Ava")
}

func TestRenderUnknownTokenBecomesEmpty(t *testing.T) {
	model := buildModel(t, "hero")
	model.Sections[0].Settings["headline"] = "Hello {{missing_token}}!"

	html, err := NewRenderer(nil).RenderSection(context.Background(), model.Sections[0], &RenderContext{})
	require.NoError(t, err)
	assert.Contains(t, html, "Hello !")
	assert.NotContains(t, html, "missing_token")
}

func TestRenderDocumentDegradesBrokenSections(t *testing.T) {
	model := buildModel(t, "header", "footer")
	// A stored model can reference a type retired from the catalog.
	model.Sections = append(model.Sections[:1], append([]*SectionInstance{{
		ID:       "legacy",
		Type:     "countdown",
		Settings: map[string]interface{}{},
	}}, model.Sections[1:]...)...)

	html, err := NewRenderer(logger.NewMockLogger(t)).RenderDocument(context.Background(), model, nil)
	require.NoError(t, err)

	assert.Contains(t, html, "<!-- countdown omitted -->")
	// The neighbours still render in place.
	assert.Less(t, strings.Index(html, "Your Store"), strings.Index(html, "countdown omitted"))
	assert.Greater(t, strings.Index(html, "Unsubscribe"), strings.Index(html, "countdown omitted"))
}

func TestRenderEscapesContent(t *testing.T) {
	model := buildModel(t, "hero")
	model.Sections[0].Settings["headline"] = `Deals <script>alert("x")</script> & more`

	html, err := NewRenderer(nil).RenderSection(context.Background(), model.Sections[0], nil)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "&amp; more")
}

func TestRenderKeepsQueryStringsInURLs(t *testing.T) {
	model := buildModel(t, "hero")
	inst := model.Sections[0]
	inst.Settings["button_url"] = "https://example.com/shop?utm_source=email&utm_campaign=spring"

	html, err := NewRenderer(nil).RenderSection(context.Background(), inst, nil)
	require.NoError(t, err)
	assert.Contains(t, html, "utm_source=email&utm_campaign=spring")
}

func TestRenderRoutesLinksBySchemaField(t *testing.T) {
	model := buildModel(t, "header", "social")

	header := model.Sections[0]
	header.Settings["nav_links"] = []interface{}{
		map[string]interface{}{"label": "Shop", "url": "https://example.com/shop"},
	}
	// A settings key that is not the schema's links field must be invisible
	// to the renderer.
	header.Settings["links"] = []interface{}{
		map[string]interface{}{"label": "Ghost", "url": "https://example.com/ghost"},
	}

	social := model.Sections[1]
	social.Settings["links"] = []interface{}{
		map[string]interface{}{"label": "Instagram", "url": "https://instagram.com/acme"},
	}

	r := NewRenderer(nil)
	headerHTML, err := r.RenderSection(context.Background(), header, nil)
	require.NoError(t, err)
	assert.Contains(t, headerHTML, "Shop")
	assert.NotContains(t, headerHTML, "Ghost")

	socialHTML, err := r.RenderSection(context.Background(), social, nil)
	require.NoError(t, err)
	assert.Contains(t, socialHTML, "Instagram")
}

func TestRenderPlainText(t *testing.T) {
	model := buildModel(t, "hero", "products", "coupon")
	model.Sections[0].Settings["headline"] = "Big spring savings"
	model.Sections[1].Settings["product_ids"] = []interface{}{"1"}
	model.Sections[1].Settings["show_price"] = true
	model.Sections[2].Settings["expiry"] = "2026-03-01"

	rc := &RenderContext{Products: &fakeProductResolver{products: map[string]Product{
		"1": {ID: "1", Name: "Walking Boots", PriceDisplay: "£89.00"},
	}}}

	text, err := NewRenderer(nil).RenderPlainText(context.Background(), model, rc)
	require.NoError(t, err)

	assert.Contains(t, text, "Big spring savings")
	assert.Contains(t, text, "Walking Boots")
	assert.Contains(t, text, "£89.00")
	assert.Contains(t, text, "Code: WELCOME10")
	assert.Contains(t, text, "Expires 1 Mar 2026")
	assert.NotContains(t, text, "<")
}
