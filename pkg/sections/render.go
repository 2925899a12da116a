package sections

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dompl/campaignforge/pkg/logger"
	"github.com/dompl/campaignforge/pkg/mergetags"
)

// Target renderers are email clients with poor CSS support: layout is
// nested tables with every style inlined, and the single media-query block
// below is a progressive enhancement on top of that base, not a
// replacement for it.
const (
	contentMaxWidth  = 600
	mobileBreakpoint = 620

	documentBackground = "#f1f5f9"
	bodyFontFamily     = "Helvetica, Arial, sans-serif"
)

// expiryDisplayFormat is the fixed day-month-year pattern for coupon expiry
// dates, deliberately unambiguous across locales.
const expiryDisplayFormat = "2 Jan 2006"

// Product is the shape returned by the product resolver collaborator.
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ImageURL     string `json:"imageUrl"`
	PriceDisplay string `json:"priceDisplay"`
}

// ProductResolver resolves product references at render time so catalog
// changes show up on every render. Missing ids are simply absent from the
// returned map; the resolver must not fail because of them.
type ProductResolver interface {
	ResolveProducts(ctx context.Context, ids []string) (map[string]Product, error)
}

// RenderContext carries the token data context and the product resolver for
// one render pass.
type RenderContext struct {
	Data     map[string]interface{}
	Products ProductResolver
}

func (rc *RenderContext) data() map[string]interface{} {
	if rc == nil || rc.Data == nil {
		return map[string]interface{}{}
	}
	return rc.Data
}

// Renderer converts section instances into self-contained, inlined-CSS
// table markup and assembles full email documents.
type Renderer struct {
	logger logger.Logger
}

func NewRenderer(log logger.Logger) *Renderer {
	return &Renderer{logger: log}
}

type sectionRenderFunc func(ctx context.Context, r *Renderer, inst *SectionInstance, rc *RenderContext) (string, error)

// sectionRenderers routes by section type. New types extend this map and
// the catalog, never runtime shape inspection.
var sectionRenderers = map[string]sectionRenderFunc{
	"header":       renderHeader,
	"hero":         renderHero,
	"intro":        renderIntro,
	"image_banner": renderImageBanner,
	"products":     renderProducts,
	"coupon":       renderCoupon,
	"social":       renderSocial,
	"divider":      renderDivider,
	"footer":       renderFooter,
}

// RenderSection renders one section instance into a self-contained table
// block. Errors are per-section; RenderDocument degrades them to an empty
// placeholder so one bad section never takes down the whole document.
func (r *Renderer) RenderSection(ctx context.Context, inst *SectionInstance, rc *RenderContext) (string, error) {
	if inst == nil {
		return "", fmt.Errorf("section instance is nil")
	}
	fn, ok := sectionRenderers[inst.Type]
	if !ok {
		return "", &UnknownTypeError{Type: inst.Type}
	}
	return fn(ctx, r, inst, rc)
}

// RenderDocument renders the template model into a complete, self-contained
// HTML document. Section order is read as-is: rendering never reorders,
// reseeds or otherwise mutates the model, so repeated renders of an
// unchanged model produce byte-identical output.
func (r *Renderer) RenderDocument(ctx context.Context, model *TemplateModel, rc *RenderContext) (string, error) {
	if model == nil {
		return "", fmt.Errorf("template model is nil")
	}

	var blocks []string
	for _, inst := range model.Sections {
		block, err := r.RenderSection(ctx, inst, rc)
		if err != nil {
			if r.logger != nil {
				r.logger.WithFields(map[string]interface{}{
					"section_id":   inst.ID,
					"section_type": inst.Type,
				}).Warn(fmt.Sprintf("section failed to render, emitting empty block: %v", err))
			}
			block = emptySectionBlock(inst)
		}
		blocks = append(blocks, block)
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(`<html lang="en" xmlns="http://www.w3.org/1999/xhtml">` + "\n")
	sb.WriteString("<head>\n")
	sb.WriteString(`<meta charset="utf-8" />` + "\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0" />` + "\n")
	sb.WriteString("<title>" + escapeContent(model.Name) + "</title>\n")
	sb.WriteString("<style type=\"text/css\">\n" + mobileStyles() + "\n</style>\n")
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf(`<body style="margin:0;padding:0;background-color:%s;-webkit-text-size-adjust:100%%;">`, documentBackground) + "\n")
	sb.WriteString(fmt.Sprintf(`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" style="width:100%%;background-color:%s;"><tr><td align="center" style="padding:16px 0;">`, documentBackground) + "\n")
	sb.WriteString(fmt.Sprintf(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" class="cf-container" style="width:100%%;max-width:%dpx;border-collapse:collapse;"><tr><td>`, contentMaxWidth) + "\n")
	for _, block := range blocks {
		sb.WriteString(block)
		sb.WriteString("\n")
	}
	sb.WriteString("</td></tr></table>\n")
	sb.WriteString("</td></tr></table>\n")
	sb.WriteString("</body>\n</html>\n")
	return sb.String(), nil
}

// RenderPlainText produces the text/plain companion the delivery
// collaborator sends alongside the HTML part.
func (r *Renderer) RenderPlainText(ctx context.Context, model *TemplateModel, rc *RenderContext) (string, error) {
	if model == nil {
		return "", fmt.Errorf("template model is nil")
	}
	var lines []string
	for _, inst := range model.Sections {
		for _, key := range []string{"store_name", "headline", "subtext", "heading", "body", "title", "description", "link_teaser"} {
			if text, err := substitutedString(inst, rc, key); err == nil && text != "" {
				lines = append(lines, text)
			}
		}
		if inst.Type == "coupon" {
			if code, _ := substitutedString(inst, rc, "code"); code != "" {
				lines = append(lines, "Code: "+code)
			}
			if expiry, ok := formatExpiry(stringSetting(inst, "expiry")); ok {
				lines = append(lines, "Expires "+expiry)
			}
		}
		if inst.Type == "products" && rc != nil && rc.Products != nil {
			for _, p := range resolveSectionProducts(ctx, inst, rc) {
				line := p.Name
				if boolSetting(inst, "show_price") && p.PriceDisplay != "" {
					line += " - " + p.PriceDisplay
				}
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n\n") + "\n", nil
}

func mobileStyles() string {
	return fmt.Sprintf(`@media only screen and (max-width: %dpx) {
  .cf-container { width: 100%% !important; }
  .cf-stack { display: block !important; width: 100%% !important; }
  .cf-hide-mobile { display: none !important; }
}`, mobileBreakpoint)
}

// emptySectionBlock is the graceful-degradation placeholder for a section
// that could not render.
func emptySectionBlock(inst *SectionInstance) string {
	return fmt.Sprintf(`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" style="width:100%%;border-collapse:collapse;"><tr><td><!-- %s omitted --></td></tr></table>`, escapeContent(inst.Type))
}

// --- per-type renderers ---

func renderHeader(_ context.Context, _ *Renderer, inst *SectionInstance, rc *RenderContext) (string, error) {
	storeName, err := substitutedString(inst, rc, "store_name")
	if err != nil {
		return "", err
	}
	logoURL, err := substitutedString(inst, rc, "logo_url")
	if err != nil {
		return "", err
	}
	bg := colorSetting(inst, "background_color", "#ffffff")
	fg := colorSetting(inst, "text_color", "#1f2937")

	var inner strings.Builder
	if logoURL != "" {
		inner.WriteString(fmt.Sprintf(`<img src="%s" alt="%s" width="120" height="40" style="display:block;border:0;height:auto;" />`,
			escapeAttr(logoURL, "src"), escapeAttr(storeName, "alt")))
	} else {
		inner.WriteString(fmt.Sprintf(`<p style="margin:0;font-family:%s;font-size:20px;font-weight:bold;color:%s;">%s</p>`,
			bodyFontFamily, fg, escapeContent(storeName)))
	}

	var nav string
	if boolSetting(inst, "show_nav") {
		links := linksSetting(inst)
		if len(links) > 0 {
			var items []string
			for _, l := range links {
				label, url, err := substitutedLink(l, rc)
				if err != nil {
					return "", err
				}
				items = append(items, fmt.Sprintf(`<a href="%s" style="font-family:%s;font-size:13px;color:%s;text-decoration:none;padding:0 8px;">%s</a>`,
					escapeAttr(url, "href"), bodyFontFamily, fg, escapeContent(label)))
			}
			nav = fmt.Sprintf(`<tr><td align="center" class="cf-hide-mobile" style="padding:0 24px 16px 24px;">%s</td></tr>`, strings.Join(items, ""))
		}
	}

	return fmt.Sprintf(`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" style="width:100%%;border-collapse:collapse;background-color:%s;"><tr><td align="center" style="padding:24px;">%s</td></tr>%s</table>`,
		bg, inner.String(), nav), nil
}

func renderHero(_ context.Context, _ *Renderer, inst *SectionInstance, rc *RenderContext) (string, error) {
	headline, err := substitutedString(inst, rc, "headline")
	if err != nil {
		return "", err
	}
	subtext, err := substitutedString(inst, rc, "subtext")
	if err != nil {
		return "", err
	}
	imageURL, err := substitutedString(inst, rc, "image_url")
	if err != nil {
		return "", err
	}
	buttonLabel, err := substitutedString(inst, rc, "button_label")
	if err != nil {
		return "", err
	}
	buttonURL, err := substitutedString(inst, rc, "button_url")
	if err != nil {
		return "", err
	}
	bg := colorSetting(inst, "background_color", "#f4f4f5")
	fg := colorSetting(inst, "text_color", "#111827")
	align := selectSetting(inst, "align", "center")

	var sb strings.Builder
	if imageURL != "" {
		sb.WriteString(fmt.Sprintf(`<tr><td><img src="%s" alt="" width="%d" style="display:block;border:0;width:100%%;max-width:%dpx;height:auto;" /></td></tr>`,
			escapeAttr(imageURL, "src"), contentMaxWidth, contentMaxWidth))
	}
	sb.WriteString(fmt.Sprintf(`<tr><td align="%s" style="padding:32px 24px 8px 24px;"><h1 style="margin:0;font-family:%s;font-size:28px;line-height:1.3;color:%s;">%s</h1></td></tr>`,
		align, bodyFontFamily, fg, escapeContent(headline)))
	if subtext != "" {
		sb.WriteString(fmt.Sprintf(`<tr><td align="%s" style="padding:0 24px 8px 24px;"><p style="margin:0;font-family:%s;font-size:16px;line-height:1.5;color:%s;">%s</p></td></tr>`,
			align, bodyFontFamily, fg, textToHTML(subtext)))
	}
	if buttonLabel != "" && buttonURL != "" {
		sb.WriteString(fmt.Sprintf(`<tr><td align="%s" style="padding:16px 24px 32px 24px;"><table role="presentation" cellpadding="0" cellspacing="0" border="0"><tr><td style="background-color:%s;border-radius:4px;"><a href="%s" style="display:inline-block;padding:12px 28px;font-family:%s;font-size:14px;font-weight:bold;color:%s;text-decoration:none;">%s</a></td></tr></table></td></tr>`,
			align, fg, escapeAttr(buttonURL, "href"), bodyFontFamily, bg, escapeContent(buttonLabel)))
	} else {
		sb.WriteString(`<tr><td style="padding-bottom:24px;"></td></tr>`)
	}

	return fmt.Sprintf(`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" style="width:100%%;border-collapse:collapse;background-color:%s;">%s</table>`,
		bg, sb.String()), nil
}

func renderIntro(_ context.Context, _ *Renderer, inst *SectionInstance, rc *RenderContext) (string, error) {
	heading, err := substitutedString(inst, rc, "heading")
	if err != nil {
		return "", err
	}
	body, err := substitutedString(inst, rc, "body")
	if err != nil {
		return "", err
	}
	fontSize := int(floatSetting(inst, "font_size", 16))
	align := selectSetting(inst, "align", "left")

	var sb strings.Builder
	if heading != "" {
		sb.WriteString(fmt.Sprintf(`<tr><td align="%s" style="padding:24px 24px 8px 24px;"><h2 style="margin:0;font-family:%s;font-size:%dpx;color:#111827;">%s</h2></td></tr>`,
			align, bodyFontFamily, fontSize+4, escapeContent(heading)))
	}
	if body != "" {
		sb.WriteString(fmt.Sprintf(`<tr><td align="%s" style="padding:0 24px 24px 24px;"><p style="margin:0;font-family:%s;font-size:%dpx;line-height:1.6;color:#374151;">%s</p></td></tr>`,
			align, bodyFontFamily, fontSize, textToHTML(body)))
	}

	return fmt.Sprintf(`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" style="width:100%%;border-collapse:collapse;background-color:#ffffff;">%s</table>`, sb.String()), nil
}

func renderImageBanner(_ context.Context, _ *Renderer, inst *SectionInstance, rc *RenderContext) (string, error) {
	imageURL, err := substitutedString(inst, rc, "image_url")
	if err != nil {
		return "", err
	}
	if imageURL == "" {
		// Nothing to show without an image; an empty block keeps the
		// document intact.
		return emptySectionBlock(inst), nil
	}
	altText, err := substitutedString(inst, rc, "alt_text")
	if err != nil {
		return "", err
	}
	linkURL, err := substitutedString(inst, rc, "link_url")
	if err != nil {
		return "", err
	}

	padding := "padding:16px 24px;"
	if boolSetting(inst, "full_width") {
		padding = "padding:0;"
	}

	img := fmt.Sprintf(`<img src="%s" alt="%s" width="%d" style="display:block;border:0;width:100%%;max-width:%dpx;height:auto;" />`,
		escapeAttr(imageURL, "src"), escapeAttr(altText, "alt"), contentMaxWidth, contentMaxWidth)
	if linkURL != "" {
		img = fmt.Sprintf(`<a href="%s">%s</a>`, escapeAttr(linkURL, "href"), img)
	}

	return fmt.Sprintf(`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" style="width:100%%;border-collapse:collapse;background-color:#ffffff;"><tr><td style="%s">%s</td></tr></table>`,
		padding, img), nil
}

func renderProducts(ctx context.Context, _ *Renderer, inst *SectionInstance, rc *RenderContext) (string, error) {
	title, err := substitutedString(inst, rc, "title")
	if err != nil {
		return "", err
	}
	columns := 2
	switch selectSetting(inst, "columns", "2") {
	case "1":
		columns = 1
	case "3":
		columns = 3
	}
	showPrice := boolSetting(inst, "show_price")

	products := resolveSectionProducts(ctx, inst, rc)

	var sb strings.Builder
	if title != "" {
		sb.WriteString(fmt.Sprintf(`<tr><td align="center" style="padding:24px 24px 8px 24px;"><h2 style="margin:0;font-family:%s;font-size:20px;color:#111827;">%s</h2></td></tr>`,
			bodyFontFamily, escapeContent(title)))
	}

	cellWidth := 100 / columns
	for start := 0; start < len(products); start += columns {
		end := start + columns
		if end > len(products) {
			end = len(products)
		}
		var cells []string
		for _, p := range products[start:end] {
			var card strings.Builder
			if p.ImageURL != "" {
				card.WriteString(fmt.Sprintf(`<img src="%s" alt="%s" width="160" height="160" style="display:block;margin:0 auto;border:0;max-width:100%%;height:auto;" />`,
					escapeAttr(p.ImageURL, "src"), escapeAttr(p.Name, "alt")))
			}
			card.WriteString(fmt.Sprintf(`<p style="margin:8px 0 0 0;font-family:%s;font-size:14px;font-weight:bold;color:#111827;">%s</p>`,
				bodyFontFamily, escapeContent(p.Name)))
			if showPrice && p.PriceDisplay != "" {
				card.WriteString(fmt.Sprintf(`<p style="margin:4px 0 0 0;font-family:%s;font-size:14px;color:#374151;">%s</p>`,
					bodyFontFamily, escapeContent(p.PriceDisplay)))
			}
			cells = append(cells, fmt.Sprintf(`<td class="cf-stack" width="%d%%" valign="top" style="width:%d%%;padding:8px;vertical-align:top;"><table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0"><tr><td align="center" style="padding:12px;border:1px solid #e5e7eb;border-radius:4px;">%s</td></tr></table></td>`,
				cellWidth, cellWidth, card.String()))
		}
		sb.WriteString(fmt.Sprintf(`<tr><td style="padding:0 16px;"><table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0"><tr>%s</tr></table></td></tr>`,
			strings.Join(cells, "")))
	}
	sb.WriteString(`<tr><td style="padding-bottom:16px;"></td></tr>`)

	return fmt.Sprintf(`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" style="width:100%%;border-collapse:collapse;background-color:#ffffff;">%s</table>`, sb.String()), nil
}

func renderCoupon(_ context.Context, r *Renderer, inst *SectionInstance, rc *RenderContext) (string, error) {
	title, err := substitutedString(inst, rc, "title")
	if err != nil {
		return "", err
	}
	code, err := substitutedString(inst, rc, "code")
	if err != nil {
		return "", err
	}
	description, err := substitutedString(inst, rc, "description")
	if err != nil {
		return "", err
	}
	bg := colorSetting(inst, "background_color", "#fef3c7")
	borderStyle := selectSetting(inst, "border_style", "dashed")

	var sb strings.Builder
	if title != "" {
		sb.WriteString(fmt.Sprintf(`<tr><td align="center" style="padding:24px 24px 4px 24px;"><h2 style="margin:0;font-family:%s;font-size:20px;color:#111827;">%s</h2></td></tr>`,
			bodyFontFamily, escapeContent(title)))
	}
	if description != "" {
		sb.WriteString(fmt.Sprintf(`<tr><td align="center" style="padding:0 24px 12px 24px;"><p style="margin:0;font-family:%s;font-size:14px;color:#374151;">%s</p></td></tr>`,
			bodyFontFamily, textToHTML(description)))
	}
	if code != "" {
		sb.WriteString(fmt.Sprintf(`<tr><td align="center" style="padding:0 24px 12px 24px;"><table role="presentation" cellpadding="0" cellspacing="0" border="0"><tr><td style="border:2px %s #111827;border-radius:4px;padding:10px 24px;font-family:%s;font-size:18px;font-weight:bold;letter-spacing:2px;color:#111827;">%s</td></tr></table></td></tr>`,
			borderStyle, bodyFontFamily, escapeContent(code)))
	}
	if rawExpiry := stringSetting(inst, "expiry"); rawExpiry != "" {
		if expiry, ok := formatExpiry(rawExpiry); ok {
			sb.WriteString(fmt.Sprintf(`<tr><td align="center" style="padding:0 24px 24px 24px;"><p style="margin:0;font-family:%s;font-size:12px;color:#6b7280;">Expires %s</p></td></tr>`,
				bodyFontFamily, expiry))
		} else if r != nil && r.logger != nil {
			r.logger.WithField("section_id", inst.ID).Warn(fmt.Sprintf("coupon expiry %q is not a valid date, omitting", rawExpiry))
		}
	} else {
		sb.WriteString(`<tr><td style="padding-bottom:16px;"></td></tr>`)
	}

	return fmt.Sprintf(`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" style="width:100%%;border-collapse:collapse;background-color:%s;">%s</table>`,
		bg, sb.String()), nil
}

func renderSocial(_ context.Context, _ *Renderer, inst *SectionInstance, rc *RenderContext) (string, error) {
	title, err := substitutedString(inst, rc, "title")
	if err != nil {
		return "", err
	}
	teaser, err := substitutedString(inst, rc, "link_teaser")
	if err != nil {
		return "", err
	}
	iconSize := int(floatSetting(inst, "icon_size", 32))

	var sb strings.Builder
	if title != "" {
		sb.WriteString(fmt.Sprintf(`<tr><td align="center" style="padding:24px 24px 4px 24px;"><h2 style="margin:0;font-family:%s;font-size:16px;color:#111827;">%s</h2></td></tr>`,
			bodyFontFamily, escapeContent(title)))
	}
	if teaser != "" {
		sb.WriteString(fmt.Sprintf(`<tr><td align="center" style="padding:0 24px 8px 24px;"><p style="margin:0;font-family:%s;font-size:13px;color:#6b7280;">%s</p></td></tr>`,
			bodyFontFamily, escapeContent(teaser)))
	}
	links := linksSetting(inst)
	if len(links) > 0 {
		var items []string
		for _, l := range links {
			label, url, err := substitutedLink(l, rc)
			if err != nil {
				return "", err
			}
			items = append(items, fmt.Sprintf(`<td height="%d" style="padding:0 10px;height:%dpx;vertical-align:middle;"><a href="%s" style="font-family:%s;font-size:14px;color:#2563eb;text-decoration:none;">%s</a></td>`,
				iconSize, iconSize, escapeAttr(url, "href"), bodyFontFamily, escapeContent(label)))
		}
		sb.WriteString(fmt.Sprintf(`<tr><td align="center" style="padding:8px 24px 24px 24px;"><table role="presentation" cellpadding="0" cellspacing="0" border="0"><tr>%s</tr></table></td></tr>`,
			strings.Join(items, "")))
	} else {
		sb.WriteString(`<tr><td style="padding-bottom:16px;"></td></tr>`)
	}

	return fmt.Sprintf(`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" style="width:100%%;border-collapse:collapse;background-color:#ffffff;">%s</table>`, sb.String()), nil
}

func renderDivider(_ context.Context, _ *Renderer, inst *SectionInstance, _ *RenderContext) (string, error) {
	color := colorSetting(inst, "color", "#e5e7eb")
	thickness := int(floatSetting(inst, "thickness", 1))
	spacing := int(floatSetting(inst, "spacing", 24))

	return fmt.Sprintf(`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" style="width:100%%;border-collapse:collapse;background-color:#ffffff;"><tr><td style="padding:%dpx 24px;"><table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0"><tr><td style="border-top:%dpx solid %s;font-size:0;line-height:0;">&nbsp;</td></tr></table></td></tr></table>`,
		spacing, thickness, color), nil
}

func renderFooter(_ context.Context, _ *Renderer, inst *SectionInstance, rc *RenderContext) (string, error) {
	companyName, err := substitutedString(inst, rc, "company_name")
	if err != nil {
		return "", err
	}
	address, err := substitutedString(inst, rc, "address")
	if err != nil {
		return "", err
	}
	unsubscribeText, err := substitutedString(inst, rc, "unsubscribe_text")
	if err != nil {
		return "", err
	}
	bg := colorSetting(inst, "background_color", "#111827")
	fg := colorSetting(inst, "text_color", "#9ca3af")

	unsubscribeURL := mergetags.Stringify(rc.data()["unsubscribe_url"])
	if unsubscribeURL == "" {
		unsubscribeURL = "#"
	}

	var sb strings.Builder
	if companyName != "" {
		sb.WriteString(fmt.Sprintf(`<tr><td align="center" style="padding:24px 24px 4px 24px;"><p style="margin:0;font-family:%s;font-size:13px;font-weight:bold;color:%s;">%s</p></td></tr>`,
			bodyFontFamily, fg, escapeContent(companyName)))
	}
	if address != "" {
		sb.WriteString(fmt.Sprintf(`<tr><td align="center" style="padding:0 24px 8px 24px;"><p style="margin:0;font-family:%s;font-size:12px;line-height:1.5;color:%s;">%s</p></td></tr>`,
			bodyFontFamily, fg, textToHTML(address)))
	}
	sb.WriteString(fmt.Sprintf(`<tr><td align="center" style="padding:0 24px 24px 24px;"><a href="%s" style="font-family:%s;font-size:12px;color:%s;text-decoration:underline;">%s</a></td></tr>`,
		escapeAttr(unsubscribeURL, "href"), bodyFontFamily, fg, escapeContent(unsubscribeText)))

	return fmt.Sprintf(`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" style="width:100%%;border-collapse:collapse;background-color:%s;">%s</table>`,
		bg, sb.String()), nil
}

// --- settings access helpers ---

// substitutedString reads a string setting and runs token substitution
// against the render context, so tokens resolve everywhere they can appear,
// attribute values included.
func substitutedString(inst *SectionInstance, rc *RenderContext, key string) (string, error) {
	raw := stringSetting(inst, key)
	if !mergetags.ContainsTags(raw) {
		return raw, nil
	}
	out, err := mergetags.Render(raw, rc.data())
	if err != nil {
		return "", fmt.Errorf("field %s: %w", key, err)
	}
	return out, nil
}

func substitutedLink(link map[string]interface{}, rc *RenderContext) (label, url string, err error) {
	label, _ = link["label"].(string)
	url, _ = link["url"].(string)
	if mergetags.ContainsTags(label) {
		if label, err = mergetags.Render(label, rc.data()); err != nil {
			return "", "", err
		}
	}
	if mergetags.ContainsTags(url) {
		if url, err = mergetags.Render(url, rc.data()); err != nil {
			return "", "", err
		}
	}
	return label, url, nil
}

func stringSetting(inst *SectionInstance, key string) string {
	s, _ := inst.Settings[key].(string)
	return s
}

func boolSetting(inst *SectionInstance, key string) bool {
	b, _ := inst.Settings[key].(bool)
	return b
}

func floatSetting(inst *SectionInstance, key string, fallback float64) float64 {
	if n, ok := toFloat(inst.Settings[key]); ok {
		return n
	}
	return fallback
}

func colorSetting(inst *SectionInstance, key, fallback string) string {
	s := stringSetting(inst, key)
	if s == "" {
		return fallback
	}
	return s
}

func selectSetting(inst *SectionInstance, key, fallback string) string {
	s := stringSetting(inst, key)
	if s == "" {
		return fallback
	}
	return s
}

// linksSetting finds the section's link-list field through the schema, so
// the renderer routes by field kind rather than by guessing settings keys.
func linksSetting(inst *SectionInstance) []map[string]interface{} {
	st, err := GetType(inst.Type)
	if err != nil {
		return nil
	}
	for _, f := range st.Fields {
		if f.Kind != FieldKindLinks {
			continue
		}
		raw, _ := inst.Settings[f.Key].([]interface{})
		var out []map[string]interface{}
		for _, item := range raw {
			if link, ok := item.(map[string]interface{}); ok {
				out = append(out, link)
			}
		}
		return out
	}
	return nil
}

func productIDs(inst *SectionInstance) []string {
	raw, _ := inst.Settings["product_ids"].([]interface{})
	var ids []string
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			ids = append(ids, v)
		case float64:
			ids = append(ids, fmt.Sprintf("%.0f", v))
		case int:
			ids = append(ids, fmt.Sprintf("%d", v))
		}
	}
	return ids
}

// resolveSectionProducts fetches product data in the section's id order.
// Unresolvable ids are dropped; a missing product never fails the render.
func resolveSectionProducts(ctx context.Context, inst *SectionInstance, rc *RenderContext) []Product {
	ids := productIDs(inst)
	if len(ids) == 0 || rc == nil || rc.Products == nil {
		return nil
	}
	resolved, err := rc.Products.ResolveProducts(ctx, ids)
	if err != nil {
		return nil
	}
	var out []Product
	for _, id := range ids {
		if p, ok := resolved[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func formatExpiry(raw string) (string, bool) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return "", false
	}
	return t.Format(expiryDisplayFormat), true
}

// --- escaping helpers ---

func escapeContent(content string) string {
	content = strings.ReplaceAll(content, "&", "&amp;")
	content = strings.ReplaceAll(content, "<", "&lt;")
	content = strings.ReplaceAll(content, ">", "&gt;")
	return content
}

// textToHTML escapes content and turns newlines into <br /> so textarea
// fields keep their line structure.
func textToHTML(content string) string {
	return strings.ReplaceAll(escapeContent(content), "\n", "<br />")
}

// escapeAttr escapes a value for use inside a quoted HTML attribute. For
// URL attributes carrying an actual URL the ampersand is left alone so
// query strings survive.
func escapeAttr(value, attributeName string) string {
	isURLAttribute := attributeName == "src" || attributeName == "href"
	looksLikeURL := strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") || strings.HasPrefix(value, "//")
	if !(isURLAttribute && looksLikeURL) {
		value = strings.ReplaceAll(value, "&", "&amp;")
	}
	value = strings.ReplaceAll(value, "\"", "&quot;")
	value = strings.ReplaceAll(value, "'", "&#39;")
	value = strings.ReplaceAll(value, "<", "&lt;")
	value = strings.ReplaceAll(value, ">", "&gt;")
	return value
}
