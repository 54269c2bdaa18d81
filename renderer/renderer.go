// Package renderer turns back-office objects into markdown documents.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed *.md
var templates embed.FS

// funcs are the helpers available to every template.
var funcs = template.FuncMap{
	"cell": cell,
}

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// RenderDraft renders the purchase draft: header, items and totals.
func RenderDraft(d *Draft) string {
	partials := map[string]string{
		"draft_header": "draft_header.md",
		"draft_items":  "draft_items.md",
	}
	return renderTemplate("draft", "draft.md", partials, d)
}

// RenderForm renders the item form with its barcode status.
func RenderForm(f *Form) string {
	return renderTemplate("form", "form.md", nil, f)
}

// RenderVendorBalance renders the projection of a vendor balance.
func RenderVendorBalance(b *VendorBalance) string {
	return renderTemplate("vendorBalance", "vendor_balance.md", nil, b)
}

// RenderProducts renders catalog search results.
func RenderProducts(p *Products) string {
	return renderTemplate("products", "products.md", nil, p)
}

// RenderPurchase renders a purchase created by the server.
func RenderPurchase(p *Purchase) string {
	return renderTemplate("purchase", "purchase.md", nil, p)
}

// RenderCurrencies renders the currency table.
func RenderCurrencies(c *Currencies) string {
	return renderTemplate("currencies", "currencies.md", nil, c)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
