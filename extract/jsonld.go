package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// Product is one schema.org Product node found in a JSON-LD block.
type Product struct {
	gjson.Result
}

// Field returns the trimmed string at path.
func (p Product) Field(path string) string {
	return strings.TrimSpace(p.Get(path).String())
}

// Brand returns brand.name or a plain brand string.
func (p Product) Brand() string {
	b := p.Get("brand")
	if b.IsObject() {
		return strings.TrimSpace(b.Get("name").String())
	}
	return strings.TrimSpace(b.String())
}

// Images returns the image URLs in declaration order. image may be a string,
// an array of strings, an ImageObject or an array of ImageObjects.
func (p Product) Images() []string {
	var out []string
	add := func(v gjson.Result) {
		switch {
		case v.IsObject():
			if u := strings.TrimSpace(v.Get("url").String()); u != "" {
				out = append(out, u)
			} else if u := strings.TrimSpace(v.Get("contentUrl").String()); u != "" {
				out = append(out, u)
			}
		case v.Type == gjson.String:
			if u := strings.TrimSpace(v.String()); u != "" {
				out = append(out, u)
			}
		}
	}
	img := p.Get("image")
	if img.IsArray() {
		img.ForEach(func(_, v gjson.Result) bool {
			add(v)
			return true
		})
	} else {
		add(img)
	}
	return out
}

// Availability returns the first offers availability value, if any.
func (p Product) Availability() string {
	offers := p.Get("offers")
	if offers.IsArray() {
		return strings.TrimSpace(offers.Get("0.availability").String())
	}
	return strings.TrimSpace(offers.Get("availability").String())
}

// Products returns every JSON-LD Product on the page. Nodes may sit at the
// top level, inside an array, or inside @graph. Malformed blocks are skipped.
func (p *Page) Products() []Product {
	if p.parsedLD {
		return p.products
	}
	p.parsedLD = true

	p.Doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" || !gjson.Valid(raw) {
			return
		}
		collectProducts(gjson.Parse(raw), &p.products)
	})
	return p.products
}

// FirstProduct returns the first Product node and whether one exists.
func (p *Page) FirstProduct() (Product, bool) {
	products := p.Products()
	if len(products) == 0 {
		return Product{}, false
	}
	return products[0], true
}

// ProductStr returns the first non-empty value at path across all products.
func (p *Page) ProductStr(path string) string {
	for _, prod := range p.Products() {
		if v := prod.Field(path); v != "" {
			return v
		}
	}
	return ""
}

func collectProducts(node gjson.Result, out *[]Product) {
	switch {
	case node.IsArray():
		node.ForEach(func(_, v gjson.Result) bool {
			collectProducts(v, out)
			return true
		})
	case node.IsObject():
		if graph := node.Get("@graph"); graph.Exists() {
			collectProducts(graph, out)
		}
		if isProduct(node.Get("@type")) {
			*out = append(*out, Product{node})
		}
	}
}

func isProduct(t gjson.Result) bool {
	if t.IsArray() {
		found := false
		t.ForEach(func(_, v gjson.Result) bool {
			if v.String() == "Product" {
				found = true
				return false
			}
			return true
		})
		return found
	}
	return t.String() == "Product"
}
