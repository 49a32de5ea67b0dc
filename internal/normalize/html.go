package normalize

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Text returns the whitespace-normalized text of the first node in sel.
func Text(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return CleanText(sel.First().Text())
}

// Classes returns the CSS classes of the first node in sel.
func Classes(sel *goquery.Selection) []string {
	class, _ := sel.Attr("class")
	return strings.Fields(class)
}

// FindFirst returns the first element matched by the earliest selector in
// the list that matches anything, or an empty selection.
func FindFirst(sel *goquery.Selection, selectors []string) *goquery.Selection {
	for _, s := range selectors {
		if found := sel.Find(s); found.Length() > 0 {
			return found.First()
		}
	}
	return sel.Slice(0, 0)
}

// FindAll returns every element matched by the earliest selector in the
// list that matches anything.
func FindAll(sel *goquery.Selection, selectors []string) *goquery.Selection {
	for _, s := range selectors {
		if found := sel.Find(s); found.Length() > 0 {
			return found
		}
	}
	return sel.Slice(0, 0)
}

// ResolveURL resolves href against base. Unparsable input yields "".
func ResolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}
