package generic

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type platform struct {
	name     string
	markers  []string
	selector string
}

// platforms are recognized by markers in the raw page source.
var platforms = []platform{
	{"statuspage", []string{"statuspage.io", "atlassian"}, ".incident-container"},
	{"status.io", []string{"status.io"}, ".incident"},
	{"cachet", []string{"cachet"}, ".timeline__item"},
	{"instatus", []string{"instatus"}, "[data-testid='incident']"},
	{"betteruptime", []string{"betteruptime", "better uptime"}, ".incident-item"},
}

const (
	unknownPlatform    = "unknown"
	paginationSelector = ".pagination, .pager, nav[aria-label*='pagination'], .page-numbers"
	nextLinkSelector   = "a[rel='next'], a.next"
)

// PageInfo describes what DetectPage learned about a status page.
type PageInfo struct {
	Platform         string
	IncidentSelector string
	HasPagination    bool
	NextPage         string
}

// DetectPage identifies the hosting platform and its incident selector.
func DetectPage(html string, doc *goquery.Document) PageInfo {
	info := PageInfo{Platform: unknownPlatform}

	source := strings.ToLower(html)
	for _, p := range platforms {
		if containsAny(source, p.markers) {
			info.Platform = p.name
			info.IncidentSelector = p.selector
			break
		}
	}

	if pager := doc.Find(paginationSelector).First(); pager.Length() > 0 {
		info.HasPagination = true
		if href, ok := pager.Find(nextLinkSelector).First().Attr("href"); ok {
			info.NextPage = href
		}
	}
	return info
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
