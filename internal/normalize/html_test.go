package normalize

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHTML = `<html><body>
<div class="incident impact-major">
  <h3>  Elevated
    errors </h3>
  <span class="date">Dec 5, 2024</span>
  <a href="/incidents/abc123">details</a>
</div>
<div class="incident"><h4>Second</h4></div>
</body></html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestFindFirst(t *testing.T) {
	doc := parse(t, sampleHTML)

	sel := FindFirst(doc.Selection, []string{".missing", "h3", "h4"})
	assert.Equal(t, "Elevated errors", Text(sel))

	empty := FindFirst(doc.Selection, []string{".missing"})
	assert.Equal(t, 0, empty.Length())
	assert.Equal(t, "", Text(empty))
}

func TestFindAll(t *testing.T) {
	doc := parse(t, sampleHTML)

	assert.Equal(t, 2, FindAll(doc.Selection, []string{".nope", ".incident"}).Length())
	assert.Equal(t, 0, FindAll(doc.Selection, []string{".nope"}).Length())
}

func TestClasses(t *testing.T) {
	doc := parse(t, sampleHTML)
	assert.Equal(t, []string{"incident", "impact-major"}, Classes(doc.Find(".incident").First()))
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://status.example.com/incidents/abc", ResolveURL("https://status.example.com", "/incidents/abc"))
	assert.Equal(t, "https://other.example.com/x", ResolveURL("https://status.example.com", "https://other.example.com/x"))
}
