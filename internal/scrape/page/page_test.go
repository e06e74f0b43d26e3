package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"offersearch-engine/internal/scrape/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<html><body>
<ul>
  <li class="card" data-id="1"><a href="/a?x=1">  First </a><time datetime="2024-05-01">May 1</time></li>
  <li class="card" data-id="2"><a href="/b">Second</a></li>
</ul>
</body></html>`

func TestAllAndFirst(t *testing.T) {
	doc, err := ParseString(sample, "https://example.com/jobs")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/jobs", doc.URL())

	cards, err := doc.All("li.card")
	require.NoError(t, err)
	require.Len(t, cards, 2)

	id, ok := cards[0].Attr("data-id")
	assert.True(t, ok)
	assert.Equal(t, "1", id)

	link, err := cards[0].First("a")
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, "  First ", link.Text())

	tm, err := cards[1].First("time")
	require.NoError(t, err)
	assert.Nil(t, tm)
}

func TestFirstIsScopedToContainer(t *testing.T) {
	doc, err := ParseString(sample, "")
	require.NoError(t, err)
	cards, err := doc.All("li.card")
	require.NoError(t, err)

	tm, err := cards[0].First("time")
	require.NoError(t, err)
	require.NotNil(t, tm)
	v, _ := tm.Attr("datetime")
	assert.Equal(t, "2024-05-01", v)
}

func TestInvalidSelectorIsAnError(t *testing.T) {
	doc, err := ParseString(sample, "")
	require.NoError(t, err)

	_, err = doc.All("li[")
	require.Error(t, err)

	cards, err := doc.All("li")
	require.NoError(t, err)
	_, err = cards[0].First("a[href")
	require.Error(t, err)
}

func TestGroupSelectorMatchesInDocumentOrder(t *testing.T) {
	doc, err := ParseString(`<div><h4>four</h4><h3>three</h3></div>`, "")
	require.NoError(t, err)
	divs, err := doc.All("div")
	require.NoError(t, err)
	first, err := divs[0].First("h3, h4")
	require.NoError(t, err)
	assert.Equal(t, "four", first.Text())
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(p, []byte(sample), 0o644))

	doc, err := LoadFile(p, "https://example.com")
	require.NoError(t, err)
	cards, err := doc.All("li.card")
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.html"), "")
	require.Error(t, err)
}

func TestFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			http.Error(w, "gone", http.StatusGone)
			return
		}
		_, _ = w.Write([]byte(sample))
	}))
	defer srv.Close()

	f := NewFetcher(util.NewHostLimiter(100, 2), time.Second)
	doc, err := f.Fetch(context.Background(), srv.URL+"/jobs")
	require.NoError(t, err)
	cards, err := doc.All("li.card")
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	_, err = f.Fetch(context.Background(), srv.URL+"/gone")
	require.Error(t, err)
}
