package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/listing-scraper/internal/contact"
)

func newTestLocal() *LocalScraper {
	return NewLocalScraper(5*time.Second, "listing-scraper-test")
}

func TestLocalScraper_CleanHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "listing-scraper-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`<html><head><title>Joe's Plumbing</title><style>p{color:red}</style></head>
<body><h1>Welcome</h1><p>Drains   cleared
fast.</p><script>track()</script>
<a href="mailto:joe@joesplumbing.com">Email us</a>
<a href="https://www.facebook.com/joesplumbing">Facebook</a>
<a href="/contact">Contact</a>
<a href="#top">Top</a></body></html>`))
	}))
	defer srv.Close()

	result, err := newTestLocal().Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "local_http", result.Source)
	assert.Equal(t, "Joe's Plumbing", result.Page.Title)
	assert.Equal(t, 200, result.Page.StatusCode)
	assert.Contains(t, result.Page.Text, "Drains cleared fast.")
	assert.Contains(t, result.Page.Text, "mailto:joe@joesplumbing.com")
	assert.Contains(t, result.Page.Text, "https://www.facebook.com/joesplumbing")
	assert.NotContains(t, result.Page.Text, "track()")
	assert.NotContains(t, result.Page.Text, "color:red")
	assert.Equal(t, []string{"https://www.facebook.com/joesplumbing", srv.URL + "/contact"}, result.Page.Links)
}

func TestLocalScraper_Cloudflare(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cf-Ray", "abc123")
		w.WriteHeader(403)
		_, _ = w.Write([]byte(`<html><body>Access denied</body></html>`))
	}))
	defer srv.Close()

	_, err := newTestLocal().Scrape(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestLocalScraper_Captcha(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`<html><body>Please complete the reCAPTCHA to continue</body></html>`))
	}))
	defer srv.Close()

	_, err := newTestLocal().Scrape(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestLocalScraper_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	_, err := newTestLocal().Scrape(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestLocalScraper_HTTP404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		_, _ = w.Write([]byte(`<html><body>Not found</body></html>`))
	}))
	defer srv.Close()

	_, err := newTestLocal().Scrape(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestLocalScraper_Latin1(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<html><body>Caf\xe9 open daily</body></html>"))
	}))
	defer srv.Close()

	result, err := newTestLocal().Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, result.Page.Text, "Café")
}

func TestLocalScraper_UnknownCharsetKeepsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=x-unknown")
		_, _ = w.Write([]byte(`<html><body><a href="mailto:joe@joesplumbing.com">Email</a></body></html>`))
	}))
	defer srv.Close()

	result, err := newTestLocal().Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, result.Page.Text, "mailto:joe@joesplumbing.com")
}

func TestHTMLToPage_SeparatesBlockText(t *testing.T) {
	page, err := htmlToPage([]byte(`<body><div>Email: info@acme.com</div><div>Phone: 555-0100</div>`+
		`<p>Call <b>Joe</b>'s team</p><ul><li>Drains</li><li>Pipes</li></ul>Open<br>daily</body>`), nil)
	require.NoError(t, err)
	assert.Equal(t, "Email: info@acme.com Phone: 555-0100 Call Joe's team Drains Pipes Open daily", page.Text)
}

func TestLocalScraper_EnrichAdjacentBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div>Email: info@acme.com</div><div>Phone: 555-0100</div>` +
			`<p>Follow us https://facebook.com/acme</p><p>Open daily</p></body></html>`))
	}))
	defer srv.Close()

	enricher := contact.NewEnricher(NewChain(nil, newTestLocal()), contact.RegexExtractor{})
	c := enricher.Enrich(context.Background(), srv.URL, false)

	assert.Equal(t, "info@acme.com", c.Email)
	assert.Equal(t, "https://facebook.com/acme", c.Socials["facebook"])
}

func TestLocalScraper_Defaults(t *testing.T) {
	s := NewLocalScraper(0, "")
	assert.Equal(t, 15*time.Second, s.client.Timeout)
	assert.NotEmpty(t, s.userAgent)
	assert.True(t, s.Supports("https://example.com"))
	assert.Equal(t, "local_http", s.Name())
}

func TestHTMLToPage_ResolvesRelativeLinks(t *testing.T) {
	base, _ := url.Parse("https://joesplumbing.com/services/")
	page, err := htmlToPage([]byte(`<body><a href="../contact#form">c</a><a href="../contact#form">dup</a></body>`), base)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://joesplumbing.com/contact"}, page.Links)
}
