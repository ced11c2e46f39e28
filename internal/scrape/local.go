package scrape

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

// LocalScraper fetches HTML via net/http, detects blocks, and converts the
// page to plain text. Link targets are kept in the text so mailto: addresses
// and social profile URLs survive the conversion.
type LocalScraper struct {
	client    *http.Client
	userAgent string
}

// NewLocalScraper creates a LocalScraper with the given overall timeout.
func NewLocalScraper(timeout time.Duration, userAgent string) *LocalScraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; ListingScraper/1.0)"
	}
	return &LocalScraper{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		},
		userAgent: userAgent,
	}
}

func (l *LocalScraper) Name() string           { return "local_http" }
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches a URL, detects blocks, and strips HTML to plaintext.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", blockType)
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, eris.New("local_http: empty page")
	}

	body = decodeCharset(resp.Header.Get("Content-Type"), body)

	base := resp.Request.URL
	page, err := htmlToPage(body, base)
	if err != nil {
		return nil, err
	}
	page.URL = targetURL
	page.StatusCode = resp.StatusCode

	return &Result{Page: page, Source: "local_http"}, nil
}

// decodeCharset converts a non-UTF-8 body to UTF-8 using the charset named in
// the Content-Type header. Unknown or undecodable charsets leave the body as is.
func decodeCharset(contentType string, body []byte) []byte {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body
	}
	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return body
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		zap.L().Debug("local_http: unsupported charset, using raw bytes", zap.String("charset", charset))
		return body
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		zap.L().Debug("local_http: decode failed, using raw bytes",
			zap.String("charset", charset), zap.Error(err))
		return body
	}
	return decoded
}

// blockElements render on their own line in a browser, so their text must not
// run into the text of their neighbours.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"option": true, "p": true, "pre": true, "section": true, "table": true,
	"td": true, "th": true, "tr": true, "ul": true,
}

// visibleText writes the text under s in document order, separating block
// elements with whitespace. Inline elements are joined as rendered.
func visibleText(s *goquery.Selection, sb *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch name := goquery.NodeName(c); name {
		case "#text":
			sb.WriteString(c.Text())
		case "#comment":
		default:
			block := blockElements[name]
			if block {
				sb.WriteString("\n")
			}
			visibleText(c, sb)
			if block {
				sb.WriteString("\n")
			}
		}
	})
}

// htmlToPage drops script/style/noscript blocks, collapses the visible text
// and appends every link target on its own line.
func htmlToPage(body []byte, base *url.URL) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, eris.Wrap(err, "local_http: parse html")
	}

	page := Page{Title: strings.TrimSpace(doc.Find("title").First().Text())}

	doc.Find("script, style, noscript, template").Remove()

	var text strings.Builder
	visibleText(doc.Find("body"), &text)

	var sb strings.Builder
	sb.WriteString(strings.Join(strings.Fields(text.String()), " "))

	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		if seen[href] {
			return
		}
		seen[href] = true
		sb.WriteString("\n")
		sb.WriteString(href)

		if strings.HasPrefix(strings.ToLower(href), "mailto:") || base == nil {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		page.Links = append(page.Links, abs.String())
	})

	page.Text = sb.String()
	return page, nil
}
