package directory

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/listing-scraper/internal/model"
)

// PageSize is the number of listings the directory serves per results page.
const PageSize = 30

// PageResult is the outcome of parsing one results page.
type PageResult struct {
	Listings []*model.Listing
	// TotalResults is the result count the page reports for the whole search.
	TotalResults int
}

// PageBound returns the last page expected to hold results: ceil(total/pageSize).
func PageBound(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// ParsePage extracts every listing card from a results page. Missing elements
// leave the matching field empty; only an unreadable document is an error.
// baseURL prefixes the relative business page links.
func ParsePage(content []byte, baseURL string) (PageResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return PageResult{}, eris.Wrap(err, "directory: parse html")
	}

	var res PageResult
	res.TotalResults = totalResults(doc)

	doc.Find(".organic .srp-listing").Each(func(_ int, card *goquery.Selection) {
		res.Listings = append(res.Listings, parseListing(card, baseURL))
	})

	return res, nil
}

func parseListing(card *goquery.Selection, baseURL string) *model.Listing {
	l := &model.Listing{
		Name:     text(card, ".business-name span"),
		Phone:    text(card, ".phones"),
		Street:   text(card, ".street-address"),
		Category: categories(card),
	}

	if rank := text(card, ".info-primary h2"); rank != "" {
		l.Rank, _, _ = strings.Cut(rank, ". ")
	}
	if href, ok := card.Find(".business-name").First().Attr("href"); ok {
		l.BusinessPage = baseURL + href
	}
	if href, ok := card.Find(".track-visit-website").First().Attr("href"); ok {
		l.Website = href
	}
	if rating := text(card, ".ratings .count"); rating != "" {
		l.Rating = strings.Trim(rating, "()")
	}

	l.Locality, l.Region, l.Zipcode = SplitLocality(text(card, ".locality"))
	return l
}

// SplitLocality splits "City, ST 12345" into its parts. Without a comma the
// whole value is the locality. When the remainder after the comma is not
// exactly "region zipcode", region and zipcode are both left empty.
func SplitLocality(raw string) (locality, region, zipcode string) {
	if raw == "" {
		return "", "", ""
	}
	locality, rest, found := strings.Cut(raw, ",")
	if !found {
		return raw, "", ""
	}
	parts := strings.Fields(rest)
	if len(parts) != 2 {
		return locality, "", ""
	}
	return locality, parts[0], parts[1]
}

func totalResults(doc *goquery.Document) int {
	sel := doc.Find(".showing-count").First()
	if sel.Length() == 0 {
		return 0
	}
	fields := strings.Fields(sel.Text())
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(fields[len(fields)-1], ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func text(card *goquery.Selection, selector string) string {
	return strings.TrimSpace(card.Find(selector).First().Text())
}

func categories(card *goquery.Selection) string {
	var cats []string
	card.Find(".categories a").Each(func(_ int, a *goquery.Selection) {
		cats = append(cats, strings.TrimSpace(a.Text()))
	})
	return strings.Join(cats, ", ")
}
