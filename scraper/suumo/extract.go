package suumo

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"suumo-scraper/models"
)

// PageResult is what the extractor isolates from one results page.
type PageResult struct {
	Listings    []models.RawListing
	NextPageURL string
}

// ExtractListings parses a results page. Each building block yields one
// RawListing per room row, with the building-level fields repeated. Missing
// sub-fields come back empty rather than failing the page; only a page with
// neither listing blocks nor the no-results message is an error.
func ExtractListings(html, pageURL, searchStation string) (*PageResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &PermanentFetchError{URL: pageURL, Err: err}
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &PermanentFetchError{URL: pageURL, Err: err}
	}

	result := &PageResult{}
	scrapedAt := time.Now()

	blocks := doc.Find("div.cassetteitem")
	if blocks.Length() == 0 {
		if !hasNoResultsMarker(doc) {
			return nil, &PermanentFetchError{URL: pageURL, Err: errors.New("page has no recognisable listing blocks")}
		}
		return result, nil
	}

	blocks.Each(func(_ int, block *goquery.Selection) {
		title := strings.TrimSpace(block.Find("h2.cassetteitem_content-title").First().Text())
		address := strings.TrimSpace(block.Find("li.cassetteitem_detail-col1").First().Text())
		access := strings.TrimSpace(block.Find("li.cassetteitem_detail-col2").First().Text())
		ageArea := strings.TrimSpace(block.Find("li.cassetteitem_detail-col3").First().Text())

		block.Find("tbody tr.js-cassette_link").Each(func(_ int, row *goquery.Selection) {
			raw := models.RawListing{
				BuildingTitle:   title,
				Address:         address,
				Access:          access,
				BuildingAgeArea: ageArea,
				Floor:           strings.TrimSpace(row.Find("td.ui-text--midium").First().Text()),
				Rent:            strings.TrimSpace(row.Find("span.cassetteitem_price--rent").First().Text()),
				AdminFee:        strings.TrimSpace(row.Find("span.cassetteitem_price--administration").First().Text()),
				DepositKeyMoney: strings.TrimSpace(row.Find("span.cassetteitem_price--deposit").First().Text()),
				Layout:          strings.TrimSpace(row.Find("span.cassetteitem_madori").First().Text()),
				Area:            strings.TrimSpace(row.Find("span.cassetteitem_menseki").First().Text()),
				SearchStation:   searchStation,
				ScrapedAt:       scrapedAt,
			}
			if href, ok := row.Find("a").First().Attr("href"); ok {
				raw.DetailURL = resolveURL(base, href)
			}
			result.Listings = append(result.Listings, raw)
		})
	})

	// The 次へ link sits in the p element right after the page-count parts.
	// No match means this was the last page.
	if href, ok := doc.Find("p.pagination-parts + p a").First().Attr("href"); ok {
		result.NextPageURL = resolveURL(base, href)
	}

	return result, nil
}

func hasNoResultsMarker(doc *goquery.Document) bool {
	if doc.Find(".error_pop").Length() > 0 {
		return true
	}
	return strings.Contains(doc.Text(), "見つかりませんでした")
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
