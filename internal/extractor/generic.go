// Package extractor provides the orchestrator's fixed fallback scraper: a
// generic, structure-agnostic extractor used when no site-specific rule in
// the scraper factory matches.
package extractor

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/gymscraper/internal/types"
)

var classLineRe = regexp.MustCompile(`(?i)(mon(day)?|tue(sday)?|wed(nesday)?|thu(rsday)?|fri(day)?|sat(urday)?|sun(day)?|today|tomorrow)\b.{0,40}?\b(\d{1,2}(:\d{2})?\s*(am|pm)|\d{1,2}:\d{2})\b(.{0,60})`)

// Generic is the fixed fallback extractor: it scans every text node for a
// day-name-then-time-token adjacency and treats the trailing text as the
// class name, avoiding any site-specific DOM assumptions.
type Generic struct{}

// New constructs the generic fallback extractor.
func New() *Generic { return &Generic{} }

// Extract implements types.Extractor.
func (g *Generic) Extract(rawHTML string, pageURL string) (types.ScrapeResult, error) {
	doc, err := htmlquery.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return types.ScrapeResult{}, fmt.Errorf("extractor: parse html: %w", err)
	}

	orgName := pageTitle(doc)
	u, _ := url.Parse(pageURL)
	websiteURL := pageURL
	if u != nil {
		websiteURL = u.Scheme + "://" + u.Host
	}

	result := types.ScrapeResult{
		Organization: types.Organization{Name: orgName, WebsiteUrl: websiteURL},
		FetchedAt:    time.Now(),
	}

	locationName := "default"
	result.Locations = append(result.Locations, types.Location{
		OrganizationRef: websiteURL,
		Name:            locationName,
		IanaTimezone:    "",
	})

	for _, node := range htmlquery.Find(doc, "//text()") {
		text := strings.TrimSpace(htmlquery.InnerText(node))
		if text == "" || len(text) > 300 {
			continue
		}
		m := classLineRe.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[len(m)-1])
		if name == "" {
			name = "Class"
		}
		result.Classes = append(result.Classes, types.Class{
			LocationRef: locationName,
			Name:        name,
			RawTimeText: strings.TrimSpace(m[0]),
		})
	}

	return result, nil
}

func pageTitle(doc *html.Node) string {
	titleNode := htmlquery.FindOne(doc, "//title")
	if titleNode == nil {
		return "unknown"
	}
	title := strings.TrimSpace(htmlquery.InnerText(titleNode))
	if title == "" {
		return "unknown"
	}
	return title
}
