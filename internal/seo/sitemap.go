// Package seo renders sitemap.xml and robots.txt.
package seo

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/projektfire/internal/db"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// URL is one <url> entry.
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

type staticEntry struct {
	path       string
	priority   string
	changeFreq string
}

var staticEntries = []staticEntry{
	{"/blog", "1.0", "daily"},
	{"/tutaj-zacznij", "0.8", "weekly"},
	{"/kalkulator-fire", "0.6", "monthly"},
	{"/kalkulator-procent-skladany", "0.6", "monthly"},
	{"/o-mnie", "0.5", "monthly"},
	{"/kontakt", "0.3", "monthly"},
}

// BuildSitemap lists the static pages, the given published articles and the
// categories under baseURL.
func BuildSitemap(baseURL string, articles []db.Article, categories []db.Category) ([]byte, error) {
	base := strings.TrimRight(baseURL, "/")
	set := urlSet{Xmlns: sitemapNamespace}

	for _, entry := range staticEntries {
		set.URLs = append(set.URLs, URL{Loc: base + entry.path, ChangeFreq: entry.changeFreq, Priority: entry.priority})
	}
	for _, article := range articles {
		set.URLs = append(set.URLs, URL{
			Loc:        fmt.Sprintf("%s/%s", base, article.Slug),
			LastMod:    article.LastModified().UTC().Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}
	for _, category := range categories {
		set.URLs = append(set.URLs, URL{
			Loc:        fmt.Sprintf("%s/kategoria/%s", base, category.Slug),
			ChangeFreq: "weekly",
			Priority:   "0.6",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// RobotsTxt allows everything except the panel and htmx fragments.
func RobotsTxt(baseURL string) string {
	return fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /panel/\nDisallow: /htmx/\n\nSitemap: %s/sitemap.xml\n", strings.TrimRight(baseURL, "/"))
}
