package service

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithParserOptions(parser.WithAutoHeadingID(), parser.WithAttribute()),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML(), html.WithUnsafe()),
	)
	sanitizer = newSanitizer()
)

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("loading").Matching(regexp.MustCompile(`^(lazy|eager)$`)).OnElements("img")
	p.AllowAttrs("id").Matching(regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^video-embed$`)).OnElements("div")
	p.AllowElements("iframe")
	p.AllowAttrs("src").Matching(videoEmbedPattern).OnElements("iframe")
	p.AllowAttrs("title", "loading", "allowfullscreen", "referrerpolicy").OnElements("iframe")
	return p
}

// RenderMarkdown converts markdown into sanitized HTML. Raw HTML passes
// goldmark and is cleaned by bluemonday afterwards. Images get
// loading="lazy" unless they already declare a loading mode. A paragraph
// holding only a YouTube link becomes an embedded player.
func RenderMarkdown(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(embedVideos(content)), &buf); err != nil {
		return "", err
	}

	safe := sanitizer.SanitizeBytes(buf.Bytes())
	if !bytes.Contains(safe, []byte("<img")) {
		return string(safe), nil
	}
	return lazyLoadImages(string(safe))
}

func lazyLoadImages(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if _, ok := img.Attr("loading"); !ok {
			img.SetAttr("loading", "lazy")
		}
	})

	return doc.Find("body").Html()
}
