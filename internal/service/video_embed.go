package service

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	videoLinePattern  = regexp.MustCompile(`^<?((?:https?://)?\S+?)>?$`)
	videoEmbedPattern = regexp.MustCompile(`^https://www\.youtube-nocookie\.com/embed/[A-Za-z0-9_-]{6,20}(\?[A-Za-z0-9=&_-]*)?$`)
	orderedListLine   = regexp.MustCompile(`^\d+\.\s+`)
	youtubeTimePart   = regexp.MustCompile(`(?i)(\d+)([hms])`)
	youtubeIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)
)

// embedVideos replaces paragraphs made of a single YouTube link with an
// iframe block. Code fences, indented code, quotes and lists are left alone.
func embedVideos(markdown string) string {
	if !strings.Contains(markdown, "youtu") {
		return markdown
	}

	lines := strings.Split(markdown, "\n")
	fence := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			switch {
			case fence == "":
				fence = trimmed[:3]
			case strings.HasPrefix(trimmed, fence):
				fence = ""
			}
			continue
		}
		if fence != "" || skipEmbedLine(line, trimmed) {
			continue
		}

		match := videoLinePattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		if embedURL, ok := youtubeEmbedURL(match[1]); ok {
			lines[i] = videoIframe(embedURL)
		}
	}
	return strings.Join(lines, "\n")
}

func skipEmbedLine(line, trimmed string) bool {
	if trimmed == "" || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
		return true
	}
	if strings.HasPrefix(trimmed, ">") || strings.HasPrefix(trimmed, "- ") ||
		strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "+ ") {
		return true
	}
	return orderedListLine.MatchString(trimmed)
}

// youtubeEmbedURL maps watch, short, live, embed and youtu.be links to the
// privacy-enhanced player URL.
func youtubeEmbedURL(raw string) (string, bool) {
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	path := strings.Trim(u.Path, "/")

	var videoID string
	switch host {
	case "youtu.be":
		videoID = path
	case "youtube.com", "youtube-nocookie.com":
		switch {
		case path == "watch":
			videoID = u.Query().Get("v")
		case strings.HasPrefix(path, "shorts/"), strings.HasPrefix(path, "embed/"), strings.HasPrefix(path, "live/"):
			videoID = path[strings.Index(path, "/")+1:]
		}
	default:
		return "", false
	}
	if i := strings.Index(videoID, "/"); i >= 0 {
		videoID = videoID[:i]
	}
	if !youtubeIDPattern.MatchString(videoID) {
		return "", false
	}

	params := url.Values{}
	params.Set("rel", "0")
	if start := youtubeStart(u.Query()); start > 0 {
		params.Set("start", strconv.Itoa(start))
	}
	return fmt.Sprintf("https://www.youtube-nocookie.com/embed/%s?%s", videoID, params.Encode()), true
}

// youtubeStart reads t= or start= as seconds or 1h2m3s.
func youtubeStart(query url.Values) int {
	value := strings.TrimSpace(query.Get("start"))
	if value == "" {
		value = strings.TrimSpace(query.Get("t"))
	}
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(strings.TrimSuffix(value, "s")); err == nil {
		return max(seconds, 0)
	}

	total := 0
	for _, part := range youtubeTimePart.FindAllStringSubmatch(value, -1) {
		n, _ := strconv.Atoi(part[1])
		switch strings.ToLower(part[2]) {
		case "h":
			total += n * 3600
		case "m":
			total += n * 60
		case "s":
			total += n
		}
	}
	return total
}

func videoIframe(embedURL string) string {
	return fmt.Sprintf(
		`<div class="video-embed"><iframe src="%s" title="Odtwarzacz YouTube" loading="lazy" allowfullscreen referrerpolicy="strict-origin-when-cross-origin"></iframe></div>`,
		html.EscapeString(embedURL),
	)
}
