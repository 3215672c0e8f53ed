package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const scheduleInputLayout = "2006-01-02T15:04"

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// parseOptionalUint treats blank or malformed values as "not set".
func parseOptionalUint(raw string) *uint {
	parsed, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || parsed == 0 {
		return nil
	}
	id := uint(parsed)
	return &id
}

func parseUintSlice(values []string) []uint {
	ids := make([]uint, 0, len(values))
	for _, raw := range values {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		parsed, err := strconv.ParseUint(trimmed, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint(parsed))
	}
	return ids
}

func parsePositiveInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// parseLocalTime reads a datetime-local input in loc.
func parseLocalTime(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(scheduleInputLayout, raw, loc)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func formatLocalTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(loc).Format(scheduleInputLayout)
}

// redirectSeeOther is the post-action redirect used throughout the panel.
func redirectSeeOther(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// htmxError swaps an error message into #comment-errors instead of the target.
func (a *API) htmxError(c *gin.Context, status int, message string) {
	c.Header("HX-Retarget", "#comment-errors")
	c.Header("HX-Reswap", "innerHTML")
	c.HTML(status, "comment_error.html", gin.H{"error": message})
}
