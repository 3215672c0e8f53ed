// Package middleware holds the gin middleware shared by every route.
package middleware

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// CSRFCookieName is both the cookie and the form field carrying the token.
	CSRFCookieName = "csrf_token"
	CSRFFieldName  = "csrf_token"

	// DefaultCSRFBodyLimit bounds the form bodies buffered for inspection.
	DefaultCSRFBodyLimit int64 = 12 << 20

	csrfContextKey   = "csrf_token"
	csrfTokenBytes   = 32
	csrfCookieMaxAge = 24 * 60 * 60
)

var errBodyTooLarge = errors.New("request body too large")

type csrfTokenKey struct{}

// CSRFConfig configures the double-submit cookie check.
type CSRFConfig struct {
	// ExemptPrefixes lists path prefixes that are never checked.
	ExemptPrefixes []string
	// BodyLimit caps buffered form bodies; larger ones get 413.
	BodyLimit int64
}

// CSRF enforces that unsafe form submissions echo the csrf_token cookie in a
// csrf_token field. The body is buffered and restored so handlers can still
// call PostForm and FormFile.
func CSRF(cfg CSRFConfig) gin.HandlerFunc {
	limit := cfg.BodyLimit
	if limit <= 0 {
		limit = DefaultCSRFBodyLimit
	}

	return func(c *gin.Context) {
		token, err := c.Cookie(CSRFCookieName)
		if err != nil || token == "" {
			token, err = NewCSRFToken()
			if err != nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
		}

		c.Set(csrfContextKey, token)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), csrfTokenKey{}, token))
		setCSRFCookie(c, token)

		if !requiresCSRFCheck(c.Request, cfg.ExemptPrefixes) {
			c.Next()
			return
		}

		submitted, err := peekFormToken(c.Request, limit)
		if errors.Is(err, errBodyTooLarge) {
			c.Data(http.StatusRequestEntityTooLarge, "text/plain; charset=utf-8", []byte("Request body too large"))
			c.Abort()
			return
		}
		if err != nil || submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
			c.Data(http.StatusForbidden, "text/plain; charset=utf-8", []byte("CSRF validation failed"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// CSRFToken returns the token for the current request.
func CSRFToken(c *gin.Context) string {
	if token := c.GetString(csrfContextKey); token != "" {
		return token
	}
	return CSRFTokenFromContext(c.Request.Context())
}

// CSRFTokenFromContext returns the token stored on a request context.
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfTokenKey{}).(string)
	return token
}

// NewCSRFToken returns 32 random bytes as 64 hex characters.
func NewCSRFToken() (string, error) {
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// IsHTTPS reports whether the client reached us over TLS, directly or via a proxy.
func IsHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func setCSRFCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   csrfCookieMaxAge,
		HttpOnly: false,
		Secure:   IsHTTPS(c.Request),
		SameSite: http.SameSiteStrictMode,
	})
}

func requiresCSRFCheck(r *http.Request, exempt []string) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	for _, prefix := range exempt {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return false
		}
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

// peekFormToken reads the body, restores it on the request and returns the
// csrf_token field. It returns errBodyTooLarge when the body exceeds limit.
func peekFormToken(r *http.Request, limit int64) (string, error) {
	if r.Body == nil {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	_ = r.Body.Close()
	if err != nil {
		return "", err
	}
	if int64(len(body)) > limit {
		return "", errBodyTooLarge
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", nil
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		values, _ := url.ParseQuery(string(body))
		return values.Get(CSRFFieldName), nil
	case "multipart/form-data":
		return multipartField(body, params["boundary"], CSRFFieldName), nil
	}
	return "", nil
}

func multipartField(body []byte, boundary, field string) string {
	if boundary == "" {
		return ""
	}
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := reader.NextPart()
		if err != nil {
			return ""
		}
		if part.FormName() == field && part.FileName() == "" {
			value, err := io.ReadAll(io.LimitReader(part, 256))
			_ = part.Close()
			if err != nil {
				return ""
			}
			return string(value)
		}
		_ = part.Close()
	}
}
