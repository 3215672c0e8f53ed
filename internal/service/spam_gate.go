package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/projektfire/internal/ratelimit"
)

var (
	ErrCommentFieldsMissing = errors.New("nickname, content and article are required")
	ErrCommentTooLong       = errors.New("nickname or content is too long")
	ErrCommentRateLimited   = errors.New("too many comments")
	ErrContentBlacklisted   = errors.New("content contains forbidden words")
	ErrNicknameBlacklisted  = errors.New("nickname contains forbidden words")
)

const (
	maxNicknameLength = 100
	maxCommentLength  = 2000
)

// Verdict is the spam gate decision.
type Verdict int

const (
	// VerdictAccept lets the comment through.
	VerdictAccept Verdict = iota
	// VerdictDiscard drops the comment while the client is told it succeeded.
	VerdictDiscard
	// VerdictReject refuses the comment with Outcome.Err.
	VerdictReject
)

// Outcome is the result of Evaluate. Err is set only for VerdictReject.
type Outcome struct {
	Verdict Verdict
	Err     error
}

// CommentSubmission is an untrusted comment as posted by a visitor.
type CommentSubmission struct {
	ArticleID uint
	Nickname  string
	Content   string
	// Honeypot is the hidden "website" field; people leave it empty.
	Honeypot  string
	ClientKey string
	IPAddress string
}

// WordSource supplies the blacklist.
type WordSource interface {
	Words(ctx context.Context) ([]string, error)
}

// SpamGate runs the checks every comment passes before it is stored.
type SpamGate struct {
	limiter *ratelimit.Limiter
	words   WordSource
}

// NewSpamGate builds a gate over the comment limiter and blacklist.
func NewSpamGate(limiter *ratelimit.Limiter, words WordSource) *SpamGate {
	return &SpamGate{limiter: limiter, words: words}
}

// Evaluate applies honeypot, field validation, rate limit and blacklist in
// that order. The first failing check decides. Evaluate trims sub in place.
func (g *SpamGate) Evaluate(ctx context.Context, sub *CommentSubmission) Outcome {
	if sub.Honeypot != "" {
		return Outcome{Verdict: VerdictDiscard}
	}

	sub.Nickname = strings.TrimSpace(sub.Nickname)
	sub.Content = strings.TrimSpace(sub.Content)
	if sub.Nickname == "" || sub.Content == "" || sub.ArticleID == 0 {
		return reject(ErrCommentFieldsMissing)
	}
	if utf8.RuneCountInString(sub.Nickname) > maxNicknameLength || utf8.RuneCountInString(sub.Content) > maxCommentLength {
		return reject(ErrCommentTooLong)
	}

	if g.limiter != nil && !g.limiter.Allow(sub.ClientKey) {
		return reject(ErrCommentRateLimited)
	}

	if g.words != nil {
		words, err := g.words.Words(ctx)
		if err != nil {
			return reject(fmt.Errorf("load blacklist: %w", err))
		}
		if _, hit := matchBlacklisted(sub.Content, words); hit {
			return reject(ErrContentBlacklisted)
		}
		if _, hit := matchBlacklisted(sub.Nickname, words); hit {
			return reject(ErrNicknameBlacklisted)
		}
	}

	return Outcome{Verdict: VerdictAccept}
}

// Record counts an accepted submission against the client's limit.
func (g *SpamGate) Record(sub CommentSubmission) {
	if g.limiter != nil {
		g.limiter.Record(sub.ClientKey)
	}
}

func reject(err error) Outcome {
	return Outcome{Verdict: VerdictReject, Err: err}
}
