package utils

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptySlug is returned when a name has no characters usable in a slug.
var ErrEmptySlug = errors.New("name produces an empty slug")

// Slugify lowercases text, strips accents and joins the remaining ASCII
// letters and digits with single hyphens.
func Slugify(text string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range norm.NFKD.String(text) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// SlugExists reports whether slug is already taken in the target collection.
type SlugExists func(ctx context.Context, slug string) (bool, error)

// SlugGenerator assigns unique slugs before a record is written. Handlers
// call Unique explicitly ahead of every insert or rename.
type SlugGenerator struct {
	ids         *IDGenerator
	maxAttempts int
}

func NewSlugGenerator(ids *IDGenerator) *SlugGenerator {
	return &SlugGenerator{ids: ids, maxAttempts: 20}
}

// Unique returns the slug of name, suffixed "-2", "-3", ... when taken. After
// maxAttempts numbered tries it falls back to a random reference suffix.
func (g *SlugGenerator) Unique(ctx context.Context, name string, exists SlugExists) (string, error) {
	base := Slugify(name)
	if base == "" {
		return "", ErrEmptySlug
	}

	candidate := base
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if attempt > 1 {
			candidate = fmt.Sprintf("%s-%d", base, attempt)
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", errors.Wrap(err, "failed to check slug")
		}
		if !taken {
			return candidate, nil
		}
	}

	code, err := g.ids.GenerateID()
	if err != nil {
		return "", err
	}
	candidate = base + "-" + strings.ToLower(code)
	taken, err := exists(ctx, candidate)
	if err != nil {
		return "", errors.Wrap(err, "failed to check slug")
	}
	if taken {
		return "", fmt.Errorf("failed to generate unique slug for %q", name)
	}
	return candidate, nil
}
