package media

import (
	"context"
	"net/url"
	"strings"

	"github.com/AdamBeresnev/op-bracket/internal/utils"
)

const PlaceholderLogo = "/static/img/team-placeholder.svg"

type RefType int

const (
	RefNone RefType = iota
	RefAbsolute
	RefKey
)

// Classify tells full URLs apart from storage keys
func Classify(ref *string) RefType {
	trimmed := strings.TrimSpace(utils.ValueOr(ref, ""))
	if trimmed == "" {
		return RefNone
	}

	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:image/") {
		return RefAbsolute
	}
	return RefKey
}

// Resolver turns a stored logo reference into something a browser can load
type Resolver interface {
	Resolve(ctx context.Context, ref *string) (string, error)
}

// PublicURLResolver joins storage keys onto a public bucket URL
type PublicURLResolver struct {
	BaseURL string
}

func (r PublicURLResolver) Resolve(_ context.Context, ref *string) (string, error) {
	switch Classify(ref) {
	case RefNone:
		return PlaceholderLogo, nil
	case RefAbsolute:
		return strings.TrimSpace(*ref), nil
	}

	key := strings.TrimLeft(strings.TrimSpace(*ref), "/")
	if r.BaseURL == "" {
		return "/" + key, nil
	}
	return url.JoinPath(r.BaseURL, key)
}
