package store

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pricebook/internal/model"
)

// NormalizeURL canonicalizes a source URL so equivalent spellings dedupe to
// the same source_urls row: scheme and host lowercased, fragment stripped,
// trailing slash on the path trimmed.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", eris.Wrap(model.ErrInvalid, "source_url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", eris.Wrap(model.ErrInvalid, "source_url is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", eris.Wrap(model.ErrInvalid, "source_url must use http or https")
	}
	if u.Host == "" {
		return "", eris.Wrap(model.ErrInvalid, "source_url is missing a host")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String(), nil
}
