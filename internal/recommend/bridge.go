package recommend

import (
	"net/url"
	"strings"
)

// QueryParam carries a recommendation token between views.
const QueryParam = "recommended"

const delimiter = ","

// Encode serialises ids into a token. Identifiers never contain the delimiter,
// so Decode(Encode(ids)) returns ids unchanged.
func Encode(ids []string) string {
	return strings.Join(ids, delimiter)
}

// Decode splits a token back into identifiers. Segments are trimmed; empty
// segments and segments outside the identifier grammar are dropped, so a
// malformed token yields an empty list rather than an error.
func Decode(token string) []string {
	ids := []string{}
	for _, seg := range strings.Split(token, delimiter) {
		seg = strings.TrimSpace(seg)
		if seg == "" || !ValidIdentifier(seg) {
			continue
		}
		ids = append(ids, seg)
	}
	return ids
}

// ViewAllURL builds the listing-page URL that shows only ids. base is a path
// such as "/properties" or an absolute URL; existing query values are kept.
func ViewAllURL(base string, ids []string) string {
	u, err := url.Parse(base)
	if err != nil {
		u = &url.URL{Path: base}
	}
	q := u.Query()
	q.Set(QueryParam, Encode(ids))
	u.RawQuery = q.Encode()
	return u.String()
}

// FromQuery reads the recommendation parameter. present is false when the
// parameter is absent, which means "show the unfiltered catalog".
func FromQuery(q url.Values) (ids []string, present bool) {
	if !q.Has(QueryParam) {
		return nil, false
	}
	return Decode(q.Get(QueryParam)), true
}

// ListingPath is the navigation target for a single listing.
func ListingPath(id string) string {
	return "/property/" + url.PathEscape(id)
}
