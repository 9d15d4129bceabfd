package dataprocessing

import (
	"regexp"
	"slices"
	"strings"

	"engageboard/pkg/contracts/domain"
)

// fieldSynonyms is the ordered list of header spellings accepted for each field.
// Entries are in normalised form.
var fieldSynonyms = map[domain.Field][]string{
	domain.FieldPageKey:        {"page", "profile", "channel", "account", "page_name", "name"},
	domain.FieldPostID:         {"post_id", "post_name", "post", "id", "content"},
	domain.FieldPostDate:       {"post_date", "date", "published", "posted", "time"},
	domain.FieldLikes:          {"likes", "like", "like_count", "love", "reactions"},
	domain.FieldComments:       {"comments", "comment", "comment_count", "replies"},
	domain.FieldShares:         {"shares", "share", "share_count", "repost", "reposts"},
	domain.FieldFollowerCount:  {"followers", "follower", "follower_count", "fans", "subscribers"},
	domain.FieldPriorPostCount: {"post_count", "posts", "post", "total_posts", "count"},
	domain.FieldPriorEngage:    {"engagement", "total_engagement", "eng"},
	domain.FieldPriorDayWon:    {"day_won", "days_won", "won", "days"},
	domain.FieldPriorRank:      {"rank", "ranking", "position"},
}

var separatorRun = regexp.MustCompile(`[\s\-.]+`)

// Synonyms returns a copy of the accepted spellings for a field
func Synonyms(field domain.Field) []string {
	return append([]string(nil), fieldSynonyms[field]...)
}

// NormalizeHeader lower-cases a header, strips BOM and zero-width characters,
// and collapses whitespace, dash and dot runs into a single underscore.
func NormalizeHeader(header string) string {
	h := strings.TrimPrefix(header, "\ufeff")
	h = strings.ReplaceAll(h, "\u200b", "")
	h = strings.ToLower(strings.TrimSpace(h))
	h = separatorRun.ReplaceAllString(h, "_")
	return strings.Trim(h, "_")
}

// Resolve finds the column that best matches a semantic field.
//
// An exact match on any synonym wins over a substring match. Within each pass
// synonyms are tried in order, and for each synonym the headers are scanned left
// to right. Blank headers never match.
func Resolve(headers []string, field domain.Field) (string, bool) {
	normalized := normalizeAll(headers)
	idx := matchIndex(normalized, field, nil, true)
	if idx < 0 {
		idx = matchIndex(normalized, field, nil, false)
	}
	if idx < 0 {
		return "", false
	}
	return headers[idx], true
}

func normalizeAll(headers []string) []string {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}
	return normalized
}

func matchIndex(normalized []string, field domain.Field, taken map[int]bool, exact bool) int {
	for _, syn := range fieldSynonyms[field] {
		for i, h := range normalized {
			if h == "" || taken[i] {
				continue
			}
			if exact && h == syn {
				return i
			}
			if !exact && strings.Contains(h, syn) {
				return i
			}
		}
	}
	return -1
}

// AutoMap proposes a full mapping for the given fields. Every field first gets a
// chance at an exact match, then the rest fall back to substring matching. Fields
// are visited in the order given and a claimed column is never mapped twice.
// Unresolved fields are left out of the mapping.
func AutoMap(headers []string, fields []domain.Field) domain.Mapping {
	normalized := normalizeAll(headers)
	mapping := make(domain.Mapping, len(fields))
	taken := make(map[int]bool, len(fields))
	for _, exact := range []bool{true, false} {
		for _, field := range fields {
			if _, done := mapping[field]; done {
				continue
			}
			if idx := matchIndex(normalized, field, taken, exact); idx >= 0 {
				taken[idx] = true
				mapping[field] = headers[idx]
			}
		}
	}
	return mapping
}

// AutoMapKind proposes a mapping for a table of the given kind. Required fields are
// visited before optional ones, so an optional field never claims the only column a
// required field could use.
func AutoMapKind(headers []string, kind domain.TableKind) domain.Mapping {
	required := kind.RequiredFields()
	ordered := append([]domain.Field(nil), required...)
	for _, field := range kind.Fields() {
		if !slices.Contains(required, field) {
			ordered = append(ordered, field)
		}
	}
	return AutoMap(headers, ordered)
}
