package domain

// Field is a semantic column the pipeline understands, independent of how a
// particular export names it.
type Field string

const (
	FieldPageKey        Field = "page_key"
	FieldPostID         Field = "post_id"
	FieldPostDate       Field = "post_date"
	FieldLikes          Field = "likes"
	FieldComments       Field = "comments"
	FieldShares         Field = "shares"
	FieldFollowerCount  Field = "follower_count"
	FieldPriorPostCount Field = "prior_post_count"
	FieldPriorEngage    Field = "prior_engagement"
	FieldPriorDayWon    Field = "prior_day_won"
	FieldPriorRank      Field = "prior_rank"
)

// AllFields lists every field in canonical order
var AllFields = []Field{
	FieldPageKey,
	FieldPostID,
	FieldPostDate,
	FieldLikes,
	FieldComments,
	FieldShares,
	FieldFollowerCount,
	FieldPriorPostCount,
	FieldPriorEngage,
	FieldPriorDayWon,
	FieldPriorRank,
}

// IsValid checks the field against the known set
func (f Field) IsValid() bool {
	return f.Order() >= 0
}

// Order returns the canonical position of the field, -1 when unknown
func (f Field) Order() int {
	for i, known := range AllFields {
		if known == f {
			return i
		}
	}
	return -1
}

// Label returns a human readable name used in diagnostics
func (f Field) Label() string {
	switch f {
	case FieldPageKey:
		return "Page/Profile/Channel Name"
	case FieldPostID:
		return "Post ID/Name"
	case FieldPostDate:
		return "Post Date"
	case FieldLikes:
		return "Likes"
	case FieldComments:
		return "Comments"
	case FieldShares:
		return "Shares"
	case FieldFollowerCount:
		return "Followers Count"
	case FieldPriorPostCount:
		return "Post Count"
	case FieldPriorEngage:
		return "Total Engagement"
	case FieldPriorDayWon:
		return "Day Won"
	case FieldPriorRank:
		return "Rank"
	default:
		return string(f)
	}
}

// TableKind identifies which of the three inputs a table or mapping belongs to
type TableKind string

const (
	TablePerformance TableKind = "performance"
	TablePrevious    TableKind = "previous"
	TableFollowers   TableKind = "followers"
)

// TableKinds lists the inputs in pipeline order
var TableKinds = []TableKind{TablePerformance, TablePrevious, TableFollowers}

// IsValid checks the kind against the known inputs
func (k TableKind) IsValid() bool {
	switch k {
	case TablePerformance, TablePrevious, TableFollowers:
		return true
	}
	return false
}

// Fields returns every field a table of this kind can carry
func (k TableKind) Fields() []Field {
	switch k {
	case TablePerformance:
		return []Field{FieldPageKey, FieldPostID, FieldPostDate, FieldLikes, FieldComments, FieldShares}
	case TablePrevious:
		return []Field{FieldPageKey, FieldPriorEngage, FieldPriorPostCount, FieldPriorDayWon, FieldPriorRank}
	case TableFollowers:
		return []Field{FieldPageKey, FieldFollowerCount}
	}
	return nil
}

// RequiredFields returns the fields a table of this kind cannot be used without
func (k TableKind) RequiredFields() []Field {
	switch k {
	case TablePerformance:
		return []Field{FieldPageKey, FieldPostDate, FieldLikes, FieldComments, FieldShares}
	case TablePrevious:
		return []Field{FieldPageKey}
	case TableFollowers:
		return []Field{FieldPageKey, FieldFollowerCount}
	}
	return nil
}

// Mapping ties semantic fields to the actual column names of one table.
// An empty column name means "not mapped".
type Mapping map[Field]string

// Column returns the mapped column name for the field
func (m Mapping) Column(f Field) (string, bool) {
	col, ok := m[f]
	if !ok || col == "" {
		return "", false
	}
	return col, true
}

// Clone returns an independent copy of the mapping
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
