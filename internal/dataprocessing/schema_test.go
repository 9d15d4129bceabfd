package dataprocessing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"engageboard/pkg/contracts/domain"
)

func TestValidate(t *testing.T) {
	table := &domain.Table{Columns: []string{"Page", "Date", "Likes", "Shares"}}
	mapping := domain.Mapping{
		domain.FieldShares:   "Shares",
		domain.FieldPageKey:  "Page",
		domain.FieldPostDate: "Date",
		domain.FieldLikes:    "Likes",
	}

	assert.Empty(t, Validate(table, mapping, []domain.Field{domain.FieldPageKey, domain.FieldLikes}))

	missing := Validate(table, mapping, domain.TablePerformance.RequiredFields())
	assert.Equal(t, []domain.Field{domain.FieldComments}, missing)
}

func TestValidateColumnNotInTable(t *testing.T) {
	table := &domain.Table{Columns: []string{"Page"}}
	mapping := domain.Mapping{
		domain.FieldPageKey:  "Page",
		domain.FieldShares:   "Shares",
		domain.FieldPostDate: "",
	}

	missing := Validate(table, mapping, []domain.Field{domain.FieldShares, domain.FieldPageKey, domain.FieldPostDate})

	assert.Equal(t, []domain.Field{domain.FieldPostDate, domain.FieldShares}, missing)
}

func TestValidateNilTable(t *testing.T) {
	missing := Validate(nil, domain.Mapping{domain.FieldPageKey: "Page"}, []domain.Field{domain.FieldPageKey})
	assert.Equal(t, []domain.Field{domain.FieldPageKey}, missing)
}

func TestSchemaError(t *testing.T) {
	err := error(&SchemaError{Table: domain.TablePerformance, Missing: []domain.Field{domain.FieldLikes, domain.FieldShares}})

	assert.True(t, errors.Is(err, ErrMissingFields))
	assert.Equal(t, "performance table: missing required fields: Likes, Shares", err.Error())
}
