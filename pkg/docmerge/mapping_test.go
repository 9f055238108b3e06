package docmerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	row := Row{
		"first":   "John",
		"middle":  "   ",
		"last":    " Doe ",
		"company": "",
		"email":   "john@example.com",
	}

	tests := []struct {
		name    string
		mapping FieldMapping
		want    string
	}{
		{"first present wins", NewFieldMapping(false, "first", "last"), "John"},
		{"falls back past blanks", NewFieldMapping(false, "company", "middle", "email"), "john@example.com"},
		{"values are trimmed", NewFieldMapping(false, "last"), "Doe"},
		{"combine joins with one space", NewFieldMapping(true, "first", "middle", "last"), "John Doe"},
		{"combine skips missing columns", NewFieldMapping(true, "nope", "last", "first"), "Doe John"},
		{"nothing present", NewFieldMapping(false, "company", "middle"), ""},
		{"combine with nothing present", NewFieldMapping(true, "company", "nope"), ""},
		{"no candidates", FieldMapping{}, ""},
		{"blank slots are skipped", FieldMapping{Candidates: []string{"", "email"}, Count: 3}, "john@example.com"},
		{"count limits candidates", FieldMapping{Candidates: []string{"company", "email"}, Count: 1}, ""},
		{"zero count uses all candidates", FieldMapping{Candidates: []string{"company", "first"}}, "John"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.mapping, row))
		})
	}
}

func TestFieldMappingSlots(t *testing.T) {
	m := FieldMapping{Candidates: []string{"a"}, Count: 3}
	assert.Equal(t, []string{"a", "", ""}, m.Slots())
	assert.Equal(t, []string{"a"}, m.Columns())

	m = NewFieldMapping(true, "a", "b")
	assert.Equal(t, 2, m.Count)
	assert.True(t, m.Combine)
}

func TestFieldMappingValidate(t *testing.T) {
	tests := []struct {
		name    string
		mapping FieldMapping
		wantErr bool
	}{
		{"valid", NewFieldMapping(false, "a", "b"), false},
		{"five candidates", NewFieldMapping(false, "a", "b", "c", "d", "e"), false},
		{"blank slots", FieldMapping{Candidates: []string{""}, Count: 5}, false},
		{"six candidates", NewFieldMapping(false, "a", "b", "c", "d", "e", "f"), true},
		{"count too large", FieldMapping{Count: 6}, true},
		{"negative count", FieldMapping{Count: -1}, true},
		{"more candidates than count", FieldMapping{Candidates: []string{"a", "b"}, Count: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mapping.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMappings(t *testing.T) {
	headers := []string{"first", "last"}
	mappings := map[string]FieldMapping{
		"NAME":    NewFieldMapping(true, "first", "last"),
		"{EMAIL}": NewFieldMapping(false, "email", "mail"),
		"CITY":    NewFieldMapping(false, "city"),
	}

	err := ValidateMappings(headers, mappings)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []ValidationIssue{
		{Field: "{CITY}", Message: `column "city" not found in csv`},
		{Field: "{EMAIL}", Message: `column "email" not found in csv`},
		{Field: "{EMAIL}", Message: `column "mail" not found in csv`},
	}, verr.Issues)

	assert.NoError(t, ValidateMappings(headers, map[string]FieldMapping{"NAME": NewFieldMapping(false, "first")}))
	assert.NoError(t, ValidateMappings(nil, mappings), "nil headers skip the column check")
}

func TestResolveAll(t *testing.T) {
	row := Row{"first": "Ada", "last": "Lovelace"}
	values := ResolveAll(map[string]FieldMapping{
		"{NAME}": NewFieldMapping(true, "first", "last"),
		"LAST":   NewFieldMapping(false, "last"),
	}, row)
	assert.Equal(t, map[string]string{"NAME": "Ada Lovelace", "LAST": "Lovelace"}, values)
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "NAME", CanonicalName("{NAME}"))
	assert.Equal(t, " NAME ", CanonicalName(" NAME "))
	assert.Equal(t, " NAME ", CanonicalName("{ NAME }"))
	assert.Equal(t, "Due Date", CanonicalName("{Due Date}"))
	assert.Equal(t, "{x", CanonicalName("{x"))
}
