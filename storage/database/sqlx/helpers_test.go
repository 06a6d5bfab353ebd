package sqlxrepos

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minhaescola/backend/core"
)

func TestOrderBy(t *testing.T) {
	sortable := map[string]string{
		"name":       "c.name",
		"created_at": "c.created_at",
	}

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     string
	}{
		{name: "no ordering falls back to default", want: "c.created_at DESC"},
		{name: "single field", ordering: []core.DBOrdering{{Field: "name", Ascending: true}},
			want: "c.name ASC"},
		{name: "multiple fields keep their order", ordering: []core.DBOrdering{
			{Field: "name", Ascending: true}, {Field: "created_at"}},
			want: "c.name ASC, c.created_at DESC"},
		{name: "unknown field is dropped", ordering: []core.DBOrdering{
			{Field: "password_hash"}, {Field: "name", Ascending: true}},
			want: "c.name ASC"},
		{name: "sql expression never reaches the clause", ordering: []core.DBOrdering{
			{Field: "(CASE WHEN (SELECT password_hash FROM \"user\" LIMIT 1) > '' THEN id ELSE name END)"}},
			want: "c.created_at DESC"},
		{name: "nothing surviving falls back to default", ordering: []core.DBOrdering{
			{Field: "id; DROP TABLE course"}, {Field: "teacher_id"}},
			want: "c.created_at DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderBy(tt.ordering, sortable, "c.created_at DESC"))
		})
	}
}
