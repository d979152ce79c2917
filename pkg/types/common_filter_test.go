package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func buildFilter(t *testing.T, f *CommonFilter) (string, []any) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	stmt := &gorm.Statement{DB: db, Clauses: map[string]clause.Clause{}}
	f.Build(stmt)
	return stmt.SQL.String(), stmt.Vars
}

func TestCommonFilter_Build(t *testing.T) {
	tests := []struct {
		name     string
		filter   *CommonFilter
		wantSQL  string
		wantVars []any
	}{
		{
			name:     "eq",
			filter:   &CommonFilter{Field: "status", Operator: CommonFilterOperatorEq, Values: []any{"active"}},
			wantSQL:  "`status` = ?",
			wantVars: []any{"active"},
		},
		{
			name:     "lt",
			filter:   &CommonFilter{Field: "priority", Operator: CommonFilterOperatorLt, Values: []any{10}},
			wantSQL:  "`priority` < ?",
			wantVars: []any{10},
		},
		{
			name:     "lte",
			filter:   &CommonFilter{Field: "priority", Operator: CommonFilterOperatorLte, Values: []any{10}},
			wantSQL:  "`priority` <= ?",
			wantVars: []any{10},
		},
		{
			name:     "gt",
			filter:   &CommonFilter{Field: "priority", Operator: CommonFilterOperatorGt, Values: []any{10}},
			wantSQL:  "`priority` > ?",
			wantVars: []any{10},
		},
		{
			name:     "gte",
			filter:   &CommonFilter{Field: "priority", Operator: CommonFilterOperatorGte, Values: []any{10}},
			wantSQL:  "`priority` >= ?",
			wantVars: []any{10},
		},
		{
			name:     "range",
			filter:   &CommonFilter{Field: "created_at", Operator: CommonFilterOperatorRange, Values: []any{"2024-01-01", "2024-12-31"}},
			wantSQL:  "(`created_at` >= ? AND `created_at` <= ?)",
			wantVars: []any{"2024-01-01", "2024-12-31"},
		},
		{
			name:     "in",
			filter:   &CommonFilter{Field: "status", Operator: CommonFilterOperatorIn, Values: []any{"active", "paused"}},
			wantSQL:  "`status` IN (?,?)",
			wantVars: []any{"active", "paused"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql, vars := buildFilter(t, tc.filter)
			assert.Equal(t, tc.wantSQL, sql)
			assert.Equal(t, tc.wantVars, vars)
		})
	}
}

func TestCommonFilter_Build_DegenerateInputs(t *testing.T) {
	sql, vars := buildFilter(t, &CommonFilter{Field: "status", Operator: CommonFilterOperatorEq})
	assert.Empty(t, sql)
	assert.Empty(t, vars)

	// range needs both bounds
	sql, _ = buildFilter(t, &CommonFilter{Field: "created_at", Operator: CommonFilterOperatorRange, Values: []any{"2024-01-01"}})
	assert.Empty(t, sql)

	sql, _ = buildFilter(t, &CommonFilter{Field: "status", Operator: "like", Values: []any{"a"}})
	assert.Empty(t, sql)
}

func TestCommonFilter_Build_NotEq(t *testing.T) {
	sql, vars := buildFilter(t, &CommonFilter{Field: "status", Operator: CommonFilterOperatorNotEq, Values: []any{"active"}})
	assert.NotEmpty(t, sql)
	assert.Contains(t, sql, "`status`")
	assert.Equal(t, []any{"active"}, vars)
}
