package sqlbuild_test

import (
	"fmt"
	"math/rand"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/garnizeh/jobly/pkg/sqlbuild"
)

var companyConds = sqlbuild.ConditionMap{
	"search":        {Column: "name", Op: "ILIKE"},
	"min_employees": {Column: "num_employees", Op: ">="},
	"max_employees": {Column: "num_employees", Op: "<="},
}

func TestWhere(t *testing.T) {
	tests := []struct {
		name       string
		params     sqlbuild.Params
		wantClause string
		wantArgs   []any
	}{
		{
			name:       "NoParams",
			params:     nil,
			wantClause: "",
			wantArgs:   []any{},
		},
		{
			name:       "OneCondition",
			params:     sqlbuild.Params{{Name: "min_employees", Value: 50}},
			wantClause: "WHERE num_employees >= $1",
			wantArgs:   []any{50},
		},
		{
			name:       "ILikeWrapsValue",
			params:     sqlbuild.Params{{Name: "search", Value: "Test Company"}},
			wantClause: "WHERE name ILIKE $1",
			wantArgs:   []any{"%Test Company%"},
		},
		{
			name: "MultipleConditions",
			params: sqlbuild.Params{
				{Name: "search", Value: "Test Company"},
				{Name: "min_employees", Value: 50},
				{Name: "max_employees", Value: 100},
			},
			wantClause: "WHERE name ILIKE $1 AND num_employees >= $2 AND num_employees <= $3",
			wantArgs:   []any{"%Test Company%", 50, 100},
		},
		{
			name: "SkipsUnmappedParams",
			params: sqlbuild.Params{
				{Name: "min_employees", Value: 50},
				{Name: "description", Value: "technology"},
			},
			wantClause: "WHERE num_employees >= $1",
			wantArgs:   []any{50},
		},
		{
			name:       "OnlyUnmappedParams",
			params:     sqlbuild.Params{{Name: "description", Value: "technology"}},
			wantClause: "",
			wantArgs:   []any{},
		},
		{
			name: "IndexSkipsGapsFromUnmapped",
			params: sqlbuild.Params{
				{Name: "_token", Value: "abc"},
				{Name: "max_employees", Value: 10},
				{Name: "page", Value: 2},
				{Name: "search", Value: "x"},
			},
			wantClause: "WHERE num_employees <= $1 AND name ILIKE $2",
			wantArgs:   []any{10, "%x%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := sqlbuild.Where(tt.params, companyConds)
			if clause != tt.wantClause {
				t.Fatalf("clause: want %q got %q", tt.wantClause, clause)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Fatalf("args: want %#v got %#v", tt.wantArgs, args)
			}
		})
	}
}

func TestWhere_LowercaseLikeOperator(t *testing.T) {
	conds := sqlbuild.ConditionMap{"q": {Column: "title", Op: "like"}}
	clause, args := sqlbuild.Where(sqlbuild.Params{{Name: "q", Value: "dev"}}, conds)
	if clause != "WHERE title like $1" {
		t.Fatalf("unexpected clause %q", clause)
	}
	if args[0] != "%dev%" {
		t.Fatalf("expected wrapped value, got %v", args[0])
	}
}

func TestWhere_EmptyForAnyConditionMap(t *testing.T) {
	for _, conds := range []sqlbuild.ConditionMap{nil, {}, companyConds} {
		clause, args := sqlbuild.Where(sqlbuild.Params{}, conds)
		if clause != "" || len(args) != 0 {
			t.Fatalf("expected empty result, got %q %v", clause, args)
		}
	}
}

var placeholderRE = regexp.MustCompile(`\$(\d+)`)

// Placeholders must number 1..n without gaps and match the arg count.
func TestWhere_PlaceholdersMatchArgs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	names := []string{"search", "min_employees", "max_employees", "other", "_token"}

	for i := 0; i < 200; i++ {
		var params sqlbuild.Params
		n := rng.Intn(8)
		for j := 0; j < n; j++ {
			params = params.Add(names[rng.Intn(len(names))], rng.Intn(1000))
		}

		clause, args := sqlbuild.Where(params, companyConds)
		matches := placeholderRE.FindAllStringSubmatch(clause, -1)
		if len(matches) != len(args) {
			t.Fatalf("iteration %d: %d placeholders, %d args (%q)", i, len(matches), len(args), clause)
		}
		for k, m := range matches {
			n, _ := strconv.Atoi(m[1])
			if n != k+1 {
				t.Fatalf("iteration %d: placeholder %d out of order in %q", i, n, clause)
			}
		}
		if len(args) > 0 && !strings.HasPrefix(clause, "WHERE ") {
			t.Fatalf("iteration %d: missing WHERE prefix in %q", i, clause)
		}
		if got := strings.Count(clause, " AND "); len(args) > 0 && got != len(args)-1 {
			t.Fatalf("iteration %d: want %d ANDs, got %d", i, len(args)-1, got)
		}
	}
}

func ExampleWhere() {
	clause, args := sqlbuild.Where(
		sqlbuild.Params{{Name: "search", Value: "Acme"}},
		sqlbuild.ConditionMap{"search": {Column: "name", Op: "ILIKE"}},
	)
	fmt.Println(clause, args)
	// Output: WHERE name ILIKE $1 [%Acme%]
}
