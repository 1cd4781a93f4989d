package search

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a node of a search filter tree. String renders the node in the
// Meilisearch filter grammar. A nil Expr means "no filter".
type Expr interface {
	String() string
}

// Eq matches documents whose field equals Value.
type Eq struct {
	Field string
	Value any
}

func (e Eq) String() string {
	return e.Field + " = " + literal(e.Value)
}

// In matches documents whose field equals any of Values.
type In struct {
	Field  string
	Values []string
}

func (e In) String() string {
	parts := make([]string, len(e.Values))
	for i, v := range e.Values {
		parts[i] = quote(v)
	}
	return e.Field + " IN [" + strings.Join(parts, ", ") + "]"
}

// And is a conjunction of clauses.
type And []Expr

func (e And) String() string {
	return join(e, " AND ")
}

// Or is a disjunction of clauses.
type Or []Expr

func (e Or) String() string {
	return join(e, " OR ")
}

// AllOf conjoins the non-nil clauses, collapsing to the single clause or nil.
func AllOf(clauses ...Expr) Expr {
	out := make(And, 0, len(clauses))
	for _, c := range clauses {
		if c != nil {
			out = append(out, c)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

// AnyOf disjoins the non-nil clauses, collapsing to the single clause or nil.
func AnyOf(clauses ...Expr) Expr {
	out := make(Or, 0, len(clauses))
	for _, c := range clauses {
		if c != nil {
			out = append(out, c)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

// Render returns the filter string for e, or "" when e is nil.
func Render(e Expr) string {
	if e == nil {
		return ""
	}
	return e.String()
}

func join(clauses []Expr, sep string) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c == nil {
			continue
		}
		s := c.String()
		switch v := c.(type) {
		case And:
			if len(v) > 1 {
				s = "(" + s + ")"
			}
		case Or:
			if len(v) > 1 {
				s = "(" + s + ")"
			}
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep)
}

func literal(v any) string {
	switch val := v.(type) {
	case string:
		return quote(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return quote(fmt.Sprint(val))
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
