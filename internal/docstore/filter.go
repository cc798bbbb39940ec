package docstore

import "fmt"

// Op is a predicate operator.
type Op int

const (
	OpEq Op = iota
	OpIn
	OpGte
	OpLte
	// OpContainsFold is a case-insensitive substring match on a string field.
	OpContainsFold
	// OpPrefix is a case-sensitive prefix match on a string field.
	OpPrefix
	// OpHas matches documents whose array field contains the value.
	OpHas
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpIn:
		return "in"
	case OpGte:
		return "gte"
	case OpLte:
		return "lte"
	case OpContainsFold:
		return "containsFold"
	case OpPrefix:
		return "prefix"
	case OpHas:
		return "has"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Cond is a single predicate on one field.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction of predicates. The zero value matches everything.
type Filter []Cond

func Eq(field string, v any) Cond { return Cond{Field: field, Op: OpEq, Value: v} }

func In[T any](field string, vs ...T) Cond {
	values := make([]any, len(vs))
	for i, v := range vs {
		values[i] = v
	}
	return Cond{Field: field, Op: OpIn, Value: values}
}

func Gte(field string, v any) Cond { return Cond{Field: field, Op: OpGte, Value: v} }

func Lte(field string, v any) Cond { return Cond{Field: field, Op: OpLte, Value: v} }

func ContainsFold(field, s string) Cond {
	return Cond{Field: field, Op: OpContainsFold, Value: s}
}

func Prefix(field, s string) Cond { return Cond{Field: field, Op: OpPrefix, Value: s} }

func Has(field string, v any) Cond { return Cond{Field: field, Op: OpHas, Value: v} }

// ByID matches the document with the given id.
func ByID(id string) Filter { return Filter{Eq(IDField, id)} }

// And returns f extended with more predicates. f is not modified.
func (f Filter) And(conds ...Cond) Filter {
	out := make(Filter, 0, len(f)+len(conds))
	out = append(out, f...)
	return append(out, conds...)
}

// Lookup returns the first predicate on field with the given operator.
func (f Filter) Lookup(field string, op Op) (Cond, bool) {
	for _, c := range f {
		if c.Field == field && c.Op == op {
			return c, true
		}
	}
	return Cond{}, false
}
