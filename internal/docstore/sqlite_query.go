package docstore

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/erazemk/estatedesk/internal/db"
)

// sqlColumn returns the SQL expression for a document field.
func sqlColumn(field string) (string, error) {
	if field == IDField {
		return "id", nil
	}
	if !db.ValidField(field) {
		return "", fmt.Errorf("invalid field %q", field)
	}
	return db.JSONPath(field), nil
}

// sqlWhere translates f into a WHERE clause with positional arguments.
func sqlWhere(f Filter) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(f))
	var args []any
	for _, c := range f {
		col, err := sqlColumn(c.Field)
		if err != nil {
			return "", nil, err
		}

		switch c.Op {
		case OpEq:
			parts = append(parts, col+" = ?")
			args = append(args, sqlValue(c.Value))
		case OpGte:
			parts = append(parts, col+" >= ?")
			args = append(args, sqlValue(c.Value))
		case OpLte:
			parts = append(parts, col+" <= ?")
			args = append(args, sqlValue(c.Value))
		case OpIn:
			values, ok := c.Value.([]any)
			if !ok {
				return "", nil, fmt.Errorf("%s on %q: want []any, got %T", c.Op, c.Field, c.Value)
			}
			if len(values) == 0 {
				parts = append(parts, "0")
				continue
			}
			parts = append(parts, col+" IN ("+strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")+")")
			for _, v := range values {
				args = append(args, sqlValue(v))
			}
		case OpContainsFold:
			s, ok := c.Value.(string)
			if !ok {
				return "", nil, fmt.Errorf("%s on %q: want string, got %T", c.Op, c.Field, c.Value)
			}
			parts = append(parts, db.FoldFunc+"("+col+`) LIKE ? ESCAPE '\'`)
			args = append(args, "%"+escapeLike(strings.ToLower(s))+"%")
		case OpPrefix:
			s, ok := c.Value.(string)
			if !ok {
				return "", nil, fmt.Errorf("%s on %q: want string, got %T", c.Op, c.Field, c.Value)
			}
			// LIKE folds ASCII case, so compare the leading substring instead.
			parts = append(parts, "substr("+col+", 1, ?) = ?")
			args = append(args, utf8.RuneCountInString(s), s)
		case OpHas:
			if c.Field == IDField {
				return "", nil, fmt.Errorf("%s on %q: not an array", c.Op, c.Field)
			}
			parts = append(parts, fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(doc, '$.%s') WHERE value = ?)", c.Field))
			args = append(args, sqlValue(c.Value))
		default:
			return "", nil, fmt.Errorf("unsupported operator %s on %q", c.Op, c.Field)
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// sqlOrderBy translates a sort specification. Timestamps are stored as
// RFC 3339 text with variable fractional digits, which does not sort
// lexically, so every key is compared as a julian day when it parses as one.
func sqlOrderBy(sort []SortField) (string, error) {
	if len(sort) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(sort))
	for _, s := range sort {
		col, err := sqlColumn(s.Field)
		if err != nil {
			return "", err
		}
		expr := col
		if s.Field != IDField {
			expr = fmt.Sprintf("COALESCE(julianday(%s), %s)", col, col)
		}
		if s.Desc {
			expr += " DESC"
		} else {
			expr += " ASC"
		}
		parts = append(parts, expr)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// sqlValue converts a filter value to what json_extract yields for it.
func sqlValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
