package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// condition is a WHERE fragment whose "?" markers are numbered when the
// query is built.
type condition struct {
	clause string
	args   []any
}

// SortField is one ORDER BY column. Field is the logical name resolved
// through the ProjectionMap.
type SortField struct {
	Field      string
	Descending bool
}

// Builder assembles SELECT statements over a ProjectionMap. Conditions are
// joined with AND and numbered $1..$n in the order they were added.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	orderBy     []SortField
	defaultSort []SortField
}

func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// ParseSortFields parses "field,-other" into ascending and descending sort
// fields. Empty segments are skipped; empty input yields nil.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

func (b *Builder) Build() (string, []any) {
	where, args := b.where()
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.From() + where + b.order(), args
}

func (b *Builder) BuildCount() (string, []any) {
	where, args := b.where()
	return "SELECT COUNT(*) FROM " + b.projection.From() + where, args
}

// BuildPage returns the ordered SELECT for a 1-based page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	sql, args := b.Build()
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, pageSize, (page-1)*pageSize), args
}

// BuildSingle selects one row by its id column, ignoring other conditions.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.From(),
		b.projection.Column(idField),
	)
	return sql, []any{id}
}

// OrderByFields replaces the default sort.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.orderBy = fields
	return b
}

// WhereEquals is a no-op for nil values, including typed nil pointers.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.add(b.projection.Column(field)+" = ?", value)
}

// WhereContains matches a case-insensitive substring. Nil and empty values
// are ignored; LIKE wildcards in value match literally.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.add(b.projection.Column(field)+" ILIKE ?", likePattern(*value))
}

// WhereSearch matches search as a substring of any of fields.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := likePattern(*search)
	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		clauses[i] = b.projection.Column(field) + " ILIKE ?"
		args[i] = pattern
	}
	return b.add("("+strings.Join(clauses, " OR ")+")", args...)
}

// WhereAny matches field against any element of a slice, bound as a single
// array parameter. Nil and empty slices are ignored.
func (b *Builder) WhereAny(field string, values any) *Builder {
	if isNil(values) {
		return b
	}
	if v := reflect.ValueOf(values); v.Kind() == reflect.Slice && v.Len() == 0 {
		return b
	}
	return b.add(b.projection.Column(field)+" = ANY(?)", values)
}

func (b *Builder) WhereNull(field string) *Builder {
	return b.add(b.projection.Column(field) + " IS NULL")
}

func (b *Builder) WhereNotNull(field string) *Builder {
	return b.add(b.projection.Column(field) + " IS NOT NULL")
}

// WhereAfter keeps rows at or after t. Nil is ignored.
func (b *Builder) WhereAfter(field string, t *time.Time) *Builder {
	if t == nil {
		return b
	}
	return b.add(b.projection.Column(field)+" >= ?", *t)
}

// WhereBefore keeps rows strictly before t. Nil is ignored.
func (b *Builder) WhereBefore(field string, t *time.Time) *Builder {
	if t == nil {
		return b
	}
	return b.add(b.projection.Column(field)+" < ?", *t)
}

func (b *Builder) add(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

func (b *Builder) order() string {
	fields := b.orderBy
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := " ASC"
		if f.Descending {
			dir = " DESC"
		}
		parts[i] = b.projection.Column(f.Field) + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) where() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(" WHERE ")
	for i, cond := range b.conditions {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		next := 0
		for _, r := range cond.clause {
			if r != '?' {
				sb.WriteRune(r)
				continue
			}
			args = append(args, cond.args[next])
			next++
			sb.WriteString("$" + strconv.Itoa(len(args)))
		}
	}
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
