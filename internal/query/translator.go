// Package query translates flat HTTP query strings into structured listing
// searches: filter conditions, projection, sort and pagination.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"motomarket/pkg/errors"
)

type Operator string

const (
	OpEq  Operator = "=="
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="
	OpIn  Operator = "in"
)

type Condition struct {
	Field string
	Op    Operator
	Value interface{}
}

type SortField struct {
	Field string
	Desc  bool
}

// Search is the structured request handed to the entity store. The same
// Conditions drive both the count query and the page query, so pagination
// totals always match the result set.
type Search struct {
	Conditions []Condition
	Select     []string
	Sort       []SortField
	Page       int
	Limit      int
	Skip       int
}

const (
	DefaultLimit = 10
)

// Keys that never become filters.
var reservedKeys = map[string]bool{
	"select": true,
	"sort":   true,
	"page":   true,
	"limit":  true,
}

// Top-level shorthands rewritten to their nested document paths.
var fieldAliases = map[string]string{
	"brand":     "motorcycle.brand",
	"model":     "motorcycle.model",
	"year":      "motorcycle.year",
	"type":      "motorcycle.type",
	"condition": "motorcycle.condition",
	"city":      "location.city",
	"state":     "location.state",
}

// min/max pairs folded into a single two-sided range on the target field.
var rangeAliases = map[string]struct {
	field string
	op    Operator
}{
	"minPrice":   {"price", OpGte},
	"maxPrice":   {"price", OpLte},
	"minMileage": {"motorcycle.mileage", OpGte},
	"maxMileage": {"motorcycle.mileage", OpLte},
	"minYear":    {"motorcycle.year", OpGte},
	"maxYear":    {"motorcycle.year", OpLte},
}

var numericFields = map[string]bool{
	"price":                 true,
	"motorcycle.year":       true,
	"motorcycle.mileage":    true,
	"motorcycle.engineSize": true,
	"statistics.views":      true,
	"statistics.favorites":  true,
}

var comparisonOps = map[string]Operator{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
	"in":  OpIn,
}

// Translate maps raw query parameters into a Search. Filters default to
// status == active unless the caller filters on status explicitly. Malformed
// numeric bounds are rejected rather than silently ignored.
func Translate(values url.Values) (*Search, error) {
	s := &Search{Page: 1, Limit: DefaultLimit}

	statusFiltered := false

	for key := range values {
		if reservedKeys[key] {
			continue
		}
		value := values.Get(key)

		if alias, ok := rangeAliases[key]; ok {
			n, err := parseNumber(key, value)
			if err != nil {
				return nil, err
			}
			s.Conditions = append(s.Conditions, Condition{Field: alias.field, Op: alias.op, Value: n})
			continue
		}

		field, op := splitOperator(key)
		if alias, ok := fieldAliases[field]; ok {
			field = alias
		}
		if field == "status" {
			statusFiltered = true
		}

		cond, err := buildCondition(field, op, value)
		if err != nil {
			return nil, err
		}
		s.Conditions = append(s.Conditions, cond)
	}

	if !statusFiltered {
		s.Conditions = append(s.Conditions, Condition{Field: "status", Op: OpEq, Value: "active"})
	}

	if raw := values.Get("select"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				s.Select = append(s.Select, f)
			}
		}
	}

	s.Sort = parseSort(values.Get("sort"))

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return nil, errors.Validation("page must be a positive integer", err)
		}
		s.Page = page
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return nil, errors.Validation("limit must be a positive integer", err)
		}
		s.Limit = limit
	}
	s.Skip = (s.Page - 1) * s.Limit

	return s, nil
}

// splitOperator recognizes "field[op]" keys for op in gt, gte, lt, lte, in.
// Anything else is an equality filter on the whole key.
func splitOperator(key string) (string, Operator) {
	open := strings.IndexByte(key, '[')
	if open > 0 && strings.HasSuffix(key, "]") {
		if op, ok := comparisonOps[key[open+1:len(key)-1]]; ok {
			return key[:open], op
		}
	}
	return key, OpEq
}

func buildCondition(field string, op Operator, value string) (Condition, error) {
	if op == OpIn {
		parts := strings.Split(value, ",")
		list := make([]interface{}, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if numericFields[field] {
				n, err := parseNumber(field, p)
				if err != nil {
					return Condition{}, err
				}
				list = append(list, n)
			} else {
				list = append(list, p)
			}
		}
		return Condition{Field: field, Op: OpIn, Value: list}, nil
	}

	if numericFields[field] {
		n, err := parseNumber(field, value)
		if err != nil {
			return Condition{}, err
		}
		return Condition{Field: field, Op: op, Value: n}, nil
	}
	return Condition{Field: field, Op: op, Value: value}, nil
}

func parseNumber(name, value string) (float64, error) {
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.Validation(name+" must be a number", err)
	}
	return n, nil
}

func parseSort(raw string) []SortField {
	if raw == "" {
		// Featured listings first, then newest.
		return []SortField{
			{Field: "featured.isFeatured", Desc: true},
			{Field: "createdAt", Desc: true},
		}
	}

	var sort []SortField
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		desc := strings.HasPrefix(f, "-")
		field := strings.TrimPrefix(f, "-")
		if alias, ok := fieldAliases[field]; ok {
			field = alias
		}
		sort = append(sort, SortField{Field: field, Desc: desc})
	}
	return sort
}
