package filter

import (
	"fmt"
)

// Predicate tests one row.
type Predicate func(row any) bool

func always(any) bool { return true }

// Equals matches rows whose field id equals value. A nil value matches every
// row, as does an empty value when nonEmpty is set.
func Equals(id string, value any, nonEmpty bool) Predicate {
	if value == nil || (nonEmpty && isEmpty(value)) {
		return always
	}
	return func(row any) bool {
		v, ok := field(row, id)
		return ok && compare(v, value) == 0
	}
}

// LTE matches rows whose field id is at most value.
func LTE(id string, value any) Predicate {
	if value == nil {
		return always
	}
	return func(row any) bool {
		v, ok := field(row, id)
		return ok && compare(v, value) <= 0
	}
}

// GTE matches rows whose field id is at least value.
func GTE(id string, value any) Predicate {
	if value == nil {
		return always
	}
	return func(row any) bool {
		v, ok := field(row, id)
		return ok && compare(v, value) >= 0
	}
}

// All combines predicates.
func All(preds ...Predicate) Predicate {
	return func(row any) bool {
		for _, p := range preds {
			if !p(row) {
				return false
			}
		}
		return true
	}
}

// Where builds a ComputeFunc selecting the source rows accepted by the
// predicate made from the current arguments. The rows land in "rows".
func Where(build func(args map[string]any) Predicate) ComputeFunc {
	return func(source any, args map[string]any) map[string]any {
		pred := build(args)
		out := []any{}
		for _, row := range rows(source) {
			if pred(row) {
				out = append(out, row)
			}
		}
		return map[string]any{"rows": out}
	}
}

func field(row any, id string) (any, bool) {
	m, ok := row.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[id]
	return v, ok && v != nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case bool:
		return !x
	}
	n, ok := toFloat(v)
	return ok && n == 0
}

// compare orders numbers numerically and everything else by its printed form.
func compare(a, b any) int {
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	if f, ok := v.(float64); ok {
		return f, true
	}
	if f, ok := v.(float32); ok {
		return float64(f), true
	}
	n, ok := toInt(v)
	return float64(n), ok
}
