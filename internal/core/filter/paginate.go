package filter

import (
	"reflect"
)

// Result fields written by Paginate.
const (
	FieldLastPage = "lastPage"
	FieldPageRows = "pageRows"
)

// Paginate windows a list. It reads "page" (1-based) and "pageSize" from args
// and returns the last page number and the rows of the requested page.
//
// A source that is not a slice counts as empty. There is always at least one
// page. A page past the end is clamped to the last page, and the clamped
// value is written back into args.
func Paginate(source any, args map[string]any) map[string]any {
	data := rows(source)
	pageSize := intArg(args, "pageSize", 0)
	page := intArg(args, "page", 1)

	lastPage := 1
	if pageSize > 0 {
		lastPage = (len(data) + pageSize - 1) / pageSize
		if lastPage == 0 {
			lastPage = 1
		}
	}

	requested := page
	if page > lastPage {
		page = lastPage
	}
	if page < 1 {
		page = 1
	}
	if page != requested {
		args["page"] = page
	}

	pageRows := []any{}
	if pageSize > 0 {
		offset := pageSize * (page - 1)
		end := offset + pageSize
		if end > len(data) {
			end = len(data)
		}
		if offset < end {
			pageRows = append(pageRows, data[offset:end]...)
		}
	}

	return map[string]any{
		FieldLastPage: lastPage,
		FieldPageRows: pageRows,
	}
}

func rows(source any) []any {
	switch s := source.(type) {
	case nil:
		return nil
	case []any:
		return s
	}
	v := reflect.ValueOf(source)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out
}

func intArg(args map[string]any, name string, def int) int {
	if n, ok := toInt(args[name]); ok {
		return n
	}
	return def
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
