package server

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/zeusync/nub/internal/core/model"
	"github.com/zeusync/nub/internal/core/path"
)

// plain converts a store value into something JSON can encode. Nodes are
// replaced by their content and the observer registry is left out.
func plain(v any) any {
	switch t := v.(type) {
	case *model.Views:
		return nil
	case *model.Bound:
		return plain(t.Values())
	case model.Node:
		return plain(t.Resolve(model.OpGet, path.Root.Iterator(), nil))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			if _, isViews := child.(*model.Views); isViews {
				continue
			}
			out[k] = plain(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = plain(child)
		}
		return out
	case error:
		return t.Error()
	}
	return v
}

type valueResponse struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
