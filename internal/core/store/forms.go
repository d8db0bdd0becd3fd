package store

import (
	"fmt"

	"github.com/zeusync/nub/internal/core/model"
	"github.com/zeusync/nub/internal/core/path"
)

// RegisterForm mounts b under nub:forms/<name> and notifies observers of the
// mount. An empty name is replaced by a generated one.
func (s *Store) RegisterForm(name string, b model.Binding) *model.Bound {
	if name == "" {
		name = fmt.Sprintf("form%d", s.formCounter)
		s.formCounter++
	}
	bound := model.NewBound(name, b)
	s.Set(FormPath(name), bound)
	return bound
}

// Form returns a registered form.
func (s *Store) Form(name string) (*model.Bound, error) {
	if n, ok := model.AsNode(s.Get(FormPath(name))); ok && n.Kind() == model.KindBound {
		return n.(*model.Bound), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrFormNotFound, name)
}

// FormChanged notifies observers that field was edited outside the store.
func (s *Store) FormChanged(name, field string) {
	s.Notify(model.OpSet, FormPath(name).Child(field))
}

// FillForm writes each field of the form from data, notifying per field.
func (s *Store) FillForm(name string, data map[string]any) error {
	form, err := s.Form(name)
	if err != nil {
		return err
	}
	ctx := FormPath(name)
	for _, field := range form.Binding().Names() {
		s.Set(field, data[field], ctx)
	}
	return nil
}

// FormPath addresses a registered form.
func FormPath(name string) path.Path {
	return path.New(true, FormsRoot, name)
}
