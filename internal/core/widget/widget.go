// Package widget declares the display targets a store view can be bound to.
// Rendering itself belongs to the host; the store only formats values and
// pushes them through these interfaces.
package widget

import (
	"fmt"
)

// Input is an editable field.
type Input interface {
	SetValue(v string)
	Value() string
}

// Checkbox is a boolean input.
type Checkbox interface {
	SetChecked(checked bool)
	Checked() bool
}

// Element displays markup.
type Element interface {
	SetHTML(html string)
}

// Attribute is a single element attribute.
type Attribute interface {
	SetAttr(v string)
}

// Text is a text node.
type Text interface {
	SetText(text string)
}

// Categories names the accepted targets, for error messages.
const Categories = "an observer function, an input, checkbox, element, attribute or text target"

// Options are per-target formatting options.
type Options map[string]any

// Formatter converts model values to display strings and back.
type Formatter interface {
	Format(value any, opts Options) string
	Parse(text string, opts Options) any
}

// Supported reports whether target is one of the widget interfaces.
func Supported(target any) bool {
	switch target.(type) {
	case Checkbox, Input, Element, Attribute, Text:
		return true
	}
	return false
}

// Render writes value to target. A formatter, when given, produces the text;
// otherwise nil renders as "" and everything else through fmt.
func Render(target any, value any, f Formatter, opts Options) {
	if cb, ok := target.(Checkbox); ok {
		cb.SetChecked(truthy(value))
		return
	}

	text := format(value, f, opts)
	switch t := target.(type) {
	case Input:
		t.SetValue(text)
	case Element:
		t.SetHTML(text)
	case Attribute:
		t.SetAttr(text)
	case Text:
		t.SetText(text)
	}
}

// Read returns the current value of an input target, parsed by f when given.
func Read(target any, f Formatter, opts Options) (any, bool) {
	var raw any
	switch t := target.(type) {
	case Checkbox:
		raw = t.Checked()
	case Input:
		raw = t.Value()
	default:
		return nil, false
	}
	if s, ok := raw.(string); ok && f != nil {
		return f.Parse(s, opts), true
	}
	return raw, true
}

func format(value any, f Formatter, opts Options) string {
	if f != nil {
		return f.Format(value, opts)
	}
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != "" && b != "false"
	case int:
		return b != 0
	case float64:
		return b != 0
	}
	return true
}
