package widget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeInput struct{ v string }

func (f *fakeInput) SetValue(v string) { f.v = v }
func (f *fakeInput) Value() string     { return f.v }

type fakeBox struct{ on bool }

func (f *fakeBox) SetChecked(c bool) { f.on = c }
func (f *fakeBox) Checked() bool     { return f.on }

type fakeText struct{ s string }

func (f *fakeText) SetText(s string) { f.s = s }

type upper struct{}

func (upper) Format(v any, _ Options) string { return strings.ToUpper(v.(string)) }
func (upper) Parse(s string, _ Options) any  { return strings.ToLower(s) }

func TestRender(t *testing.T) {
	in := &fakeInput{}
	Render(in, 42, nil, nil)
	assert.Equal(t, "42", in.v)

	Render(in, nil, nil, nil)
	assert.Equal(t, "", in.v)

	txt := &fakeText{}
	Render(txt, "hi", upper{}, nil)
	assert.Equal(t, "HI", txt.s)

	box := &fakeBox{}
	Render(box, true, nil, nil)
	assert.True(t, box.on)
	Render(box, "false", nil, nil)
	assert.False(t, box.on)
}

func TestReadAndSupported(t *testing.T) {
	in := &fakeInput{v: "ABC"}
	v, ok := Read(in, upper{}, nil)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	_, ok = Read(&fakeText{}, nil, nil)
	assert.False(t, ok)

	assert.True(t, Supported(&fakeBox{}))
	assert.False(t, Supported(42))
}
