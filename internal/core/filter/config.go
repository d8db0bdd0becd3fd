package filter

import (
	"io"

	"gopkg.in/yaml.v3"
)

// Empty row policies.
const (
	EmptyRowsHide = "hide"
	EmptyRowsMark = "mark"
)

// PagerConfig is the list configuration surface. The styling fields and the
// callbacks are carried for the list widget and not interpreted here.
type PagerConfig struct {
	PageSize      int    `json:"pageSize" yaml:"pageSize"`
	Page          int    `json:"page" yaml:"page"`
	SelectStyle   string `json:"selectStyle,omitempty" yaml:"selectStyle,omitempty"`
	HoverStyle    string `json:"hoverStyle,omitempty" yaml:"hoverStyle,omitempty"`
	EmptyRows     string `json:"emptyRows,omitempty" yaml:"emptyRows,omitempty"`
	EmptyRowStyle string `json:"emptyRowStyle,omitempty" yaml:"emptyRowStyle,omitempty"`
	ShowPager     *bool  `json:"pager,omitempty" yaml:"pager,omitempty"`

	Click  func(index int, row any)    `json:"-" yaml:"-"`
	OnPage func(PageState)             `json:"-" yaml:"-"`
	OnRows func(visible, size int)     `json:"-" yaml:"-"`
	Layout func(controls Controls) any `json:"-" yaml:"-"`
}

// DefaultPagerConfig mirrors the list widget defaults.
func DefaultPagerConfig() PagerConfig {
	show := true
	return PagerConfig{
		PageSize:      20,
		Page:          1,
		EmptyRows:     EmptyRowsHide,
		EmptyRowStyle: "nub-list-empty-row",
		ShowPager:     &show,
	}
}

func (c PagerConfig) withDefaults() PagerConfig {
	def := DefaultPagerConfig()
	if c.PageSize < 1 {
		c.PageSize = def.PageSize
	}
	if c.Page < 1 {
		c.Page = def.Page
	}
	if c.EmptyRows == "" {
		c.EmptyRows = def.EmptyRows
	}
	if c.EmptyRowStyle == "" {
		c.EmptyRowStyle = def.EmptyRowStyle
	}
	if c.ShowPager == nil {
		c.ShowPager = def.ShowPager
	}
	return c
}

// LoadPagerConfig reads a YAML pager configuration, applying defaults for
// absent fields.
func LoadPagerConfig(r io.Reader) (PagerConfig, error) {
	c := DefaultPagerConfig()
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && err != io.EOF {
		return PagerConfig{}, err
	}
	return c.withDefaults(), nil
}
