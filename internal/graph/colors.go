package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ClusterStyle holds the DOT attributes applied to a contract cluster.
type ClusterStyle struct {
	BGColor   string `yaml:"bgcolor"`
	Color     string `yaml:"color"`
	FontColor string `yaml:"fontcolor"`
	Style     string `yaml:"style"`
}

// ColorScheme maps resolver facts (visibility, mutability, call kind)
// to visual styling. It is opaque to the resolution logic itself.
type ColorScheme struct {
	Visibility struct {
		Public   string `yaml:"public"`
		External string `yaml:"external"`
		Private  string `yaml:"private"`
		Internal string `yaml:"internal"`
	} `yaml:"visibility"`

	Mutability struct {
		Pure    string `yaml:"pure"`
		View    string `yaml:"view"`
		Payable string `yaml:"payable"`
	} `yaml:"mutability"`

	Call struct {
		Regular  string `yaml:"regular"`
		External string `yaml:"external"`
		Error    string `yaml:"error"`
		Modifier string `yaml:"modifier"`
		This     string `yaml:"this"`
		Super    string `yaml:"super"`
	} `yaml:"call"`

	Contract struct {
		Defined   ClusterStyle `yaml:"defined"`
		Undefined ClusterStyle `yaml:"undefined"`
	} `yaml:"contract"`
}

// DefaultColorScheme returns the built-in styling table.
func DefaultColorScheme() *ColorScheme {
	cs := &ColorScheme{}
	cs.Visibility.Public = "green"
	cs.Visibility.External = "lightskyblue"
	cs.Visibility.Private = "indianred1"
	cs.Visibility.Internal = "white"
	cs.Mutability.Pure = "palegreen"
	cs.Mutability.View = "khaki"
	cs.Mutability.Payable = "orange"
	cs.Call.Regular = "green4"
	cs.Call.External = "orange"
	cs.Call.Error = "red"
	cs.Call.Modifier = "gray"
	cs.Call.This = "green4"
	cs.Call.Super = "purple"
	cs.Contract.Defined = ClusterStyle{BGColor: "lightgray", Color: "lightgray", FontColor: "black", Style: "filled,rounded"}
	cs.Contract.Undefined = ClusterStyle{Color: "gray", FontColor: "gray", Style: "rounded,dashed"}
	return cs
}

// LoadColorScheme reads a YAML color scheme from path, layered over the
// defaults so partial files only override what they mention.
func LoadColorScheme(path string) (*ColorScheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read color scheme: %w", err)
	}
	cs := DefaultColorScheme()
	if err := yaml.Unmarshal(data, cs); err != nil {
		return nil, fmt.Errorf("failed to parse color scheme: %w", err)
	}
	return cs, nil
}

// NodeAttrs derives DOT node attributes from a declaration's visibility
// and state mutability.
func (cs *ColorScheme) NodeAttrs(visibility, mutability string) map[string]string {
	attrs := map[string]string{"style": "filled"}

	switch visibility {
	case "public", "default", "":
		attrs["fillcolor"] = cs.Visibility.Public
	case "external":
		attrs["fillcolor"] = cs.Visibility.External
	case "private":
		attrs["fillcolor"] = cs.Visibility.Private
	case "internal":
		attrs["fillcolor"] = cs.Visibility.Internal
	}

	switch mutability {
	case "pure":
		attrs["color"] = cs.Mutability.Pure
	case "view":
		attrs["color"] = cs.Mutability.View
	case "payable":
		attrs["color"] = cs.Mutability.Payable
	}

	return attrs
}

// ModifierNodeAttrs styles modifier declaration nodes.
func (cs *ColorScheme) ModifierNodeAttrs() map[string]string {
	return map[string]string{"shape": "invhouse", "style": "filled", "fillcolor": "lemonchiffon"}
}

// EventNodeAttrs styles nodes targeted as events or custom errors.
func (cs *ColorScheme) EventNodeAttrs() map[string]string {
	return map[string]string{"shape": "doubleoctagon"}
}

// EdgeAttrs derives DOT edge attributes from the call classification.
func (cs *ColorScheme) EdgeAttrs(kind EdgeKind) map[string]string {
	switch kind {
	case EdgeRegular:
		return map[string]string{"color": cs.Call.Regular}
	case EdgeExternal:
		return map[string]string{"color": cs.Call.External}
	case EdgeError:
		return map[string]string{"color": cs.Call.Error, "style": "dashed"}
	case EdgeModifier:
		return map[string]string{"color": cs.Call.Modifier, "style": "dotted"}
	case EdgeThis:
		return map[string]string{"color": cs.Call.This, "style": "dashed"}
	case EdgeSuper:
		return map[string]string{"color": cs.Call.Super}
	default:
		return nil
	}
}

// ClusterAttrs derives DOT cluster attributes for a defined or external
// contract.
func (cs *ColorScheme) ClusterAttrs(defined bool) map[string]string {
	style := cs.Contract.Undefined
	if defined {
		style = cs.Contract.Defined
	}
	attrs := make(map[string]string)
	if style.BGColor != "" {
		attrs["bgcolor"] = style.BGColor
	}
	if style.Color != "" {
		attrs["color"] = style.Color
	}
	if style.FontColor != "" {
		attrs["fontcolor"] = style.FontColor
	}
	if style.Style != "" {
		attrs["style"] = style.Style
	}
	return attrs
}
