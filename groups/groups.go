// Package groups holds the built-in group controls. A group expands into a
// fixed set of primitive controls whose keys share the "name" arg as prefix.
package groups

import (
	"fmt"
	"strings"

	controls "github.com/goliatone/go-controls"
)

// Built-in group names.
const (
	GroupBorder     = "border"
	GroupTypography = "typography"
)

// Wrapper is the selector placeholder replaced by the element wrapper class.
const Wrapper = "{{WRAPPER}}"

// Default returns a registry with every built-in group registered.
func Default() *controls.Groups {
	reg := controls.NewGroupRegistry()
	if err := Register(reg); err != nil {
		panic(err)
	}
	return reg
}

// Register adds the built-in groups to registry.
func Register(registry *controls.Groups) error {
	if registry == nil {
		return fmt.Errorf("groups: registry is nil")
	}
	if err := registry.Register(GroupBorder, Border()); err != nil {
		return err
	}
	return registry.Register(GroupTypography, Typography())
}

// groupArgs are the args every built-in group understands.
type groupArgs struct {
	prefix   string
	label    string
	selector string
	extra    controls.Args
}

func parseArgs(group string, args controls.Args) (groupArgs, error) {
	prefix, _ := args["name"].(string)
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return groupArgs{}, fmt.Errorf("groups: %s requires a name", group)
	}
	out := groupArgs{prefix: prefix, extra: controls.Args{}}
	out.label, _ = args["label"].(string)
	selector, _ := args["selector"].(string)
	out.selector = strings.TrimSpace(selector)
	if out.selector == "" {
		out.selector = Wrapper
	}
	// Condition and section placement flow through to every child.
	for _, key := range []string{"condition", "conditions", "section", "tab"} {
		if value, ok := args[key]; ok {
			out.extra[key] = value
		}
	}
	return out, nil
}

func (g groupArgs) key(field string) string {
	return g.prefix + "_" + field
}

func (g groupArgs) with(args controls.Args) controls.Args {
	out := controls.Args{}
	for key, value := range g.extra {
		out[key] = value
	}
	for key, value := range args {
		if key == "condition" {
			if base, ok := out[key].(map[string]any); ok {
				merged := map[string]any{}
				for k, v := range base {
					merged[k] = v
				}
				if own, ok := value.(map[string]any); ok {
					for k, v := range own {
						merged[k] = v
					}
				}
				out[key] = merged
				continue
			}
		}
		out[key] = value
	}
	return out
}

func (g groupArgs) selectors(rule string) map[string]any {
	return map[string]any{g.selector: rule}
}

// Border expands into a border style select and, shown once a style is
// picked, a responsive width and a color.
func Border() controls.GroupControl {
	return controls.GroupFunc(func(stack *controls.Stack, args controls.Args, opts ...controls.AddOption) error {
		g, err := parseArgs(GroupBorder, args)
		if err != nil {
			return err
		}
		styled := map[string]any{g.key("border") + "!": []any{"", "none"}}

		if err := stack.AddControl(g.key("border"), g.with(controls.Args{
			"type":    controls.TypeSelect,
			"label":   labelOr(g.label, "Border Type"),
			"default": "",
			"options": map[string]any{
				"":       "Default",
				"none":   "None",
				"solid":  "Solid",
				"double": "Double",
				"dotted": "Dotted",
				"dashed": "Dashed",
				"groove": "Groove",
			},
			"selectors": g.selectors("border-style: {{VALUE}};"),
		}), opts...); err != nil {
			return err
		}
		if err := stack.AddResponsiveControl(g.key("width"), g.with(controls.Args{
			"type":      controls.TypeDimensions,
			"label":     "Width",
			"condition": styled,
			"selectors": g.selectors("border-width: {{TOP}}{{UNIT}} {{RIGHT}}{{UNIT}} {{BOTTOM}}{{UNIT}} {{LEFT}}{{UNIT}};"),
		}), opts...); err != nil {
			return err
		}
		return stack.AddControl(g.key("color"), g.with(controls.Args{
			"type":      controls.TypeColor,
			"label":     "Color",
			"default":   "",
			"condition": styled,
			"selectors": g.selectors("border-color: {{VALUE}};"),
		}), opts...)
	})
}

// Typography expands into a popover toggle followed by a popover holding the
// font family, size, weight, transform and line height.
func Typography() controls.GroupControl {
	return controls.GroupFunc(func(stack *controls.Stack, args controls.Args, opts ...controls.AddOption) error {
		g, err := parseArgs(GroupTypography, args)
		if err != nil {
			return err
		}
		toggle := g.key("typography")
		custom := map[string]any{toggle: "custom"}

		if err := stack.AddControl(toggle, g.with(controls.Args{
			"type":         controls.TypePopoverToggle,
			"label":        labelOr(g.label, "Typography"),
			"return_value": "custom",
		}), opts...); err != nil {
			return err
		}
		if err := stack.StartPopover(); err != nil {
			return err
		}
		steps := []func() error{
			func() error {
				return stack.AddControl(g.key("font_family"), g.with(controls.Args{
					"type":      controls.TypeText,
					"label":     "Family",
					"condition": custom,
					"selectors": g.selectors("font-family: \"{{VALUE}}\";"),
				}), opts...)
			},
			func() error {
				return stack.AddResponsiveControl(g.key("font_size"), g.with(controls.Args{
					"type":      controls.TypeSlider,
					"label":     "Size",
					"condition": custom,
					"selectors": g.selectors("font-size: {{SIZE}}{{UNIT}};"),
				}), opts...)
			},
			func() error {
				return stack.AddControl(g.key("font_weight"), g.with(controls.Args{
					"type":    controls.TypeSelect,
					"label":   "Weight",
					"default": "",
					"options": map[string]any{
						"": "Default", "300": "300", "400": "400", "600": "600", "700": "700",
						"normal": "Normal", "bold": "Bold",
					},
					"condition": custom,
					"selectors": g.selectors("font-weight: {{VALUE}};"),
				}), opts...)
			},
			func() error {
				return stack.AddControl(g.key("text_transform"), g.with(controls.Args{
					"type":    controls.TypeSelect,
					"label":   "Transform",
					"default": "",
					"options": map[string]any{
						"": "Default", "uppercase": "Uppercase", "lowercase": "Lowercase",
						"capitalize": "Capitalize", "none": "Normal",
					},
					"condition": custom,
					"selectors": g.selectors("text-transform: {{VALUE}};"),
				}), opts...)
			},
			func() error {
				return stack.AddResponsiveControl(g.key("line_height"), g.with(controls.Args{
					"type":      controls.TypeSlider,
					"label":     "Line-Height",
					"condition": custom,
					"selectors": g.selectors("line-height: {{SIZE}}{{UNIT}};"),
				}), opts...)
			},
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return stack.EndPopover()
	})
}

func labelOr(label, fallback string) string {
	if strings.TrimSpace(label) != "" {
		return label
	}
	return fallback
}
