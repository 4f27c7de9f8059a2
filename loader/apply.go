package loader

import (
	"fmt"

	controls "github.com/goliatone/go-controls"
)

// Apply replays doc against stack: every section in order, then the
// injections. It stops at the first error; controls declared before it stay.
func Apply(stack *controls.Stack, doc Document) error {
	if stack == nil {
		return fmt.Errorf("loader: stack is nil")
	}
	for _, section := range doc.Sections {
		if err := stack.StartSection(section.ID, controls.Args(section.Args)); err != nil {
			return fmt.Errorf("loader: %s: %w", doc.label(), err)
		}
		if err := applyEntries(stack, section.Controls); err != nil {
			return fmt.Errorf("loader: %s section %q: %w", doc.label(), section.ID, err)
		}
		if err := stack.EndSection(); err != nil {
			return fmt.Errorf("loader: %s: %w", doc.label(), err)
		}
	}
	for i, injection := range doc.Injections {
		if err := applyInjection(stack, injection); err != nil {
			return fmt.Errorf("loader: %s injections[%d]: %w", doc.label(), i, err)
		}
	}
	return nil
}

func (d Document) label() string {
	if d.Source != "" {
		return d.Source
	}
	return d.Name
}

func applyInjection(stack *controls.Stack, injection Injection) error {
	pos := controls.Position(injection.Position)
	if err := stack.StartInjection(pos); err != nil {
		return err
	}
	if err := applyEntries(stack, injection.Controls); err != nil {
		_ = stack.EndInjection()
		return err
	}
	return stack.EndInjection()
}

func applyEntries(stack *controls.Stack, entries []Entry) error {
	for _, entry := range entries {
		if err := applyEntry(stack, entry); err != nil {
			return err
		}
	}
	return nil
}

func applyEntry(stack *controls.Stack, entry Entry) error {
	var opts []controls.AddOption
	if entry.Overwrite {
		opts = append(opts, controls.Overwrite())
	}
	args := controls.Args(entry.Args)
	switch {
	case entry.Tabs != nil:
		return applyTabs(stack, *entry.Tabs)
	case entry.Popover != nil:
		if err := stack.StartPopover(); err != nil {
			return err
		}
		if err := applyEntries(stack, entry.Popover); err != nil {
			return err
		}
		return stack.EndPopover()
	case entry.Group != "":
		if entry.ID != "" {
			args = withName(args, entry.ID)
		}
		return stack.AddGroupControl(entry.Group, args, opts...)
	case entry.Responsive:
		return stack.AddResponsiveControl(entry.ID, args, opts...)
	default:
		return stack.AddControl(entry.ID, args, opts...)
	}
}

func applyTabs(stack *controls.Stack, tabs Tabs) error {
	if err := stack.StartTabs(tabs.ID, controls.Args(tabs.Args)); err != nil {
		return err
	}
	for _, tab := range tabs.Tabs {
		if err := stack.StartTab(tab.ID, controls.Args(tab.Args)); err != nil {
			return err
		}
		if err := applyEntries(stack, tab.Controls); err != nil {
			return err
		}
		if err := stack.EndTab(); err != nil {
			return err
		}
	}
	return stack.EndTabs()
}

func withName(args controls.Args, name string) controls.Args {
	out := controls.Args{}
	for key, value := range args {
		out[key] = value
	}
	if _, ok := out["name"]; !ok {
		out["name"] = name
	}
	return out
}

// EntityType adapts doc to controls.EntityType so a Manager can build it.
func EntityType(doc Document) controls.EntityType {
	return controls.EntityTypeFunc(doc.Name, func(stack *controls.Stack) error {
		return Apply(stack, doc)
	})
}
