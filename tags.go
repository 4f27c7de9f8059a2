package controls

import (
	"fmt"
	"strings"
)

// TagEngine resolves the tag text stored for a dynamic control into a value.
// dynamic holds the merged dynamic settings of the control (type settings
// beneath control settings).
type TagEngine interface {
	ParseTags(text string, dynamic map[string]any) (any, error)
}

// TagEngineFunc adapts a function into a TagEngine.
type TagEngineFunc func(text string, dynamic map[string]any) (any, error)

// ParseTags delegates to the underlying function.
func (fn TagEngineFunc) ParseTags(text string, dynamic map[string]any) (any, error) {
	return fn(text, dynamic)
}

// Tag delimiters recognised by the expression tag engine.
const (
	TagOpen  = "{{"
	TagClose = "}}"
)

type expressionTagEngine struct {
	evaluator Evaluator
	logger    EvaluatorLogger
}

// NewExpressionTagEngine returns a TagEngine that evaluates every {{ expr }}
// segment with evaluator. The dynamic settings are bound as "dynamic" and
// "args". Text that is a single tag yields the raw result; mixed text is
// interpolated into a string.
func NewExpressionTagEngine(evaluator Evaluator, logger EvaluatorLogger) TagEngine {
	return expressionTagEngine{evaluator: evaluator, logger: logger}
}

func (e expressionTagEngine) ParseTags(text string, dynamic map[string]any) (any, error) {
	segments, err := splitTags(text)
	if err != nil {
		return nil, err
	}
	ctx := RuleContext{
		Values:  map[string]any{"dynamic": dynamic},
		Args:    dynamic,
		Purpose: PurposeTag,
	}
	if len(segments) == 1 && segments[0].tag {
		return evaluate(e.evaluator, e.logger, ctx, segments[0].text)
	}
	var b strings.Builder
	for _, segment := range segments {
		if !segment.tag {
			b.WriteString(segment.text)
			continue
		}
		value, err := evaluate(e.evaluator, e.logger, ctx, segment.text)
		if err != nil {
			return nil, err
		}
		if value != nil {
			fmt.Fprint(&b, value)
		}
	}
	return b.String(), nil
}

type tagSegment struct {
	text string
	tag  bool
}

func splitTags(text string) ([]tagSegment, error) {
	var segments []tagSegment
	rest := text
	for rest != "" {
		start := strings.Index(rest, TagOpen)
		if start < 0 {
			segments = append(segments, tagSegment{text: rest})
			break
		}
		if start > 0 {
			segments = append(segments, tagSegment{text: rest[:start]})
		}
		rest = rest[start+len(TagOpen):]
		end := strings.Index(rest, TagClose)
		if end < 0 {
			return nil, fmt.Errorf("controls: unterminated tag in %q", text)
		}
		expression := strings.TrimSpace(rest[:end])
		if expression == "" {
			return nil, fmt.Errorf("controls: empty tag in %q", text)
		}
		segments = append(segments, tagSegment{text: expression, tag: true})
		rest = rest[end+len(TagClose):]
	}
	return segments, nil
}
