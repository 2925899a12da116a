// Package mergetags implements the {{token}} substitution syntax used by
// flat templates and by section field content. Tokens are replaced with
// values from a data context, and single-level {{#if name}}...{{/if}}
// blocks toggle whole fragments on the truthiness of a context value.
package mergetags

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
	ifPrefix   = "#if"
	endIfTag   = "/if"
)

// ParseError reports a malformed conditional block with enough context to
// locate the offending tag in the source template.
type ParseError struct {
	Offset  int
	Tag     string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("template parse error at offset %d near %q: %s", e.Offset, e.Tag, e.Message)
}

type nodeKind int

const (
	nodeLiteral nodeKind = iota
	nodeToken
	nodeCondition
)

type node struct {
	kind nodeKind
	text string // literal text or token/condition identifier
	body []node // condition body, tokens and literals only
}

// Render substitutes tokens and evaluates conditional blocks against ctx.
// Unknown tokens render as an empty string. Malformed or nested conditional
// syntax is rejected with a *ParseError; token substitution itself never
// fails.
func Render(template string, ctx map[string]interface{}) (string, error) {
	nodes, err := parse(template)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	renderNodes(&sb, nodes, ctx)
	return sb.String(), nil
}

// Validate parses the template and reports conditional-syntax problems
// without rendering anything.
func Validate(template string) error {
	_, err := parse(template)
	return err
}

// ContainsTags reports whether the string holds any tag syntax at all,
// letting callers skip the parse for plain content.
func ContainsTags(s string) bool {
	return strings.Contains(s, openDelim)
}

func renderNodes(sb *strings.Builder, nodes []node, ctx map[string]interface{}) {
	for _, n := range nodes {
		switch n.kind {
		case nodeLiteral:
			sb.WriteString(n.text)
		case nodeToken:
			sb.WriteString(Stringify(ctx[n.text]))
		case nodeCondition:
			if Truthy(ctx[n.text]) {
				renderNodes(sb, n.body, ctx)
			}
		}
	}
}

func parse(template string) ([]node, error) {
	nodes, _, err := parseUntil(template, 0, false)
	return nodes, err
}

// parseUntil scans template starting at base offset (for diagnostics).
// When insideIf is true it stops at the first {{/if}} and returns -1;
// at top level a stray {{/if}} is reported via the second return value.
func parseUntil(template string, base int, insideIf bool) ([]node, int, error) {
	var nodes []node
	for len(template) > 0 {
		start := strings.Index(template, openDelim)
		if start == -1 {
			nodes = append(nodes, node{kind: nodeLiteral, text: template})
			break
		}
		if start > 0 {
			nodes = append(nodes, node{kind: nodeLiteral, text: template[:start]})
		}

		end := strings.Index(template[start:], closeDelim)
		if end == -1 {
			// An unterminated delimiter is not a tag, keep it as literal text.
			nodes = append(nodes, node{kind: nodeLiteral, text: template[start:]})
			break
		}
		end += start
		tag := strings.TrimSpace(template[start+len(openDelim) : end])
		tagOffset := base + start
		rest := template[end+len(closeDelim):]
		restOffset := base + end + len(closeDelim)

		switch {
		case tag == endIfTag:
			if insideIf {
				return nodes, restOffset, nil
			}
			return nil, -1, &ParseError{Offset: tagOffset, Tag: "{{/if}}", Message: "closing tag without a matching {{#if}}"}

		case tag == ifPrefix || strings.HasPrefix(tag, ifPrefix+" "):
			ident := strings.TrimSpace(strings.TrimPrefix(tag, ifPrefix))
			if ident == "" {
				return nil, -1, &ParseError{Offset: tagOffset, Tag: "{{" + tag + "}}", Message: "conditional is missing an identifier"}
			}
			if insideIf {
				return nil, -1, &ParseError{Offset: tagOffset, Tag: "{{" + tag + "}}", Message: "nested conditionals are not supported"}
			}
			body, resume, err := parseUntil(rest, restOffset, true)
			if err != nil {
				return nil, -1, err
			}
			if resume == -1 {
				return nil, -1, &ParseError{Offset: tagOffset, Tag: "{{" + tag + "}}", Message: "conditional is never closed with {{/if}}"}
			}
			nodes = append(nodes, node{kind: nodeCondition, text: ident, body: body})
			template = rest[resume-restOffset:]
			base = resume
			continue

		case tag == "":
			// "{{}}" carries no identifier, emit it untouched.
			nodes = append(nodes, node{kind: nodeLiteral, text: template[start : end+len(closeDelim)]})

		default:
			nodes = append(nodes, node{kind: nodeToken, text: tag})
		}

		template = rest
		base = restOffset
	}

	return nodes, -1, nil
}

// Truthy implements the engine's truth table: nil, empty string, "0",
// false and numeric zero are false, everything else is true.
func Truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && v != "0"
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return Stringify(value) != "" && Stringify(value) != "0"
	}
}

// Stringify converts a context value to its rendered text form.
func Stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
