// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUndefinedVariable is the sentinel error wrapped by UndefinedVariableError.
	ErrUndefinedVariable = errors.New("undefined template variable")
	// ErrTemplateSyntax is the sentinel error wrapped by TemplateSyntaxError.
	ErrTemplateSyntax = errors.New("template syntax error")
)

type (
	// UndefinedVariableError is returned when a template references a variable
	// that is not present in the render context.
	UndefinedVariableError struct {
		Name string
	}

	// TemplateSyntaxError is returned when a template contains malformed
	// expression or control-tag syntax.
	TemplateSyntaxError struct {
		Offset  int
		Message string
	}

	// templateNode is one parsed element of a template: literal text, an
	// expression substitution, or a conditional block.
	templateNode interface {
		render(sb *strings.Builder, vars map[string]string) error
	}

	textNode string

	exprNode struct {
		expr   string
		offset int
	}

	condNode struct {
		expr      string
		offset    int
		then      []templateNode
		otherwise []templateNode
	}
)

// Error implements the error interface.
func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined template variable %q", e.Name)
}

// Unwrap returns ErrUndefinedVariable for errors.Is() compatibility.
func (e *UndefinedVariableError) Unwrap() error { return ErrUndefinedVariable }

// Error implements the error interface.
func (e *TemplateSyntaxError) Error() string {
	return fmt.Sprintf("template syntax error at offset %d: %s", e.Offset, e.Message)
}

// Unwrap returns ErrTemplateSyntax for errors.Is() compatibility.
func (e *TemplateSyntaxError) Unwrap() error { return ErrTemplateSyntax }

// RenderTemplate substitutes `{{ expr }}` expressions and evaluates
// `{% if expr %} … {% else %} … {% endif %}` blocks in src.
//
// Expressions support variable lookup, single-quoted and double-quoted string
// literals, suffix slicing (`VAR[1:]`), and the comparison operators
// `>`, `<`, `==`, and `!=`. All values are strings and comparisons are
// lexicographic, matching the behavior of the templating engine the packaging
// tool applies to recipes. Referencing a variable missing from vars is an
// error, not an empty substitution.
func RenderTemplate(src string, vars map[string]string) (string, error) {
	nodes, rest, err := parseNodes(src, 0, false)
	if err != nil {
		return "", err
	}
	if rest != len(src) {
		return "", &TemplateSyntaxError{Offset: rest, Message: "unexpected control tag"}
	}

	var sb strings.Builder
	for _, n := range nodes {
		if err := n.render(&sb, vars); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// parseNodes parses template nodes starting at offset pos. When inBlock is
// true, parsing stops at an {% else %} or {% endif %} tag and returns the
// offset of that tag; otherwise it consumes the whole input.
func parseNodes(src string, pos int, inBlock bool) ([]templateNode, int, error) {
	var nodes []templateNode

	for pos < len(src) {
		exprIdx := strings.Index(src[pos:], "{{")
		tagIdx := strings.Index(src[pos:], "{%")

		next := -1
		isTag := false
		switch {
		case exprIdx < 0 && tagIdx < 0:
			nodes = append(nodes, textNode(src[pos:]))
			return nodes, len(src), nil
		case tagIdx < 0 || (exprIdx >= 0 && exprIdx < tagIdx):
			next = pos + exprIdx
		default:
			next = pos + tagIdx
			isTag = true
		}

		if next > pos {
			nodes = append(nodes, textNode(src[pos:next]))
		}

		if !isTag {
			end := strings.Index(src[next:], "}}")
			if end < 0 {
				return nil, 0, &TemplateSyntaxError{Offset: next, Message: "unterminated {{ expression"}
			}
			nodes = append(nodes, exprNode{
				expr:   strings.TrimSpace(src[next+2 : next+end]),
				offset: next,
			})
			pos = next + end + 2
			continue
		}

		end := strings.Index(src[next:], "%}")
		if end < 0 {
			return nil, 0, &TemplateSyntaxError{Offset: next, Message: "unterminated {% tag"}
		}
		tag := strings.TrimSpace(src[next+2 : next+end])
		tagEnd := next + end + 2

		switch {
		case strings.HasPrefix(tag, "if "):
			node, newPos, err := parseCond(src, tag, next, tagEnd)
			if err != nil {
				return nil, 0, err
			}
			nodes = append(nodes, node)
			pos = newPos
		case tag == "else", tag == "endif":
			if !inBlock {
				return nil, 0, &TemplateSyntaxError{Offset: next, Message: fmt.Sprintf("{%% %s %%} outside of {%% if %%} block", tag)}
			}
			// Caller handles the tag; report its start offset.
			return nodes, next, nil
		default:
			return nil, 0, &TemplateSyntaxError{Offset: next, Message: fmt.Sprintf("unknown control tag %q", tag)}
		}
	}

	if inBlock {
		return nil, 0, &TemplateSyntaxError{Offset: len(src), Message: "missing {% endif %}"}
	}
	return nodes, len(src), nil
}

// parseCond parses the body of an {% if %} block, including an optional
// {% else %} branch, up to the matching {% endif %}.
func parseCond(src, tag string, tagStart, bodyStart int) (templateNode, int, error) {
	cond := condNode{
		expr:   strings.TrimSpace(strings.TrimPrefix(tag, "if ")),
		offset: tagStart,
	}

	then, tagPos, err := parseNodes(src, bodyStart, true)
	if err != nil {
		return nil, 0, err
	}
	cond.then = then

	tag, tagEnd, err := readTag(src, tagPos)
	if err != nil {
		return nil, 0, err
	}

	if tag == "else" {
		otherwise, elsePos, err := parseNodes(src, tagEnd, true)
		if err != nil {
			return nil, 0, err
		}
		cond.otherwise = otherwise

		tag, tagEnd, err = readTag(src, elsePos)
		if err != nil {
			return nil, 0, err
		}
	}

	if tag != "endif" {
		return nil, 0, &TemplateSyntaxError{Offset: tagPos, Message: "expected {% endif %}"}
	}
	return cond, tagEnd, nil
}

// readTag reads the {% … %} tag at pos and returns its trimmed content and
// the offset just past the closing %}.
func readTag(src string, pos int) (string, int, error) {
	if pos >= len(src) || !strings.HasPrefix(src[pos:], "{%") {
		return "", 0, &TemplateSyntaxError{Offset: pos, Message: "missing {% endif %}"}
	}
	end := strings.Index(src[pos:], "%}")
	if end < 0 {
		return "", 0, &TemplateSyntaxError{Offset: pos, Message: "unterminated {% tag"}
	}
	return strings.TrimSpace(src[pos+2 : pos+end]), pos + end + 2, nil
}

func (n textNode) render(sb *strings.Builder, _ map[string]string) error {
	sb.WriteString(string(n))
	return nil
}

func (n exprNode) render(sb *strings.Builder, vars map[string]string) error {
	val, err := evalExpr(n.expr, n.offset, vars)
	if err != nil {
		return err
	}
	sb.WriteString(val)
	return nil
}

func (n condNode) render(sb *strings.Builder, vars map[string]string) error {
	truthy, err := evalCondition(n.expr, n.offset, vars)
	if err != nil {
		return err
	}

	branch := n.then
	if !truthy {
		branch = n.otherwise
	}
	for _, child := range branch {
		if err := child.render(sb, vars); err != nil {
			return err
		}
	}
	return nil
}

// evalCondition evaluates a conditional expression to a boolean. A bare value
// expression is truthy when non-empty; comparisons compare lexicographically.
func evalCondition(expr string, offset int, vars map[string]string) (bool, error) {
	op, lhs, rhs := splitComparison(expr)
	if op == "" {
		val, err := evalExpr(expr, offset, vars)
		if err != nil {
			return false, err
		}
		return val != "", nil
	}

	left, err := evalExpr(lhs, offset, vars)
	if err != nil {
		return false, err
	}
	right, err := evalExpr(rhs, offset, vars)
	if err != nil {
		return false, err
	}

	switch op {
	case ">":
		return left > right, nil
	case "<":
		return left < right, nil
	case "==":
		return left == right, nil
	case "!=":
		return left != right, nil
	}
	return false, &TemplateSyntaxError{Offset: offset, Message: fmt.Sprintf("unsupported operator %q", op)}
}

// splitComparison splits expr on the first comparison operator outside of a
// string literal. Returns an empty operator when expr has none.
func splitComparison(expr string) (op, lhs, rhs string) {
	var quote byte
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '=', '!':
			if i+1 < len(expr) && expr[i+1] == '=' {
				return expr[i : i+2], strings.TrimSpace(expr[:i]), strings.TrimSpace(expr[i+2:])
			}
		case '>', '<':
			return string(c), strings.TrimSpace(expr[:i]), strings.TrimSpace(expr[i+1:])
		}
	}
	return "", "", ""
}

// evalExpr evaluates a value expression: a string literal, a variable
// reference, or a variable reference with a suffix slice (`VAR[1:]`).
func evalExpr(expr string, offset int, vars map[string]string) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", &TemplateSyntaxError{Offset: offset, Message: "empty expression"}
	}

	// String literal
	if len(expr) >= 2 && (expr[0] == '\'' || expr[0] == '"') {
		if expr[len(expr)-1] != expr[0] {
			return "", &TemplateSyntaxError{Offset: offset, Message: "unterminated string literal"}
		}
		return expr[1 : len(expr)-1], nil
	}

	// Optional suffix slice
	name := expr
	start := 0
	sliced := false
	if open := strings.IndexByte(expr, '['); open >= 0 {
		if !strings.HasSuffix(expr, ":]") {
			return "", &TemplateSyntaxError{Offset: offset, Message: fmt.Sprintf("unsupported slice syntax in %q (only [N:] is supported)", expr)}
		}
		name = expr[:open]
		idx := expr[open+1 : len(expr)-2]
		n := 0
		for _, c := range idx {
			if c < '0' || c > '9' {
				return "", &TemplateSyntaxError{Offset: offset, Message: fmt.Sprintf("non-numeric slice index in %q", expr)}
			}
			n = n*10 + int(c-'0')
		}
		start = n
		sliced = true
	}

	if !isIdentifier(name) {
		return "", &TemplateSyntaxError{Offset: offset, Message: fmt.Sprintf("invalid expression %q", expr)}
	}

	val, ok := vars[name]
	if !ok {
		return "", &UndefinedVariableError{Name: name}
	}

	if sliced {
		if start > len(val) {
			return "", nil
		}
		return val[start:], nil
	}
	return val, nil
}

// isIdentifier reports whether s is a valid template variable name.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
