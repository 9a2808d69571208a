// Package extractor pulls catalog records out of the products array literal
// declared in front-end source files.
package extractor

import (
	"fmt"
	"regexp"
)

// DefaultVariable is the array declaration the storefront ships with.
const DefaultVariable = "products"

// Block is the text strictly between the array's outer brackets.
type Block struct {
	Start int // offset of the opening '['
	End   int // offset of the matching ']'
	Text  string
}

// Locate finds `const <variable> = [` and returns the bracket-balanced body.
// Declarations and brackets inside string literals and comments are ignored.
func Locate(text, variable string) (Block, error) {
	if variable == "" {
		variable = DefaultVariable
	}
	marker := regexp.MustCompile(`\b(?:const|let|var)\s+` + regexp.QuoteMeta(variable) + `\s*=\s*\[`)
	loc := firstInCode(text, marker.FindAllStringIndex(text, -1))
	if loc == nil {
		return Block{}, fmt.Errorf("%w: no %q declaration", ErrArrayNotFound, variable)
	}

	start := loc[1] - 1
	depth := 0
	for i := start; i < len(text); {
		if next, ok := skipLiteral(text, i); ok {
			i = next
			continue
		}
		switch text[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return Block{Start: start, End: i, Text: text[start+1 : i]}, nil
			}
		}
		i++
	}
	return Block{}, fmt.Errorf("%w: closing bracket missing for %q", ErrArrayNotFound, variable)
}

// firstInCode returns the first match that starts outside any string
// literal or comment.
func firstInCode(text string, matches [][]int) []int {
	i := 0
	for _, m := range matches {
		for i < m[0] {
			if next, ok := skipLiteral(text, i); ok {
				i = next
				continue
			}
			i++
		}
		if i == m[0] {
			return m
		}
	}
	return nil
}

// skipLiteral steps over a string literal or comment starting at i.
// Unterminated literals run to the end of src.
func skipLiteral(src string, i int) (int, bool) {
	switch c := src[i]; c {
	case '"', '\'', '`':
		for j := i + 1; j < len(src); j++ {
			switch src[j] {
			case '\\':
				j++
			case c:
				return j + 1, true
			}
		}
		return len(src), true
	case '/':
		if i+1 >= len(src) {
			return i, false
		}
		switch src[i+1] {
		case '/':
			for j := i + 2; j < len(src); j++ {
				if src[j] == '\n' {
					return j + 1, true
				}
			}
			return len(src), true
		case '*':
			for j := i + 2; j+1 < len(src); j++ {
				if src[j] == '*' && src[j+1] == '/' {
					return j + 2, true
				}
			}
			return len(src), true
		}
	}
	return i, false
}
