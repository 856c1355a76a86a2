// Package sanitizer normalizes free-text listing fields before validation and
// storage.
package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reControlChars = regexp.MustCompile(`[\x00-\x1f\x7f]+`)
	reMultiSpace   = regexp.MustCompile(`\s+`)
	reKeepLetters  = regexp.MustCompile(`[^\p{L}]+`)
	reMultiUnders  = regexp.MustCompile(`_+`)
)

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}

func stripControl(s string) string {
	return reControlChars.ReplaceAllString(s, " ")
}

func collapseSpaces(s string) string {
	return reMultiSpace.ReplaceAllString(s, " ")
}

func collapseUnderscores(s string) string {
	s = reMultiUnders.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// CleanText tidies a human-readable field (name, address): drops control
// characters and collapses runs of whitespace while keeping the original case.
func CleanText(input string) string {
	p := Pipeline{
		stripControl,
		collapseSpaces,
		trimSpace,
	}
	return p.Apply(input)
}

// NormalizeCity folds a city name into a lowercase underscore-joined token so
// browse filters match regardless of spelling variance.
func NormalizeCity(input string) string {
	p := Pipeline{
		trimSpace,
		strings.ToLower,
		func(s string) string { return reKeepLetters.ReplaceAllString(s, "_") },
		collapseUnderscores,
	}
	return p.Apply(input)
}
