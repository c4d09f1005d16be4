// SPDX-License-Identifier: Apache-2.0

// Package inflect provides the English inflection rules used to derive
// foreign-key column names from Rails-style snake_case table names.
//
// It is intentionally not a full inflector: it covers the irregulars and
// suffix patterns that actually occur in table naming, and falls back to
// the generic rule for everything else instead of erroring.
package inflect

import (
	"strings"
	"unicode"
)

// pluralToSingular maps irregular plural nouns to their singular form.
var pluralToSingular = map[string]string{
	"people":      "person",
	"men":         "man",
	"women":       "woman",
	"children":    "child",
	"teeth":       "tooth",
	"feet":        "foot",
	"geese":       "goose",
	"mice":        "mouse",
	"oxen":        "ox",
	"data":        "datum",
	"criteria":    "criterion",
	"media":       "medium",
	"alumni":      "alumnus",
	"cacti":       "cactus",
	"fungi":       "fungus",
	"nuclei":      "nucleus",
	"radii":       "radius",
	"stimuli":     "stimulus",
	"syllabi":     "syllabus",
	"analyses":    "analysis",
	"bases":       "basis",
	"crises":      "crisis",
	"diagnoses":   "diagnosis",
	"hypotheses":  "hypothesis",
	"parentheses": "parenthesis",
	"syntheses":   "synthesis",
	"theses":      "thesis",
}

var singularToPlural = func() map[string]string {
	m := make(map[string]string, len(pluralToSingular))
	for p, s := range pluralToSingular {
		m[s] = p
	}
	return m
}()

// Singularize converts a plural word (typically a table name) to its
// singular form. Compound snake_case words singularize only the final
// segment. Words that are already singular are returned unchanged.
func Singularize(word string) string {
	if word == "" {
		return word
	}
	lower := strings.ToLower(word)

	if i := strings.LastIndex(lower, "_"); i >= 0 {
		return lower[:i+1] + Singularize(lower[i+1:])
	}

	if s, ok := pluralToSingular[lower]; ok {
		return s
	}

	switch {
	// companies -> company, categories -> category
	case strings.HasSuffix(lower, "ies") && len(lower) > 4:
		return lower[:len(lower)-3] + "y"
	// knives -> knife, wives -> wife
	case strings.HasSuffix(lower, "ves") && len(lower) > 4:
		return lower[:len(lower)-3] + "fe"
	// addresses -> address, boxes -> box, churches -> church, dishes -> dish
	case hasAnySuffix(lower, "sses", "xes", "zes", "ches", "shes"):
		return lower[:len(lower)-2]
	// buses -> bus, statuses -> status
	case strings.HasSuffix(lower, "ses") && len(lower) > 4:
		return lower[:len(lower)-2]
	// heroes -> hero, potatoes -> potato
	case strings.HasSuffix(lower, "oes") && len(lower) > 4:
		return lower[:len(lower)-2]
	// generic: strip exactly one trailing s
	case strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss"):
		return lower[:len(lower)-1]
	}
	return lower
}

// Pluralize converts a singular word (typically a model name) to its
// plural form, applying the inverse of the Singularize rule set with the
// same precedence: irregulars first, suffix classes next, generic append
// last. Compound snake_case words pluralize only the final segment.
func Pluralize(word string) string {
	if word == "" {
		return word
	}
	lower := strings.ToLower(word)

	if i := strings.LastIndex(lower, "_"); i >= 0 {
		return lower[:i+1] + Pluralize(lower[i+1:])
	}

	if p, ok := singularToPlural[lower]; ok {
		return p
	}

	switch {
	// already carries a plural marker
	case strings.HasSuffix(lower, "ies"):
		return lower
	// knife -> knives, wife -> wives
	case strings.HasSuffix(lower, "fe"):
		return lower[:len(lower)-2] + "ves"
	// company -> companies (consonant + y)
	case strings.HasSuffix(lower, "y") && len(lower) > 2 && !isVowel(lower[len(lower)-2]):
		return lower[:len(lower)-1] + "ies"
	// sibilant endings: bus -> buses, box -> boxes, church -> churches
	case hasAnySuffix(lower, "s", "x", "z", "ch", "sh"):
		return lower + "es"
	}
	return lower + "s"
}

// TableName converts a CamelCase model class name to its conventional
// snake_case plural table name: "PostCheckin" -> "post_checkins",
// "Person" -> "people".
func TableName(className string) string {
	return Pluralize(Underscore(className))
}

// Underscore converts a CamelCase identifier to snake_case.
func Underscore(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
