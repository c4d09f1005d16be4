// SPDX-License-Identifier: Apache-2.0

package scanners

import (
	"path"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/tabledep/tabledep/internal/scan"
)

var yamlCommentRe = regexp.MustCompile(`^\s*#`)

// Config fires on the target table name appearing in YAML keys or
// values. All config evidence is LOW: configuration mentions a table by
// name without saying anything structural about it.
type Config struct{}

func NewConfig() *Config { return &Config{} }

func (s *Config) Name() string { return "config" }

func (s *Config) Categories() []scan.FileCategory {
	return []scan.FileCategory{scan.CategoryYAML}
}

func (s *Config) ScanFile(filePath string, lines []string, _ scan.FileCategory, ctx *scan.Context) []scan.Record {
	// database.yml names databases, not table references.
	if path.Base(filePath) == "database.yml" {
		return nil
	}

	tableRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(ctx.Target) + `\b`)

	// When the document parses as YAML, restrict matches to lines whose
	// target mention is an actual key or scalar value; this discards
	// matches buried in comments or unrelated block scalars. Documents
	// that fail to parse (ERB-templated configs) fall back to a plain
	// line scan.
	tokens, parsed := yamlTokens([]byte(strings.Join(lines, "\n")))

	var records []scan.Record
	for i, line := range lines {
		if yamlCommentRe.MatchString(line) {
			continue
		}
		if !tableRe.MatchString(line) {
			continue
		}
		if parsed && !tokens[ctx.Target] {
			continue
		}
		records = append(records, scan.Record{
			FilePath:   filePath,
			LineNumber: i + 1,
			TableName:  ctx.Target,
			ColumnName: "",
			Kind:       scan.KindConfigTableRef,
			Snippet:    scan.Snippet(line),
			Confidence: scan.ConfidenceLow,
		})
	}
	return records
}

// yamlTokens unmarshals a YAML document and collects every mapping key
// and scalar string word. The boolean reports whether the document
// parsed at all.
func yamlTokens(data []byte) (map[string]bool, bool) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	tokens := make(map[string]bool)
	collectTokens(doc, tokens)
	return tokens, true
}

func collectTokens(node any, tokens map[string]bool) {
	switch v := node.(type) {
	case map[string]any:
		for key, val := range v {
			for _, w := range strings.FieldsFunc(key, isWordSep) {
				tokens[w] = true
			}
			collectTokens(val, tokens)
		}
	case map[any]any:
		for key, val := range v {
			if k, ok := key.(string); ok {
				for _, w := range strings.FieldsFunc(k, isWordSep) {
					tokens[w] = true
				}
			}
			collectTokens(val, tokens)
		}
	case []any:
		for _, item := range v {
			collectTokens(item, tokens)
		}
	case string:
		for _, w := range strings.FieldsFunc(v, isWordSep) {
			tokens[w] = true
		}
	}
}

func isWordSep(r rune) bool {
	return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
}
