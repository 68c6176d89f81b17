// Package yamlutil provides YAML helpers for exit config files.
package yamlutil

import (
	"regexp"
	"strings"
)

// docSeparator matches a line holding only "---" and optional whitespace.
var docSeparator = regexp.MustCompile(`(?m)^---\s*$`)

// SplitDocuments splits multi-document YAML into its non-empty documents,
// without the separators.
func SplitDocuments(data []byte) [][]byte {
	var docs [][]byte

	for _, part := range docSeparator.Split(string(data), -1) {
		if strings.TrimSpace(part) != "" {
			docs = append(docs, []byte(part))
		}
	}

	return docs
}
