package model

import (
	"path/filepath"
	"strings"
)

// SearchJob is one crawl run: a keyword searched across an ordered list of
// locations.
type SearchJob struct {
	Keyword   string
	Locations []string
}

// OutputPath is the table a job writes to, named after the keyword.
func (j SearchJob) OutputPath() string {
	return j.Keyword + "_results.csv"
}

// EnhancedPath derives the Enhancer's output path from its input path by
// suffixing the base name.
func EnhancedPath(input string) string {
	ext := filepath.Ext(input)
	if ext == "" {
		return input + "_enhanced.csv"
	}
	return strings.TrimSuffix(input, ext) + "_enhanced" + ext
}
