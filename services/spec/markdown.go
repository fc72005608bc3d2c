// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package spec

import (
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/textsplitter"
)

var (
	markdownChunkSize    = 1000
	markdownChunkOverlap = markdownChunkSize / 10 // overlap is 10% of the chunk size

	markdownSeparators = []string{
		"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
		"\n\n", "\n", " ", "",
	}
)

// SplitMarkdown splits a Markdown API document into heading-aligned
// chunks sized for LLM context windows.
//
// Used when a document is uploaded as prose documentation rather than
// as a machine-readable OpenAPI spec: the chunks become the context
// passed to the test case generator.
func SplitMarkdown(content string) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(markdownChunkSize),
		textsplitter.WithChunkOverlap(markdownChunkOverlap),
		textsplitter.WithSeparators(markdownSeparators),
	)
	chunks, err := splitter.SplitText(content)
	if err != nil {
		return nil, fmt.Errorf("split markdown content: %w", err)
	}
	if len(chunks) == 0 {
		slog.Warn("No chunks produced after splitting markdown document")
	}
	return chunks, nil
}
