// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ruineo-Z/Spec2Test/services/spec"
)

// runAnalyze parses and scores an OpenAPI document without a server.
func runAnalyze(cmd *cobra.Command, args []string) error {
	doc, err := spec.ParseFile(args[0])
	if err != nil {
		return err
	}

	analysis := spec.NewAnalyzer().Analyze(doc)

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}

	printAnalysis(os.Stdout, analysis)
	return nil
}

func printAnalysis(w io.Writer, a *spec.Analysis) {
	fmt.Fprintf(w, "%s %s\n", a.Title, a.Version)
	fmt.Fprintf(w, "Quality: %.0f/100 (%s)\n", a.QualityScore, a.QualityLevel)
	fmt.Fprintf(w, "Endpoints: %d total, %d documented\n", a.TotalEndpoints, a.DocumentedEndpoints)

	if len(a.Issues) > 0 {
		fmt.Fprintf(w, "\nIssues (%d):\n", len(a.Issues))
		for _, issue := range a.Issues {
			if issue.Endpoint != "" {
				fmt.Fprintf(w, "  [%s] %s (%s)\n", issue.Severity, issue.Message, issue.Endpoint)
			} else {
				fmt.Fprintf(w, "  [%s] %s\n", issue.Severity, issue.Message)
			}
		}
	}

	if len(a.Risks) > 0 {
		fmt.Fprintf(w, "\nRisks (%d, overall %s):\n", len(a.Risks), a.OverallRiskLevel)
		for _, risk := range a.Risks {
			fmt.Fprintf(w, "  [%s] %s: %s\n", risk.Level, risk.ID, risk.Title)
		}
	}

	if len(a.Suggestions) > 0 {
		fmt.Fprintf(w, "\nSuggestions:\n")
		for _, s := range a.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}
