package main

import (
	"fmt"
	"os"
	"sort"

	"delay-prediction-api/models"
	"delay-prediction-api/scoring"
	"delay-prediction-api/store"

	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect delay rules",
	}
	cmd.AddCommand(rulesValidateCmd())
	return cmd
}

// ruleReport is the outcome of checking a rule set.
type ruleReport struct {
	Active     int
	Inactive   int
	Duplicates []string
	Malformed  []string
}

func (r ruleReport) ok() bool { return len(r.Duplicates) == 0 }

func checkRules(rules []models.DelayRule) ruleReport {
	var report ruleReport
	seen := make(map[string]int)
	unique := make([]models.DelayRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.IsActive {
			report.Inactive++
			continue
		}
		report.Active++
		seen[rule.EventCode]++
		if seen[rule.EventCode] == 1 {
			unique = append(unique, rule)
		} else if seen[rule.EventCode] == 2 {
			report.Duplicates = append(report.Duplicates, rule.EventCode)
		}
	}

	// unique holds one active rule per code, so compiling cannot fail
	if lookup, err := scoring.CompileRules(unique); err == nil {
		report.Malformed = lookup.Malformed()
	}
	sort.Strings(report.Duplicates)
	sort.Strings(report.Malformed)
	return report
}

func rulesValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a rule file for duplicate codes and malformed weight tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			ds, err := store.ParseDataset(data)
			if err != nil {
				return err
			}
			rules, err := ds.DelayRules()
			if err != nil {
				return err
			}

			report := checkRules(rules)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d active rules, %d inactive\n", report.Active, report.Inactive)
			for _, code := range report.Malformed {
				fmt.Fprintf(out, "malformed severity weights: %s (scored with weight 1.0)\n", code)
			}
			for _, code := range report.Duplicates {
				fmt.Fprintf(out, "duplicate active rule: %s\n", code)
			}
			if !report.ok() {
				return fmt.Errorf("%w: %d event codes", scoring.ErrDuplicateRule, len(report.Duplicates))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with a rules section")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
