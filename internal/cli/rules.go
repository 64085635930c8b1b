package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/inspectra/internal/classify"
	"github.com/ppiankov/inspectra/internal/model"
	"github.com/ppiankov/inspectra/internal/pipeline"
	"github.com/ppiankov/inspectra/internal/rules"
	"github.com/ppiankov/inspectra/internal/textnorm"
	"github.com/ppiankov/inspectra/internal/validate"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and lint the configured rule sets",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load every configured rule set and report lint findings",
	Long: `Check loads the rule set of every configured key and reports categories
without keywords, repeated titles, empty or duplicated keywords and keywords
an earlier category already claims.

Example:
  inspectra rules check
  inspectra rules check --rules С5=./rules_c5.txt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := rulesPipeline(cmd)
		if err != nil {
			return err
		}
		keyRules, err := p.LoadRules(cmd.Context())
		if err != nil {
			return err
		}
		printLint(os.Stdout, keyRules)
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print the rule set of a key in text format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kr, _, err := loadKeyRules(cmd, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "# %s: %s (%d rules, %d keywords)\n\n", kr.Key, kr.Location, len(kr.Rules), kr.Rules.KeywordCount())
		fmt.Print(rules.Format(kr.Rules))
		return nil
	},
}

var rulesTestCmd = &cobra.Command{
	Use:   "test <key> <description>",
	Short: "Show which category a description falls into",
	Long: `Test classifies a single description against a key's rule set the way
analyze does and prints the winning category.

Example:
  inspectra rules test С5 "сотрудник облокотился на стол"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kr, cfg, err := loadKeyRules(cmd, args[0])
		if err != nil {
			return err
		}
		desc := strings.Join(args[1:], " ")
		canonical := textnorm.NormalizeForMatching(desc)

		title, ok := kr.Set.FirstMatch(canonical)
		if !ok {
			title = classify.New(kr.Set, classify.WithOtherTitle(cfg.Output.OtherTitle)).OtherTitle()
		}
		fmt.Printf("%s\n  canonical: %q\n  category:  %s\n", desc, canonical, title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesCheckCmd, rulesShowCmd, rulesTestCmd)
	rulesCmd.PersistentFlags().StringArray("rules", nil, "rule set for a key as KEY=LOCATION (repeatable)")
}

func rulesPipeline(cmd *cobra.Command) (*pipeline.Pipeline, *model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	overrides, _ := cmd.Flags().GetStringArray("rules")
	if err := applyRuleOverrides(cfg, overrides); err != nil {
		return nil, nil, err
	}
	return pipeline.NewPipeline(cfg, newLogger(cfg)), cfg, nil
}

func loadKeyRules(cmd *cobra.Command, key string) (*pipeline.KeyRules, *model.Config, error) {
	p, cfg, err := rulesPipeline(cmd)
	if err != nil {
		return nil, nil, err
	}
	keyRules, err := p.LoadRules(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	for i := range keyRules {
		if strings.EqualFold(keyRules[i].Key, strings.TrimSpace(key)) {
			return &keyRules[i], cfg, nil
		}
	}
	return nil, nil, fmt.Errorf("key %q is not configured", key)
}

func printLint(w io.Writer, keyRules []pipeline.KeyRules) {
	for _, kr := range keyRules {
		location := kr.Location
		if location == "" {
			location = "(no rules)"
		}
		counts := validate.CountBySeverity(kr.Issues)
		fmt.Fprintf(w, "%s  %s: %d rules, %d keywords, %d warnings, %d notes\n",
			kr.Key, location, len(kr.Rules), kr.Rules.KeywordCount(),
			counts[model.SeverityWarning], counts[model.SeverityInfo])
		for _, issue := range kr.Issues {
			fmt.Fprintf(w, "  %s\n", issue)
		}
	}
}
