package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/preflight/internal/cli/output"
	"github.com/leapstack-labs/preflight/pkg/rules"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Format string // Output format
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [resource|order-rule]",
		Short: "List the loaded hardware rules",
		Long: `Load the configured rule file and list its resource rules and
project-specific order rules.

A malformed rule file is reported the same way check reports it, so this
command doubles as a rule file linter.

Output adapts to environment:
  - Terminal: table with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # List all rules
  preflight rules

  # Show one resource rule
  preflight rules I2C

  # Lint a rule file
  preflight rules --rules config/rules.yaml

  # Output as JSON
  preflight rules --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			r := cmdCtx.Renderer
			if opts.Format != "" {
				r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
			}

			rs, err := rules.Load(cmdCtx.Cfg.RulesFile)
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}

			if len(args) > 0 {
				return showRule(r, rs, args[0])
			}
			return listRules(r, rs)
		},
	}

	cmd.Flags().String("rules", "", "Rule file (JSON or YAML)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	return cmd
}

func listRules(r *output.Renderer, rs *rules.RuleSet) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(newRulesJSON(rs))
	case output.ModeMarkdown:
		listRulesMarkdown(r, rs)
	default:
		listRulesText(r, rs)
	}
	return nil
}

func listRulesText(r *output.Renderer, rs *rules.RuleSet) {
	styles := r.Styles()
	c := rs.Counts()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Hardware Rules (%d fatal, %d non-fatal)", c.Fatal, c.NonFatal)))
	r.Println(styles.Muted.Render(rs.Source))
	r.Println("")

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Resource", "Init", "Forbidden before init", "Severity"})
	for _, rule := range rs.Rules {
		t.AppendRow(table.Row{
			rule.Resource,
			strings.Join(rules.Texts(rule.InitFunctions), "\n"),
			strings.Join(rules.Texts(rule.ForbiddenBeforeInit), "\n"),
			severity(rule.Fatal),
		})
	}
	r.Println(t.Render())

	if len(rs.OrderRules) > 0 {
		r.Println("")
		r.Println(styles.Header2.Render("Order Rules"))
		r.Println("")

		ot := table.NewWriter()
		ot.SetStyle(table.StyleLight)
		ot.AppendHeader(table.Row{"Name", "Enforced order", "Severity"})
		for _, o := range rs.OrderRules {
			ot.AppendRow(table.Row{o.Name, strings.Join(rules.Texts(o.EnforcedOrder), " → "), severity(o.Fatal)})
		}
		r.Println(ot.Render())
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'preflight rules <resource>' for details"))
}

func listRulesMarkdown(r *output.Renderer, rs *rules.RuleSet) {
	r.Header(1, "Hardware Rules")

	for _, rule := range rs.Rules {
		r.Printf("- **%s** (`%s`): init `%s`\n",
			rule.Resource, severity(rule.Fatal), strings.Join(rules.Texts(rule.InitFunctions), "`, `"))
	}
	r.Println("")

	if len(rs.OrderRules) > 0 {
		r.Header(2, "Order Rules")
		for _, o := range rs.OrderRules {
			r.Printf("- **%s** (`%s`): `%s`\n",
				o.Name, severity(o.Fatal), strings.Join(rules.Texts(o.EnforcedOrder), "` → `"))
		}
		r.Println("")
	}
}

func showRule(r *output.Renderer, rs *rules.RuleSet, name string) error {
	if rule, ok := rs.Rule(name); ok {
		switch r.EffectiveMode() {
		case output.ModeJSON:
			return r.JSON(newRuleJSON(rule))
		case output.ModeMarkdown:
			r.Header(1, rule.Resource)
			r.Println(output.FormatKeyValue("Severity", "`"+severity(rule.Fatal)+"`"))
			r.Println(output.FormatKeyValue("Init functions", codeList(rule.InitFunctions)))
			r.Println(output.FormatKeyValue("Forbidden before init", codeList(rule.ForbiddenBeforeInit)))
			printIfSet(r, "Description", rule.Description)
			printIfSet(r, "Impact", rule.Impact)
		default:
			styles := r.Styles()
			r.Println(styles.Header1.Render(rule.Resource))
			r.Println("")
			r.Printf("  %s: %s\n", styles.Bold.Render("Severity"), severity(rule.Fatal))
			r.Printf("  %s: %s\n", styles.Bold.Render("Init functions"), strings.Join(rules.Texts(rule.InitFunctions), ", "))
			r.Printf("  %s: %s\n", styles.Bold.Render("Forbidden before init"), strings.Join(rules.Texts(rule.ForbiddenBeforeInit), ", "))
			if rule.Description != "" {
				r.Printf("  %s: %s\n", styles.Bold.Render("Description"), rule.Description)
			}
			if rule.Impact != "" {
				r.Printf("  %s: %s\n", styles.Bold.Render("Impact"), rule.Impact)
			}
		}
		return nil
	}

	if o, ok := rs.OrderRule(name); ok {
		switch r.EffectiveMode() {
		case output.ModeJSON:
			return r.JSON(newOrderRuleJSON(o))
		case output.ModeMarkdown:
			r.Header(1, o.Name)
			r.Println(output.FormatKeyValue("Severity", "`"+severity(o.Fatal)+"`"))
			r.Println(output.FormatKeyValue("Enforced order", codeList(o.EnforcedOrder)))
			printIfSet(r, "Impact", o.Impact)
		default:
			styles := r.Styles()
			r.Println(styles.Header1.Render(o.Name))
			r.Println("")
			r.Printf("  %s: %s\n", styles.Bold.Render("Severity"), severity(o.Fatal))
			for i, m := range o.EnforcedOrder {
				r.Printf("  %d. %s\n", i+1, m.String())
			}
			if o.Impact != "" {
				r.Printf("  %s: %s\n", styles.Bold.Render("Impact"), o.Impact)
			}
		}
		return nil
	}

	return fmt.Errorf("rule %q not found", name)
}

func printIfSet(r *output.Renderer, label, value string) {
	if value != "" {
		r.Println(output.FormatKeyValue(label, value))
	}
}

func codeList(ms []rules.Marker) string {
	return "`" + strings.Join(rules.Texts(ms), "`, `") + "`"
}

func severity(fatal bool) string {
	if fatal {
		return "fatal"
	}
	return "warning"
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Source     string          `json:"source"`
	Rules      []RuleJSON      `json:"rules"`
	OrderRules []OrderRuleJSON `json:"project_specific_rules"`
	Count      rules.Counts    `json:"count"`
}

// RuleJSON is one resource rule in JSON output. Field names follow the
// rule file format.
type RuleJSON struct {
	Resource            string   `json:"resource"`
	InitFunctions       []string `json:"init_functions"`
	ForbiddenBeforeInit []string `json:"forbidden_before_init"`
	Fatal               bool     `json:"fatal"`
	Impact              string   `json:"impact,omitempty"`
	Description         string   `json:"description,omitempty"`
}

// OrderRuleJSON is one order rule in JSON output.
type OrderRuleJSON struct {
	Name          string   `json:"name"`
	EnforcedOrder []string `json:"enforced_order"`
	Fatal         bool     `json:"fatal"`
	Impact        string   `json:"impact,omitempty"`
}

func newRuleJSON(r rules.Rule) RuleJSON {
	return RuleJSON{
		Resource:            r.Resource,
		InitFunctions:       rules.Texts(r.InitFunctions),
		ForbiddenBeforeInit: rules.Texts(r.ForbiddenBeforeInit),
		Fatal:               r.Fatal,
		Impact:              r.Impact,
		Description:         r.Description,
	}
}

func newOrderRuleJSON(o rules.OrderRule) OrderRuleJSON {
	return OrderRuleJSON{
		Name:          o.Name,
		EnforcedOrder: rules.Texts(o.EnforcedOrder),
		Fatal:         o.Fatal,
		Impact:        o.Impact,
	}
}

func newRulesJSON(rs *rules.RuleSet) RulesJSONOutput {
	out := RulesJSONOutput{
		Source:     rs.Source,
		Rules:      make([]RuleJSON, 0, len(rs.Rules)),
		OrderRules: make([]OrderRuleJSON, 0, len(rs.OrderRules)),
		Count:      rs.Counts(),
	}
	for _, r := range rs.Rules {
		out.Rules = append(out.Rules, newRuleJSON(r))
	}
	for _, o := range rs.OrderRules {
		out.OrderRules = append(out.OrderRules, newOrderRuleJSON(o))
	}
	return out
}
