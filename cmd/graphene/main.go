package main

import (
	"fmt"
	"os"

	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/flanksource/graphene"
	"github.com/flanksource/graphene/api"
	"github.com/flanksource/graphene/extract"
	"github.com/flanksource/graphene/render"
	"github.com/flanksource/graphene/types"
)

var (
	file       string
	configFile string
	by         []string
	over       string
	output     string
	threshold  float64
	otherLabel string
	verbosity  int
)

func bindFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&file, "file", "f", "-", "JSON or YAML array of records, - for stdin")
	flags.StringVarP(&configFile, "config", "c", "", "Report definition (kind, by, over, output, options)")
	flags.StringArrayVar(&by, "by", nil, "Attribute to group by: field name, cel:<expr>, jq:<expr> or jsonpath:<expr>")
	flags.StringVar(&over, "over", "", "Attribute to partition the records by before grouping")
	flags.StringVarP(&output, "output", "o", "", "Output format: table, bars, line, json, yaml")
	flags.Float64Var(&threshold, "threshold", 0, "Collapse groups below this percentage into a single row")
	flags.StringVar(&otherLabel, "other-label", "", "Label of the row holding collapsed groups")
	flags.CountVarP(&verbosity, "verbose", "v", "Increase logging verbosity")
}

func command(kind types.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(kind),
		Short: fmt.Sprintf("Print the %s of records grouped by one or more attributes", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := buildReport(cmd, kind)
			if err != nil {
				return err
			}

			records, err := LoadRecords(file)
			if err != nil {
				return err
			}

			out, err := Run(report, records)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	bindFlags(cmd.Flags())
	return cmd
}

func buildReport(cmd *cobra.Command, kind types.Kind) (Report, error) {
	report := Report{Kind: kind}
	if configFile != "" {
		loaded, err := LoadReport(configFile)
		if err != nil {
			return report, err
		}
		report = loaded
		if report.Kind == "" {
			report.Kind = kind
		}
	}

	flags := cmd.Flags()
	if flags.Changed("by") {
		report.By = by
	}
	if flags.Changed("over") {
		report.Over = over
	}
	if flags.Changed("output") {
		report.Output = output
	}
	if flags.Changed("threshold") {
		report.Options = report.Options.WithThreshold(threshold)
	}
	if flags.Changed("other-label") {
		report.Options.OtherLabel = otherLabel
	}

	if verbosity > 0 {
		logger.StandardLogger().SetLogLevel(verbosity)
	}
	return report, nil
}

// Run aggregates records as described by report and renders the result.
func Run(report Report, records []map[string]any) (string, error) {
	if len(report.By) == 0 {
		return "", api.InvalidExtractor(0, nil, "at least one --by attribute is required")
	}

	args := make([]any, 0, len(report.By)+1)
	for _, b := range report.By {
		args = append(args, extract.ParseExpression(b))
	}
	args = append(args, report.Options)

	rs, err := graphene.New(report.Kind, records, args...)
	if err != nil {
		return "", err
	}

	renderer, err := render.Get(report.Output)
	if err != nil {
		return "", err
	}

	if report.Over != "" {
		o, err := rs.Over(extract.ParseExpression(report.Over))
		if err != nil {
			return "", err
		}
		return o.Render(renderer)
	}
	return rs.Render(renderer)
}

func main() {
	root := &cobra.Command{
		Use:           "graphene",
		Short:         "Subtotals and percentages over JSON or YAML records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(command(types.KindSubtotals), command(types.KindPercentages))

	if err := root.Execute(); err != nil {
		logger.Errorf("%s: %v", api.ErrorCode(err), err)
		os.Exit(1)
	}
}
