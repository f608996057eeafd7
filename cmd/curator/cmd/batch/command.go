// Package batch provides the batch command, which applies pending proposals
// to many resources concurrently.
package batch

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/agentstation/curator/cmd/curator/cmd/apply"
	"github.com/agentstation/curator/internal/cmd/application"
	"github.com/agentstation/curator/internal/cmd/cmdutil"
	"github.com/agentstation/curator/internal/cmd/output"
	pkgbatch "github.com/agentstation/curator/pkg/batch"
	"github.com/agentstation/curator/pkg/errors"
)

// Report is a batch summary with a table rendering.
type Report struct {
	*pkgbatch.Summary `yaml:",inline"`
}

// TableData implements output.Tabular.
func (r Report) TableData() output.Data {
	data := output.Data{
		Headers: []string{"Resource", "Status", "Update", "Remove", "Append", "Pending", "Reason"},
		ColumnAlignment: []output.Align{
			output.AlignRight, output.AlignLeft, output.AlignRight,
			output.AlignRight, output.AlignRight, output.AlignRight, output.AlignLeft,
		},
	}
	for _, item := range r.Items {
		data.Rows = append(data.Rows, []string{
			strconv.FormatInt(item.ResourceID, 10),
			string(item.Status),
			strconv.Itoa(item.Stats.Update),
			strconv.Itoa(item.Stats.Remove),
			strconv.Itoa(item.Stats.Append),
			strconv.Itoa(item.Stats.Pending),
			item.Reason,
		})
	}
	return data
}

// NewCommand creates the batch command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var (
		concurrency  int
		validateOnly bool
		metrics      bool
		selector     *cmdutil.SelectorFlags
	)

	cmd := &cobra.Command{
		Use:     "batch",
		GroupID: "core",
		Short:   "Apply pending proposals to many resources",
		Args:    cobra.NoArgs,
		Long: `Batch selects resources by id, template or class and applies the latest
stored proposal of each, several at a time. Resources without a proposal
or a generative template are skipped. A failing resource does not stop
the batch; its errors are listed at the end.`,
		Example: `  curator batch --template 3
  curator batch --ids 12,14,15 --validate-only
  curator batch --class 7 --concurrency 8 --metrics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			reg := prometheus.NewRegistry()

			runner, err := app.Runner(ctx,
				pkgbatch.WithConcurrency(concurrency),
				pkgbatch.WithValidateOnly(validateOnly),
				pkgbatch.WithRegisterer(reg),
			)
			if err != nil {
				return err
			}

			summary, runErr := runner.Run(ctx, selector.Selector())
			if summary == nil {
				return runErr
			}

			if err := output.Write(cmd.OutOrStdout(), app.OutputFormat(), Report{summary}); err != nil {
				return err
			}
			printErrors(cmd.ErrOrStderr(), summary)
			if metrics {
				if err := writeMetrics(cmd.OutOrStdout(), reg); err != nil {
					return err
				}
			}

			if runErr != nil {
				return runErr
			}
			if summary.HasFailures() {
				return fmt.Errorf("%d of %d resources failed", summary.Failed, summary.Processed)
			}
			return nil
		},
	}

	selector = cmdutil.AddSelectorFlags(cmd)
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", app.Concurrency(), "resources processed at once")
	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "validate payloads without writing them")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "print batch metrics in Prometheus text format")

	return cmd
}

// printErrors lists the errors recorded per resource.
func printErrors(w io.Writer, summary *pkgbatch.Summary) {
	for _, key := range summary.Errors.Keys() {
		_, _ = fmt.Fprintf(w, "resource %s:\n", key)
		if verrs := summary.Errors.Validation(key); verrs != nil {
			apply.PrintValidation(w, verrs)
		}
		for _, err := range summary.Errors.Errors(key) {
			_, _ = fmt.Fprintf(w, "  %v\n", err)
		}
	}
}

// writeMetrics dumps the registry in the text exposition format.
func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return errors.WrapResource("gather", "metrics", "", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
