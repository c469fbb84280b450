package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sqx/internal/query"
)

// DescribeResult holds column inference output.
type DescribeResult struct {
	Columns   []query.ColumnDescriptor `json:"columns"`
	Aggregate bool                     `json:"aggregate"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "describe [query]",
		Short: "Show inferred column descriptors for a query",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := queryTextArg(args, fromFile)
			if err != nil {
				return err
			}
			return runDescribe(rootOpts, text, cmd)
		},
	}

	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "read query text from a file")
	return cmd
}

func runDescribe(opts *RootOptions, text string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	q, err := query.FromQueryString(text)
	if err != nil {
		if iq, ok := err.(*query.InvalidQueryError); ok {
			return outputParseErrors(formatter, iq)
		}
		return WrapExitError(ExitCommandError, "parse", err)
	}
	q.SetDiagnostics(func(msg string) {
		formatter.VerboseLog("describe: %s", msg)
	})

	result := DescribeResult{Columns: q.ColumnDescriptions(), Aggregate: q.IsAggregate()}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, col := range result.Columns {
		line := fmt.Sprintf("%s\t%s", col.Name, col.Type)
		if col.AsField != "" {
			line += "\t" + col.AsField
		}
		if col.IsAggregate {
			line += "\t(aggregate)"
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}
