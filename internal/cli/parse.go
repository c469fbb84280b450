package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sqx/internal/query"
)

// ParseResult holds the outcome of a parse check.
type ParseResult struct {
	Valid      bool           `json:"valid"`
	Normalized string         `json:"normalized,omitempty"`
	Query      map[string]any `json:"query,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "parse [query]",
		Short: "Parse a query and report every diagnostic",
		Long: `Parse SQX query text and report the full list of accumulated parse
errors, or the normalized rendering and JSON export on success.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := queryTextArg(args, fromFile)
			if err != nil {
				return err
			}
			return runParse(rootOpts, text, cmd)
		},
	}

	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "read query text from a file")
	return cmd
}

// queryTextArg resolves query text from the positional arg or --file.
func queryTextArg(args []string, fromFile string) (string, error) {
	if fromFile != "" {
		data, err := os.ReadFile(fromFile)
		if err != nil {
			return "", WrapExitError(ExitCommandError, "read query file", err)
		}
		return string(data), nil
	}
	if len(args) == 1 {
		return args[0], nil
	}
	return "", NewExitError(ExitCommandError, "provide query text or --file")
}

func runParse(opts *RootOptions, text string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	q, err := query.FromQueryString(text)
	if err != nil {
		var iq *query.InvalidQueryError
		if errors.As(err, &iq) {
			return outputParseErrors(formatter, iq)
		}
		return WrapExitError(ExitCommandError, "parse", err)
	}

	result := ParseResult{
		Valid:      true,
		Normalized: q.ToQueryString(),
		Query:      q.ToJSON(),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, "✓ Query valid")
	fmt.Fprintln(formatter.Writer, result.Normalized)
	return nil
}

func outputParseErrors(formatter *OutputFormatter, iq *query.InvalidQueryError) error {
	messages := make([]string, len(iq.Errors))
	for i, pe := range iq.Errors {
		messages[i] = pe.Error()
	}

	if formatter.Format == "json" {
		_ = formatter.Error("E_PARSE", "query did not parse", ParseResult{
			Valid:  false,
			Errors: messages,
		})
		return NewExitError(ExitFailure, fmt.Sprintf("parse failed with %d error(s)", len(messages)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Query invalid")
	for _, msg := range messages {
		fmt.Fprintf(formatter.Writer, "  %s\n", msg)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("parse failed with %d error(s)", len(messages)))
}
