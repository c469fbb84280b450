package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sqx/internal/cond"
)

// EvalResult holds the outcome of a conditional evaluation.
type EvalResult struct {
	Matched bool `json:"matched"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	var exprFile, subjectFile string

	cmd := &cobra.Command{
		Use:   "eval --expr <file> --subject <file>",
		Short: "Evaluate a conditional expression against a subject",
		Long: `Evaluate a JSON logic expression (and/or/not/=/!=/in/contains_all/
contains_any) against a subject JSON object of property values.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(rootOpts, exprFile, subjectFile, cmd)
		},
	}

	cmd.Flags().StringVar(&exprFile, "expr", "", "JSON logic expression file")
	cmd.Flags().StringVar(&subjectFile, "subject", "", "subject JSON object file")
	_ = cmd.MarkFlagRequired("expr")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func runEval(opts *RootOptions, exprFile, subjectFile string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	exprData, err := os.ReadFile(exprFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "read expression file", err)
	}
	subjectData, err := os.ReadFile(subjectFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "read subject file", err)
	}

	var subject cond.Properties
	if err := json.Unmarshal(subjectData, &subject); err != nil {
		return WrapExitError(ExitCommandError, "decode subject JSON", err)
	}

	matched, err := cond.EvaluateBytes(exprData, subject)
	if err != nil {
		var ee *cond.EvalError
		if errors.As(err, &ee) {
			_ = formatter.Error("E_EVAL", ee.Error(), nil)
			return NewExitError(ExitFailure, ee.Error())
		}
		return WrapExitError(ExitCommandError, "evaluate", err)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(EvalResult{Matched: matched}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, matched)
	}

	if !matched {
		return NewExitError(ExitFailure, "subject did not match")
	}
	return nil
}
