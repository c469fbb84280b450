package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sqx/internal/query"
	"github.com/roach88/sqx/internal/schema"
)

// NewConvertCommand creates the convert command.
//
// Input format is inferred from the file extension: .json and
// .yaml/.yml files carry the native JSON query shape (JSON input is
// schema-checked first); anything else is query text.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a query between text and native JSON",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(rootOpts, args[0], to, cmd)
		},
	}

	cmd.Flags().StringVar(&to, "to", "json", "target form (json|text)")
	return cmd
}

func runConvert(opts *RootOptions, path, to string, cmd *cobra.Command) error {
	if to != "json" && to != "text" {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid target %q: must be json or text", to))
	}

	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read input file", err)
	}

	q, err := loadQuery(path, data, formatter)
	if err != nil {
		return err
	}

	if to == "text" {
		return formatter.Success(q.ToQueryString())
	}

	encoded, err := json.MarshalIndent(q.ToJSON(), "", "  ")
	if err != nil {
		return WrapExitError(ExitCommandError, "encode query JSON", err)
	}
	fmt.Fprintln(formatter.Writer, string(encoded))
	return nil
}

// loadQuery builds a SearchQuery from file contents based on the
// file extension.
func loadQuery(path string, data []byte, formatter *OutputFormatter) (*query.SearchQuery, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		formatter.VerboseLog("validating %s against the query schema", path)
		if err := schema.Validate(data); err != nil {
			return nil, WrapExitError(ExitFailure, "schema validation", err)
		}
		q, err := query.FromJSONBytes(data)
		if err != nil {
			return nil, WrapExitError(ExitFailure, "build query from JSON", err)
		}
		return q, nil

	case ".yaml", ".yml":
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, WrapExitError(ExitFailure, "decode YAML query", err)
		}
		q, err := query.FromJSON(raw)
		if err != nil {
			return nil, WrapExitError(ExitFailure, "build query from YAML", err)
		}
		return q, nil

	default:
		q, err := query.FromQueryString(string(data))
		if err != nil {
			if iq, ok := err.(*query.InvalidQueryError); ok {
				return nil, outputParseErrors(formatter, iq)
			}
			return nil, WrapExitError(ExitFailure, "parse query text", err)
		}
		return q, nil
	}
}
