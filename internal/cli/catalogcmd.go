package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sqx/internal/catalog"
	"github.com/roach88/sqx/internal/query"
)

// NewCatalogCommand creates the catalog command group: save, get,
// list, delete against a SQLite catalog database.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Store and retrieve named queries",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "sqx-catalog.db", "catalog database path")

	cmd.AddCommand(newCatalogSaveCommand(rootOpts, &dbPath))
	cmd.AddCommand(newCatalogGetCommand(rootOpts, &dbPath))
	cmd.AddCommand(newCatalogListCommand(rootOpts, &dbPath))
	cmd.AddCommand(newCatalogDeleteCommand(rootOpts, &dbPath))
	return cmd
}

func newCatalogSaveCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:           "save <query>",
		Short:         "Parse and save a query, printing its key",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			q, err := query.FromQueryString(args[0])
			if err != nil {
				if iq, ok := err.(*query.InvalidQueryError); ok {
					return outputParseErrors(formatter, iq)
				}
				return WrapExitError(ExitCommandError, "parse", err)
			}
			q.Name = name

			cat, err := catalog.Open(*dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "open catalog", err)
			}
			defer cat.Close()

			key, err := cat.Save(cmd.Context(), q)
			if err != nil {
				return WrapExitError(ExitCommandError, "save query", err)
			}
			return formatter.Success(key)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name for the saved query")
	return cmd
}

func newCatalogGetCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "get <key>",
		Short:         "Print a saved query as text",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			cat, err := catalog.Open(*dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "open catalog", err)
			}
			defer cat.Close()

			q, err := cat.Get(cmd.Context(), args[0])
			if errors.Is(err, catalog.ErrNotFound) {
				return WrapExitError(ExitFailure, "get query", err)
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "get query", err)
			}

			if formatter.Format == "json" {
				return formatter.Success(q.ToJSON())
			}
			fmt.Fprintln(formatter.Writer, q.ToQueryString())
			return nil
		},
	}
}

func newCatalogListCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List saved queries",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			cat, err := catalog.Open(*dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "open catalog", err)
			}
			defer cat.Close()

			entries, err := cat.List(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "list queries", err)
			}

			if formatter.Format == "json" {
				return formatter.Success(entries)
			}
			for _, e := range entries {
				fmt.Fprintf(formatter.Writer, "%s\t%s\t%s\n", e.Key, e.Name, e.Source)
			}
			return nil
		},
	}
}

func newCatalogDeleteCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <key>",
		Short:         "Delete a saved query",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			cat, err := catalog.Open(*dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "open catalog", err)
			}
			defer cat.Close()

			if err := cat.Delete(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					return WrapExitError(ExitFailure, "delete query", err)
				}
				return WrapExitError(ExitCommandError, "delete query", err)
			}
			return formatter.Success("deleted " + args[0])
		},
	}
}
