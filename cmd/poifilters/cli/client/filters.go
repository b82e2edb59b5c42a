package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/mwantia/poifilters/internal/agent"
	"github.com/mwantia/poifilters/internal/config"
	"github.com/mwantia/poifilters/pkg/catalog"
	"github.com/mwantia/poifilters/pkg/poi"
	"github.com/spf13/cobra"
)

func NewFiltersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Manage POI filters",
		Long:  "List, search, create, edit or delete the POI filters of the catalog.",
	}

	cmd.AddCommand(NewFiltersListCommand())
	cmd.AddCommand(NewFiltersSearchCommand())
	cmd.AddCommand(NewFiltersShowCommand())
	cmd.AddCommand(NewFiltersCreateCommand())
	cmd.AddCommand(NewFiltersEditCommand())
	cmd.AddCommand(NewFiltersDeleteCommand())

	return cmd
}

// withCatalog opens an agent for the duration of fn.
func withCatalog(cmd *cobra.Command, fn func(ctx context.Context, cat *catalog.Catalog) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a := agent.NewAgent(cfg)
	if err := a.Open(ctx); err != nil {
		return err
	}
	defer a.Close(context.Background())

	return fn(ctx, a.Catalog())
}

func NewFiltersListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List top-level filters",
		Long:  "List the show-all filter followed by user-defined and built-in filters in presentation order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(ctx context.Context, cat *catalog.Catalog) error {
				return printFilters(cmd.OutOrStdout(), cat.ListTop(ctx))
			})
		},
	}

	return cmd
}

func NewFiltersSearchCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search filters and POI types by name",
		Long: `Search user-defined filters and POI types whose name has a word starting with the query.

With --interactive every line read from stdin starts a new search and cancels the previous one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(ctx context.Context, cat *catalog.Catalog) error {
				if interactive {
					return searchInteractive(ctx, cat, cmd.InOrStdin(), cmd.OutOrStdout())
				}

				query := ""
				if len(args) > 0 {
					query = args[0]
				}
				items, err := cat.Search(ctx, query)
				if err != nil {
					return err
				}
				return printItems(cmd.OutOrStdout(), items)
			})
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Read queries from stdin")

	return cmd
}

func searchInteractive(ctx context.Context, cat *catalog.Catalog, in io.Reader, out io.Writer) error {
	searcher := catalog.NewSearcher(cat, func(query string, items []catalog.Item) {
		fmt.Fprintf(out, "# %q\n", query)
		printItems(out, items)
	})
	defer searcher.Stop()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		searcher.Submit(ctx, strings.TrimRight(scanner.Text(), "\r"))
	}
	searcher.Wait()

	return scanner.Err()
}

func NewFiltersShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a filter",
		Long:  "Show the accepted categories and name restriction of a filter.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(ctx context.Context, cat *catalog.Catalog) error {
				f, ok := cat.GetByID(ctx, args[0])
				if !ok {
					return fmt.Errorf("filter '%s': %w", args[0], poi.ErrNotFound)
				}
				return printFilter(cmd.OutOrStdout(), f)
			})
		},
	}

	return cmd
}

func NewFiltersCreateCommand() *cobra.Command {
	var id, name, byName string
	var types []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user-defined filter",
		Long:  "Create a user-defined filter. Types are given as 'category' or 'category:subtype'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				id = poi.UserPrefix + uuid.NewString()
			}

			f := poi.NewFilter(id, name)
			f.FilterByName = byName
			if err := applyTypes(f, types); err != nil {
				return err
			}

			return withCatalog(cmd, func(ctx context.Context, cat *catalog.Catalog) error {
				if err := cat.Create(ctx, f); err != nil {
					return fmt.Errorf("failed to create filter: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", f.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Filter id (default is a generated user_ id)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVar(&byName, "by-name", "", "Only match POIs whose name contains this text")
	cmd.Flags().StringArrayVarP(&types, "type", "t", nil, "Accepted type as category or category:subtype (repeatable)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("type")

	return cmd
}

func NewFiltersEditCommand() *cobra.Command {
	var name, byName string
	var types []string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a user-defined filter",
		Long:  "Edit a user-defined filter. Given types replace every accepted type of the filter.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(ctx context.Context, cat *catalog.Catalog) error {
				f, ok := cat.GetByID(ctx, args[0])
				if !ok {
					return fmt.Errorf("filter '%s': %w", args[0], poi.ErrNotFound)
				}

				if cmd.Flags().Changed("name") {
					f.Name = name
				}
				if cmd.Flags().Changed("by-name") {
					f.FilterByName = byName
				}
				if cmd.Flags().Changed("type") {
					f.AcceptedTypes = poi.AcceptedTypes{}
					if err := applyTypes(f, types); err != nil {
						return err
					}
				}

				if err := cat.Edit(ctx, f); err != nil {
					return fmt.Errorf("failed to edit filter: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Edited %s\n", f.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVar(&byName, "by-name", "", "Only match POIs whose name contains this text")
	cmd.Flags().StringArrayVarP(&types, "type", "t", nil, "Accepted type as category or category:subtype (repeatable)")

	return cmd
}

func NewFiltersDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a user-defined filter",
		Long:  "Delete a user-defined filter together with its accepted types.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(ctx context.Context, cat *catalog.Catalog) error {
				if err := cat.Delete(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete filter: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}

	return cmd
}

func applyTypes(f *poi.Filter, types []string) error {
	for _, t := range types {
		category, sub, found := strings.Cut(t, ":")
		category = strings.ToLower(strings.TrimSpace(category))
		if category == "" {
			return fmt.Errorf("invalid type '%s': missing category", t)
		}
		if !found {
			f.AcceptCategory(category)
			continue
		}
		sub = strings.TrimSpace(sub)
		if sub == "" {
			return fmt.Errorf("invalid type '%s': missing subtype", t)
		}
		f.AcceptSubTypes(category, sub)
	}
	return nil
}

func displayName(f *poi.Filter) string {
	if f.IsShowAll() {
		return "(show all)"
	}
	return f.Name
}

func printFilters(w io.Writer, filters []*poi.Filter) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRANK\tNAME")
	for _, f := range filters {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", f.ID, catalog.Rank(f), displayName(f))
	}
	return tw.Flush()
}

func printItems(w io.Writer, items []catalog.Item) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tNAME")
	for _, item := range items {
		kind := "filter"
		name := item.Name
		if item.Kind == catalog.TypeItem {
			kind = "type"
		} else {
			name = displayName(item.Filter)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.FilterID(), kind, name)
	}
	return tw.Flush()
}

func printFilter(w io.Writer, f *poi.Filter) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", f.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", displayName(f))
	fmt.Fprintf(tw, "Standard:\t%t\n", f.Standard)
	if f.FilterByName != "" {
		fmt.Fprintf(tw, "By name:\t%s\n", f.FilterByName)
	}
	if f.AcceptsAll() {
		fmt.Fprintln(tw, "Types:\t*")
	}
	for _, category := range f.AcceptedTypes.Categories() {
		sub := f.AcceptedTypes[category]
		if sub == nil {
			fmt.Fprintf(tw, "Types:\t%s:*\n", category)
			continue
		}
		fmt.Fprintf(tw, "Types:\t%s:%s\n", category, strings.Join(sub.Keys(), ","))
	}
	return tw.Flush()
}
