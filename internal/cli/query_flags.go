package cli

import (
	"fmt"

	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/spf13/cobra"
)

// queryOptions holds the flags shared by show and remote.
type queryOptions struct {
	Search   string
	Column   string
	Sort     string
	Desc     bool
	Page     int
	PageSize int
	Format   string
}

func (o *queryOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Search, "search", "s", "", "Case-insensitive substring filter")
	cmd.Flags().StringVarP(&o.Column, "column", "c", core.AllColumns, "Column to search, or all")
	cmd.Flags().StringVar(&o.Sort, "sort", "", "Column to sort by")
	cmd.Flags().BoolVar(&o.Desc, "desc", false, "Sort descending")
	cmd.Flags().IntVarP(&o.Page, "page", "p", 1, "Page number (1-based)")
	cmd.Flags().IntVarP(&o.PageSize, "page-size", "n", core.DefaultPageSize, "Rows per page")
	cmd.Flags().StringVarP(&o.Format, "format", "f", "table", "Output format (table|json|csv|md)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return formats, cobra.ShellCompDirectiveNoFileComp
	})
}

func (o *queryOptions) query() core.Query {
	dir := core.SortAsc
	if o.Desc {
		dir = core.SortDesc
	}
	return core.Query{
		Search:        o.Search,
		SearchColumn:  o.Column,
		SortBy:        o.Sort,
		SortDirection: dir,
		Page:          o.Page,
		PageSize:      o.PageSize,
	}
}

func (o *queryOptions) validate() error {
	for _, f := range formats {
		if o.Format == f {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (want one of %v)", o.Format, formats)
}
