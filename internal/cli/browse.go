package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvview/internal/client"
	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/JonMunkholm/csvview/internal/view"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

type browseOptions struct {
	Server   string
	ID       string
	PageSize int
	MaxSize  int64
	Lang     string
}

func newBrowseCommand() *cobra.Command {
	opts := &browseOptions{}

	cmd := &cobra.Command{
		Use:   "browse [FILE]",
		Short: "Interactively search, sort and page through a CSV file",
		Long: `Open an interactive prompt over a local file, or over a table on a
csvview server with --server and --id. Type help for commands.`,
		Example: `  csvview browse people.csv
  csvview browse --server http://localhost:8080 --id csv_3f2a...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, summary, err := openBrowseSource(cmd, opts, args)
			if err != nil {
				return err
			}

			ctrl := view.New(source, summary, view.WithPageSize(opts.PageSize))
			defer ctrl.Close()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "csvview> ",
				AutoComplete:    newBrowseCompleter(summary.Columns),
				InterruptPrompt: "^C",
				EOFPrompt:       "quit",
				Stdout:          cmd.OutOrStdout(),
				Stderr:          cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize prompt: %w", err)
			}
			defer func() { _ = rl.Close() }()

			return runBrowse(cmd.Context(), rl, ctrl, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.Server, "server", "", "csvview server URL (remote mode)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "Id of a table on the server (remote mode)")
	cmd.Flags().IntVarP(&opts.PageSize, "page-size", "n", core.DefaultPageSize, "Rows per page")
	registerLocalFlags(cmd, &opts.MaxSize, &opts.Lang)
	return cmd
}

func openBrowseSource(cmd *cobra.Command, opts *browseOptions, args []string) (view.Source, core.UploadSummary, error) {
	switch {
	case len(args) == 1 && opts.ID == "":
		source, summary, err := openLocal(args[0], opts.MaxSize, opts.Lang)
		if err != nil {
			return nil, core.UploadSummary{}, err
		}
		return source, summary, nil
	case len(args) == 0 && opts.Server != "" && opts.ID != "":
		c := client.New(opts.Server)
		return client.NewRemoteSource(c, opts.ID), core.UploadSummary{ID: opts.ID}, nil
	default:
		return nil, core.UploadSummary{}, errors.New("give either FILE or --server with --id")
	}
}

// lineReader is the part of *readline.Instance the loop needs.
type lineReader interface {
	Readline() (string, error)
}

// runBrowse renders the first page, then applies one command per line until
// quit or end of input. Pages go to w, command errors to errW.
func runBrowse(ctx context.Context, rl lineReader, ctrl *view.Controller, w, errW io.Writer) error {
	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	if err := renderState(w, ctrl.State()); err != nil {
		return err
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		quit, err := execBrowseCommand(ctx, ctrl, line, w)
		if quit {
			return nil
		}
		if err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %s\n", errorText(err))
			continue
		}
	}
}

// execBrowseCommand applies one command line. It reports whether the loop should end.
func execBrowseCommand(ctx context.Context, ctrl *view.Controller, line string, w io.Writer) (bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		printBrowseHelp(w)
		return false, nil
	case "errors":
		renderDiagnostics(w, ctrl.State().Upload)
		return false, nil
	case "search", "/":
		err = ctrl.Search(ctx, arg)
	case "clear":
		err = ctrl.Search(ctx, "")
	case "column", "col":
		if arg == "" {
			arg = core.AllColumns
		}
		err = ctrl.SetSearchColumn(ctx, arg)
	case "sort":
		if arg == "" {
			return false, errors.New("usage: sort COLUMN")
		}
		err = ctrl.ToggleSort(ctx, arg)
	case "asc":
		err = ctrl.SetSortDirection(ctx, core.SortAsc)
	case "desc":
		err = ctrl.SetSortDirection(ctx, core.SortDesc)
	case "next", "n":
		err = ctrl.NextPage(ctx)
	case "prev", "p":
		err = ctrl.PrevPage(ctx)
	case "page":
		n, convErr := strconv.Atoi(arg)
		if convErr != nil {
			return false, fmt.Errorf("usage: page N")
		}
		err = ctrl.SetPage(ctx, n)
	case "size":
		n, convErr := strconv.Atoi(arg)
		if convErr != nil || n < 1 {
			return false, fmt.Errorf("usage: size N")
		}
		err = ctrl.SetPageSize(ctx, n)
	default:
		if strings.HasPrefix(line, "/") {
			err = ctrl.Search(ctx, strings.TrimSpace(line[1:]))
			break
		}
		return false, fmt.Errorf("unknown command %q (type help for commands)", cmd)
	}
	if err != nil {
		return false, err
	}

	return false, renderState(w, ctrl.State())
}

func renderState(w io.Writer, s view.State) error {
	q := s.Query
	var parts []string
	if q.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q in %s", q.Search, q.SearchColumn))
	}
	if q.SortBy != "" {
		parts = append(parts, fmt.Sprintf("sorted by %s %s", q.SortBy, q.SortDirection))
	}
	if len(parts) > 0 {
		if _, err := fmt.Fprintln(w, strings.Join(parts, ", ")); err != nil {
			return err
		}
	}
	if err := renderResult(w, s.Upload, s.Result, "table"); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// errorText prefers the user-facing message and its support code.
func errorText(err error) string {
	var ue *core.UserError
	if errors.As(err, &ue) && ue.User.Code != "" {
		return fmt.Sprintf("%s (Code: %s)", ue.User.Message, ue.User.Code)
	}
	return err.Error()
}

func newBrowseCompleter(columns []string) *readline.PrefixCompleter {
	cols := make([]readline.PrefixCompleterInterface, 0, len(columns)+1)
	for _, c := range columns {
		cols = append(cols, readline.PcItem(c))
	}
	withAll := append([]readline.PrefixCompleterInterface{readline.PcItem(core.AllColumns)}, cols...)

	return readline.NewPrefixCompleter(
		readline.PcItem("search"),
		readline.PcItem("clear"),
		readline.PcItem("column", withAll...),
		readline.PcItem("sort", cols...),
		readline.PcItem("asc"),
		readline.PcItem("desc"),
		readline.PcItem("next"),
		readline.PcItem("prev"),
		readline.PcItem("page"),
		readline.PcItem("size"),
		readline.PcItem("errors"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

func printBrowseHelp(w io.Writer) {
	help := `
Commands:
  search TERM, /TERM  Filter rows containing TERM (case-insensitive)
  clear               Remove the search filter
  column NAME|all     Restrict the search to one column
  sort COLUMN         Sort by COLUMN, again to flip the direction
  asc, desc           Set the sort direction
  next, prev          Move one page
  page N              Jump to page N
  size N              Set the page size
  errors              List rows skipped while parsing
  quit                Exit
`
	_, _ = fmt.Fprintln(w, help)
}
