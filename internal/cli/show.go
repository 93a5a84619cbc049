package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/JonMunkholm/csvview/internal/view"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

type showOptions struct {
	queryOptions
	MaxSize int64
	Lang    string
}

func newShowCommand() *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Show one page of a local CSV file",
		Long: `Parse a CSV file locally and print one page of it.

Rows are filtered by --search, then sorted by --sort, then paginated.`,
		Example: `  csvview show people.csv
  csvview show people.csv --search oslo --column city --sort age --desc
  csvview show people.csv --page 2 --page-size 50 --format md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}

			source, summary, err := openLocal(args[0], opts.MaxSize, opts.Lang)
			if err != nil {
				return err
			}

			res, err := source.Load(cmd.Context(), opts.query())
			if err != nil {
				return err
			}

			renderDiagnostics(cmd.ErrOrStderr(), summary)
			return renderResult(cmd.OutOrStdout(), summary, res, opts.Format)
		},
	}

	opts.register(cmd)
	registerLocalFlags(cmd, &opts.MaxSize, &opts.Lang)
	return cmd
}

func registerLocalFlags(cmd *cobra.Command, maxSize *int64, lang *string) {
	cmd.Flags().Int64Var(maxSize, "max-size", core.DefaultMaxUploadSize, "Maximum file size in bytes")
	cmd.Flags().StringVar(lang, "lang", "und", "BCP 47 language used to collate sorted text")
}

// openLocal parses path and returns an in-process source over it.
func openLocal(path string, maxSize int64, lang string) (*view.LocalSource, core.UploadSummary, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, core.UploadSummary{}, fmt.Errorf("invalid --lang %q: %w", lang, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, core.UploadSummary{}, err
	}
	defer func() { _ = f.Close() }()

	t, err := core.ParseReader(f, maxSize)
	if err != nil {
		return nil, core.UploadSummary{}, fmt.Errorf("%s: %s", path, core.FormatUserError(err))
	}

	source := view.NewLocalSource(t, tag)
	return source, source.Summary(filepath.Base(path)), nil
}
