package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/csvview/internal/client"
	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/spf13/cobra"
)

type remoteOptions struct {
	queryOptions
	Server string
	ID     string
}

func newRemoteCommand() *cobra.Command {
	opts := &remoteOptions{}

	cmd := &cobra.Command{
		Use:   "remote [FILE]",
		Short: "Upload a CSV file to a server and show one page of it",
		Long: `Upload FILE to a csvview server and print one page evaluated by the server.

With --id instead of FILE, query a table uploaded earlier.`,
		Example: `  csvview remote people.csv --server http://localhost:8080
  csvview remote --server http://localhost:8080 --id csv_3f2a... --page 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			if (len(args) == 0) == (opts.ID == "") {
				return fmt.Errorf("give either FILE or --id")
			}

			c := client.New(opts.Server)
			summary, err := uploadOrLookup(cmd, c, args, opts.ID)
			if err != nil {
				return err
			}

			res, err := c.Data(cmd.Context(), summary.ID, opts.query())
			if err != nil {
				return err
			}

			if summary.Columns == nil {
				summary.Columns = res.Columns
			}
			return renderResult(cmd.OutOrStdout(), summary, res, opts.Format)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.Server, "server", "http://localhost:8080", "csvview server URL")
	cmd.Flags().StringVar(&opts.ID, "id", "", "Id of a table uploaded earlier")
	return cmd
}

// uploadOrLookup uploads args[0], or returns a bare summary for id.
// Upload totals are only known for a fresh upload.
func uploadOrLookup(cmd *cobra.Command, c *client.Client, args []string, id string) (core.UploadSummary, error) {
	if len(args) == 0 {
		return core.UploadSummary{ID: id}, nil
	}

	f, err := os.Open(args[0])
	if err != nil {
		return core.UploadSummary{}, err
	}
	defer func() { _ = f.Close() }()

	summary, err := c.Upload(cmd.Context(), filepath.Base(args[0]), f, core.IngestOptions{})
	if err != nil {
		return core.UploadSummary{}, err
	}

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "uploaded %s as %s\n", summary.FileName, summary.ID)
	renderDiagnostics(cmd.ErrOrStderr(), summary)
	return summary, nil
}
