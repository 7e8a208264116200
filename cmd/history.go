package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ProjectApnapan/apnapan-pulse/internal/model"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect a school's uploaded files",
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list <school-id>",
	Short: "List uploaded files, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		files, err := st.ListFiles(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "history list")
		}
		if len(files) == 0 {
			fmt.Fprintln(os.Stderr, "No files found.")
			return nil
		}
		formatFileList(cmd.OutOrStdout(), files)
		return nil
	},
}

// -- history fetch --

var historyFetchCmd = &cobra.Command{
	Use:   "fetch <school-id> <filename>",
	Short: "Download the latest version of an uploaded file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		data, err := st.FetchFile(ctx, args[0], args[1])
		if err != nil {
			return eris.Wrap(err, "history fetch")
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = args[1]
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return eris.Wrap(err, "history fetch: write")
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes).\n", out, len(data))
		return nil
	},
}

// formatFileList writes a tabular list of history entries to w.
func formatFileList(out io.Writer, files []model.FileEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FILENAME\tSIZE\tVERSIONS\tUPLOADED")
	_, _ = fmt.Fprintln(w, "--------\t----\t--------\t--------")
	for _, f := range files {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
			f.Filename, f.Size, f.Versions, f.UploadedAt.Local().Format(time.DateTime))
	}
	_ = w.Flush()
}

func init() {
	historyFetchCmd.Flags().StringP("out", "o", "", "output path (default: the stored filename)")
	historyCmd.AddCommand(historyListCmd, historyFetchCmd)
	rootCmd.AddCommand(historyCmd)
}
