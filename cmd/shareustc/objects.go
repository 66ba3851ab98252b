package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var presignCmd = &cobra.Command{
	Use:   "presign <key>",
	Short: "Print a presigned download URL",
	Long: `Print a presigned GET URL for an object under resources/ or images/.
The URL is valid for --expires (at most 24h).`,
	Args: cobra.ExactArgs(1),
	RunE: runPresign,
}

var rmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Delete objects from the bucket",
	Long: `Delete one or more objects. Deleting an object that does not exist succeeds.
Each deletion is recorded in the audit log under the --as name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

func init() {
	presignCmd.Flags().Duration("expires", 0, "URL lifetime (default: 1h)")
	presignCmd.Flags().String("as", "shareustc-cli", "operator name recorded in the audit log")

	rmCmd.Flags().String("as", "shareustc-cli", "operator name recorded in the audit log")

	rootCmd.AddCommand(presignCmd)
	rootCmd.AddCommand(rmCmd)
}

func runPresign(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	expires, _ := cmd.Flags().GetDuration("expires")
	as, _ := cmd.Flags().GetString("as")

	url, err := a.service.PresignDownload(ctx, operator(as), args[0], expires)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	as, _ := cmd.Flags().GetString("as")
	id := operator(as)

	var failed int
	for _, key := range args {
		if err := a.service.DeleteObject(ctx, id, key); err != nil {
			slog.Error("delete failed", "key", key, "err", err)
			failed++
			continue
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d deletions failed", failed, len(args))
	}
	return nil
}
