package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shareustc/shareustc"
	"github.com/shareustc/shareustc/config"
	"github.com/shareustc/shareustc/database"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and maintain the audit log",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print audit entries, newest first, as JSON",
	RunE:  runAuditList,
}

var auditPruneCmd = &cobra.Command{
	Use:     "prune",
	Short:   "Delete audit entries older than a given age",
	Example: `  shareustc audit prune --older-than 2160h`,
	RunE:    runAuditPrune,
}

func init() {
	auditListCmd.Flags().Int("limit", shareustc.DefaultAuditPageSize, "maximum entries to print")
	auditListCmd.Flags().String("action", "", "only show one action: sts_issued, presign_issued, object_deleted, token_refreshed")
	auditListCmd.Flags().String("cursor", "", "continue from a previous page")

	auditPruneCmd.Flags().Duration("older-than", 0, "delete entries created before now minus this age (required)")
	_ = auditPruneCmd.MarkFlagRequired("older-than")

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditPruneCmd)
	rootCmd.AddCommand(auditCmd)
}

func openAuditDB(cmd *cobra.Command) (database.Database, error) {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	return db, nil
}

func runAuditList(cmd *cobra.Command, args []string) error {
	db, err := openAuditDB(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	action, _ := cmd.Flags().GetString("action")
	cursor, _ := cmd.Flags().GetString("cursor")

	q := shareustc.AuditQuery{
		Action: shareustc.AuditAction(action),
		Limit:  limit,
		Cursor: cursor,
	}
	if q.Action != "" && !q.Action.IsValid() {
		return fmt.Errorf("unknown action %q", action)
	}

	page, err := db.GetRepo().List(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("list audit log: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(page)
}

func runAuditPrune(cmd *cobra.Command, args []string) error {
	olderThan, _ := cmd.Flags().GetDuration("older-than")
	if olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive, got %s", olderThan)
	}

	db, err := openAuditDB(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	before := time.Now().Add(-olderThan)

	n, err := db.GetRepo().Prune(cmd.Context(), before)
	if err != nil {
		return fmt.Errorf("prune audit log: %w", err)
	}

	slog.Info("audit log pruned", "deleted", n, "before", before.UTC().Format(time.RFC3339))
	return nil
}
