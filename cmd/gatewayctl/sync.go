package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	app "github.com/dealbridge/gateway/internal/application/integration"
	"github.com/dealbridge/gateway/internal/bootstrap"
	"github.com/dealbridge/gateway/internal/domain/integration"
	"github.com/dealbridge/gateway/internal/infrastructure/logger"
	"github.com/dealbridge/gateway/internal/interfaces/http/dto"
)

var (
	syncDryRun bool

	issueJQL      string
	issueValue    string
	issueCurrency string

	dealProject   string
	dealIssueType string
	dealPriority  string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconciliation pass",
	Long:  `Run one reconciliation pass and print the report as JSON on stdout. The command fails when any record could not be created.`,
}

var syncJiraToPipedriveCmd = &cobra.Command{
	Use:   "jira-to-pipedrive",
	Short: "Create a deal for every matching issue that has none",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := app.IssueToDealRequest{
			JQL:      issueJQL,
			Currency: issueCurrency,
			DryRun:   syncDryRun,
		}
		if issueValue != "" {
			value, err := decimal.NewFromString(issueValue)
			if err != nil {
				return fmt.Errorf("invalid --value %q: %w", issueValue, err)
			}
			if value.IsNegative() {
				return errors.New("--value cannot be negative")
			}
			req.DefaultValue = &value
		}

		return runSync(cmd.Context(), func(ctx context.Context, svc *app.SyncService) (any, []integration.SyncFailure, error) {
			report, err := svc.SyncIssuesToDeals(ctx, req)
			if report == nil {
				return nil, nil, err
			}
			return dto.NewIssueToDealSyncResponse(report), report.Failed, err
		})
	},
}

var syncPipedriveToJiraCmd = &cobra.Command{
	Use:   "pipedrive-to-jira",
	Short: "Create an issue for every deal that has none",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := app.DealToIssueRequest{
			ProjectKey: dealProject,
			IssueType:  dealIssueType,
			Priority:   dealPriority,
			DryRun:     syncDryRun,
		}
		return runSync(cmd.Context(), func(ctx context.Context, svc *app.SyncService) (any, []integration.SyncFailure, error) {
			report, err := svc.SyncDealsToIssues(ctx, req)
			if report == nil {
				return nil, nil, err
			}
			return dto.NewDealToIssueSyncResponse(report), report.Failed, err
		})
	},
}

type syncPass func(ctx context.Context, svc *app.SyncService) (report any, failed []integration.SyncFailure, err error)

// runSync wires the service, runs one pass and prints its report.
// Ctrl-C stops the pass after the record in flight; the partial report is still printed.
func runSync(parent context.Context, pass syncPass) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	adapters, err := bootstrap.NewAdapters(cfg)
	if err != nil {
		if errors.Is(err, integration.ErrNotConfigured) {
			return fmt.Errorf("%w\nRun 'gatewayctl config init' to set up credentials", err)
		}
		return err
	}
	defaults, err := bootstrap.SyncDefaults(cfg)
	if err != nil {
		return err
	}
	svc := app.NewSyncService(adapters.Jira, adapters.Pipedrive, defaults, nil, log)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, failed, passErr := pass(ctx, svc)
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	if passErr != nil {
		return passErr
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d record(s) could not be created", len(failed))
	}
	return nil
}

func init() {
	syncCmd.PersistentFlags().BoolVar(&syncDryRun, "dry-run", false, "compute what would be created without creating anything")

	syncJiraToPipedriveCmd.Flags().StringVar(&issueJQL, "jql", "", "issue query (default from sync.jql)")
	syncJiraToPipedriveCmd.Flags().StringVar(&issueValue, "value", "", "value of created deals (default from sync.default_value)")
	syncJiraToPipedriveCmd.Flags().StringVar(&issueCurrency, "currency", "", "currency of created deals (default from pipedrive.default_currency)")

	syncPipedriveToJiraCmd.Flags().StringVar(&dealProject, "project", "", "project of created issues (default from jira.default_project_key)")
	syncPipedriveToJiraCmd.Flags().StringVar(&dealIssueType, "issue-type", "", "issue type of created issues")
	syncPipedriveToJiraCmd.Flags().StringVar(&dealPriority, "priority", "", "priority of created issues")

	syncCmd.AddCommand(syncJiraToPipedriveCmd, syncPipedriveToJiraCmd)
	rootCmd.AddCommand(syncCmd)
}
