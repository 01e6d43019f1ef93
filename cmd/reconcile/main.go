package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"inventory-reconciler/internal/adapters/cli"
	"inventory-reconciler/internal/adapters/xlsx"
	"inventory-reconciler/internal/app"
	"inventory-reconciler/internal/config"
	"inventory-reconciler/internal/core"
	"inventory-reconciler/internal/db"
	"inventory-reconciler/internal/logging"
	"inventory-reconciler/internal/store/memory"
	"inventory-reconciler/internal/store/postgres"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Process exit codes.
const (
	exitClean      = 0
	exitUnresolved = 1
	exitFatal      = 2
)

// errUnresolved signals a completed apply run that left discrepancies open.
var errUnresolved = errors.New("unresolved discrepancies remain")

// runner holds flag values and the state built in PersistentPreRunE.
type runner struct {
	configPath string
	logger     *zap.Logger
	cfg        *config.Config

	productID    string
	branchID     string
	dryRun       bool
	snapshotPath string
	format       string
	xlsxPath     string
	previewLimit int
}

func newRootCmd(r *runner) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reconcile",
		Short:         "Reconcile parent and IMEI child variant stock",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			var err error
			r.cfg, err = config.Load(r.configPath, r.applyFlags)
			if err != nil {
				return err
			}
			r.logger, err = logging.New(r.cfg.LogLevel, r.cfg.LogFormat)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if r.logger != nil {
				_ = r.logger.Sync()
			}
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Detect discrepancies and, unless --dry-run, apply the safe repairs",
		Long: `Loads the variant ledger for the given scope, detects stock mismatches,
orphaned and dangling children, IMEI defects and misclassified parents, and
plans one action per discrepancy. Quantity, status and kind corrections are
applied automatically; everything else is flagged for manual review.

With --snapshot, repairs are applied to the snapshot file itself.

Exit status is 0 for a clean ledger or a dry run, 1 when discrepancies remain
after applying repairs, and 2 on any fatal error.`,
		Args: cobra.NoArgs,
		RunE: r.run,
	}

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the report",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.WriteSchema(cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().StringVar(&r.configPath, "config", "", "YAML config file")

	runCmd.Flags().StringVar(&r.productID, "product", "", "limit to one product id")
	runCmd.Flags().StringVar(&r.branchID, "branch", "", "limit to one branch id")
	runCmd.Flags().BoolVar(&r.dryRun, "dry-run", false, "report and plan without writing")
	runCmd.Flags().StringVar(&r.snapshotPath, "snapshot", "", "read and repair variants in a JSON snapshot instead of the database")
	runCmd.Flags().StringVar(&r.format, "format", "table", "report format: table or json")
	runCmd.Flags().StringVar(&r.xlsxPath, "xlsx", "", "also write the full result to this workbook")
	runCmd.Flags().IntVar(&r.previewLimit, "preview", 0, "max discrepancies listed in the report (default from config)")

	rootCmd.AddCommand(runCmd, schemaCmd)
	return rootCmd
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(&runner{})
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return exitCode(rootCmd.Execute(), stderr)
}

// exitCode maps the command result onto the process exit status.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return exitClean
	case errors.Is(err, errUnresolved):
		return exitUnresolved
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return exitFatal
	}
}

func (r *runner) run(cmd *cobra.Command, args []string) error {
	if r.format != "table" && r.format != "json" {
		return fmt.Errorf("unknown format %q: expected table or json", r.format)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := app.NewAppService(store, app.Options{
		DefaultStatus: r.cfg.DefaultStatus,
		PreviewLimit:  r.cfg.PreviewLimit,
	}, r.logger)

	result, err := svc.Reconcile(ctx, app.ReconcileRequest{
		Scope:  core.LedgerScope{ProductID: r.productID, BranchID: r.branchID},
		DryRun: r.dryRun,
	})
	if err != nil {
		return err
	}

	// Snapshot repairs only count once they are on disk.
	if snapshot, ok := store.(*memory.Store); ok && !r.dryRun {
		if err := snapshot.SaveFile(r.cfg.SnapshotPath); err != nil {
			return err
		}
		r.logger.Info("snapshot updated", zap.String("path", r.cfg.SnapshotPath))
	}

	out := cmd.OutOrStdout()
	if r.format == "json" {
		if err := cli.WriteJSON(out, result.Report); err != nil {
			return err
		}
	} else {
		cli.PrintReport(out, result.Report)
	}

	if r.xlsxPath != "" {
		if err := xlsx.Export(r.xlsxPath, result); err != nil {
			return err
		}
		r.logger.Info("workbook written", zap.String("path", r.xlsxPath))
	}

	if !r.dryRun && result.Report.Unresolved() > 0 {
		return errUnresolved
	}
	return nil
}

func (r *runner) applyFlags(c *config.Config) {
	if r.snapshotPath != "" {
		c.SnapshotPath = r.snapshotPath
	}
	if r.previewLimit > 0 {
		c.PreviewLimit = r.previewLimit
	}
}

// openStore picks the offline snapshot when one is configured, otherwise the database.
func (r *runner) openStore(ctx context.Context) (app.Store, func(), error) {
	if r.cfg.SnapshotPath != "" {
		store, err := memory.LoadFile(r.cfg.SnapshotPath)
		if err != nil {
			return nil, nil, err
		}
		r.logger.Info("using snapshot", zap.String("path", r.cfg.SnapshotPath))
		return store, func() {}, nil
	}

	pool, err := db.NewPool(ctx, r.cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewVariantStore(pool, r.cfg.VariantsTable), pool.Close, nil
}
