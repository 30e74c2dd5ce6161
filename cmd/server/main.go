/*
main.go - Application entry point

PURPOSE:
  The talent command. Starts the tracker's HTTP server and offers the
  operational tasks that do not need it: importing an ATS export,
  resolving a period, and seeding demo data.

COMMANDS:
  serve                 Start the HTTP server (default)
  import <file.xlsx>    Import an ATS export (--preview N to only show rows)
  period                Print the interval a period selection resolves to
  seed <scenario>       Reset the database and load a demo scenario

STARTUP SEQUENCE (serve):
  1. Load configuration (YAML, .env, TALENT_* variables, flags)
  2. Initialize SQLite store
  3. Create service, dashboard builder and API handler
  4. Start the drop-folder importer when import.watch_dir is set
  5. Start server with graceful shutdown

GLOBAL FLAGS:
  --config   YAML config file (default: talent.yaml, optional)
  --env      .env file (default: .env, optional)
  --port     HTTP server port (overrides config)
  --db       SQLite database path (overrides config)
             Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the drop-folder importer
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  talent serve --db=./data/talent.db
  talent import ~/Downloads/vacantes.xlsx --preview 5
  talent period --mode quarter --year 2024 --quarter 2
  talent seed dashboard-demo --db=:memory:

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/talent-tracker/api"
	"github.com/warp/talent-tracker/config"
	"github.com/warp/talent-tracker/dashboard"
	"github.com/warp/talent-tracker/engine"
	"github.com/warp/talent-tracker/importer"
	"github.com/warp/talent-tracker/logging"
	"github.com/warp/talent-tracker/recruiting"
	"github.com/warp/talent-tracker/store/sqlite"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	envPath    string
	portFlag   int
	dbFlag     string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "talent",
	Short: "Talent acquisition tracker",
	Long: `Tracks hires, terminations and requisitions and reports recruiting
metrics over a selectable period: vacancy coverage days, hires by recruiter
and channel, open vacancies against the baseline.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath, envPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = portFlag
		}
		if cmd.Flags().Changed("db") {
			cfg.Database.Path = dbFlag
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import an ATS requisition export",
	Long: `Reads the first sheet of the workbook and reconciles every row by its
ATS system ID. Rows that fail are reported and do not stop the import.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var periodCmd = &cobra.Command{
	Use:   "period",
	Short: "Print the interval a period selection resolves to",
	Args:  cobra.NoArgs,
	RunE:  runPeriod,
}

var seedCmd = &cobra.Command{
	Use:       "seed <scenario>",
	Short:     "Reset the database and load a demo scenario",
	Args:      cobra.ExactArgs(1),
	ValidArgs: scenarioIDs(),
	RunE:      runSeed,
}

var (
	previewRows int
	period      struct {
		mode                       string
		year, quarter, month, week int
		from, to                   string
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "talent.yaml", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", ".env file")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "talent.db", "SQLite database path")

	importCmd.Flags().IntVar(&previewRows, "preview", 0, "Only print the first N rows")

	periodCmd.Flags().StringVar(&period.mode, "mode", string(engine.ModeAllTime), "all, year, quarter, month, week or range")
	periodCmd.Flags().IntVar(&period.year, "year", 0, "Year")
	periodCmd.Flags().IntVar(&period.quarter, "quarter", 0, "Quarter (1-4)")
	periodCmd.Flags().IntVar(&period.month, "month", 0, "Month (1-12)")
	periodCmd.Flags().IntVar(&period.week, "week", 0, "ISO week")
	periodCmd.Flags().StringVar(&period.from, "from", "", "Range start date")
	periodCmd.Flags().StringVar(&period.to, "to", "", "Range end date")

	rootCmd.AddCommand(serveCmd, importCmd, periodCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// =============================================================================
// WIRING
// =============================================================================

type app struct {
	store   *sqlite.Store
	service *recruiting.Service
	board   *dashboard.Builder
}

func newApp() (*app, error) {
	cal, err := engine.NewCalendar(cfg.Timezone, engine.SystemClock{})
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var aliases map[string]string
	if len(cfg.Dashboard.RecruiterAliases) > 0 {
		aliases = cfg.Dashboard.RecruiterAliases
	}
	board := dashboard.NewBuilder(cal, engine.NewRecruiterDirectory(aliases))
	board.VacancyBaseline = cfg.Dashboard.VacancyBaseline
	for full, short := range cfg.Dashboard.CompanyShortNames {
		board.CompanyShortNames[recruiting.NormalizeText(full)] = short
	}

	return &app{
		store:   store,
		service: recruiting.NewService(store, cal, logger),
		board:   board,
	}, nil
}

// =============================================================================
// COMMANDS
// =============================================================================

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.store.Close()

	handler := api.NewHandler(a.service, a.board, logger)
	handler.TopChannels = cfg.Dashboard.TopChannels

	if cfg.Import.WatchDir != "" {
		scheduler := importer.NewScheduler(handler.Importer, cfg.Import.WatchDir, logger)
		scheduler.CheckInterval = cfg.GetImportInterval()
		handler.Scheduler = scheduler
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, cfg.Server.CORSOrigins, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("db", cfg.Database.Path),
			zap.String("timezone", cfg.Timezone))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	sheet, err := importer.Read(f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if previewRows > 0 {
		fmt.Fprintf(out, "%s: %d rows\n", sheet.Name, sheet.Len())
		for i, row := range sheet.Preview(previewRows) {
			fmt.Fprintf(out, "%d.", i+2)
			for _, h := range sheet.Headers {
				if v := row[h]; v != "" {
					fmt.Fprintf(out, " %s=%q", h, v)
				}
			}
			fmt.Fprintln(out)
		}
		return nil
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.store.Close()

	res, err := importer.New(a.service, logger).Import(cmd.Context(), sheet)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "batch %s: %d new, %d updated, %d failed\n", res.BatchID, res.New, res.Updated, res.Failed)
	for _, e := range res.Errors {
		fmt.Fprintf(out, "  row %d: %v\n", e.Row, e.Err)
	}
	return nil
}

func runPeriod(cmd *cobra.Command, args []string) error {
	mode, err := engine.ParseMode(period.mode)
	if err != nil {
		return err
	}
	cal, err := engine.NewCalendar(cfg.Timezone, engine.SystemClock{})
	if err != nil {
		return err
	}

	sel := engine.Selection{
		Mode:    mode,
		Year:    period.year,
		Quarter: period.quarter,
		Month:   period.month,
		Week:    period.week,
	}
	if sel.Year == 0 {
		sel.Year = cal.Today().Year()
	}
	if period.from != "" {
		sel.From, _ = cal.Parse(period.from)
	}
	if period.to != "" {
		sel.To, _ = cal.Parse(period.to)
	}

	p, err := dashboard.Describe(sel)
	if err != nil {
		return err
	}
	if !p.Bounded {
		fmt.Fprintln(cmd.OutOrStdout(), p.Label)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s to %s, %d days)\n", p.Label, p.Start, p.End, engine.DaysBetween(p.Start, p.End)+1)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.store.Close()

	if err := api.SeedScenario(cmd.Context(), a.service, args[0]); err != nil {
		if errors.Is(err, api.ErrUnknownScenario) {
			return fmt.Errorf("%w (available: %s)", err, strings.Join(scenarioIDs(), ", "))
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded scenario %s into %s\n", args[0], cfg.Database.Path)
	return nil
}

func scenarioIDs() []string {
	var ids []string
	for _, s := range api.Scenarios() {
		ids = append(ids, s.ID)
	}
	return ids
}
