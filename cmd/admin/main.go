package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"nexus/internal/domain/account"
	"nexus/internal/domain/digest"
	"nexus/internal/domain/metrics"
	"nexus/internal/domain/recurring"
	"nexus/internal/domain/transaction"
	"nexus/internal/infrastructure/postgres"
	"nexus/internal/shared/auth"
	"nexus/internal/shared/config"
)

const usage = `Nexus Admin CLI - Management commands for the Nexus API

Usage:
  admin <command> [options]

Commands:
  migrate           Create or update the database schema and seed default categories
  run-recurring     Materialize due recurring transactions
  overview          Print the founder overview KPIs for a user
  digest            Print the cash summary digest for a user
  sparkline-chart   Render the monthly income and expense series to a PNG file
  issue-token       Issue a bearer token for a user

Examples:
  # Run recurring templates for every user as of today
  admin run-recurring

  # Run recurring templates for two users as of a fixed date
  admin run-recurring --user-id=1,2 --as-of=2026-03-01

  # Show the overview and a 90 day digest
  admin overview --user-id=1
  admin digest --user-id=1 --days=90

  # Chart the last six months
  admin sparkline-chart --user-id=1 --out=overview.png

  # Token for local testing
  admin issue-token --user-id=1 --email=founder@example.com
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage + "\n")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "migrate":
		runMigrate(os.Args[2:])
	case "run-recurring":
		runRecurring(os.Args[2:])
	case "overview":
		runOverview(os.Args[2:])
	case "digest":
		runDigest(os.Args[2:])
	case "sparkline-chart":
		runSparklineChart(os.Args[2:])
	case "issue-token":
		runIssueToken(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage + "\n")
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage + "\n")
		os.Exit(1)
	}
}

func runMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	timeoutStr := fs.String("timeout", "2m", "Timeout for the operation (e.g., 30s, 5m)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	_, db := mustConnect()
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), mustDuration(*timeoutStr))
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Database schema is up to date")
}

func runRecurring(args []string) {
	fs := flag.NewFlagSet("run-recurring", flag.ExitOnError)

	userIDStr := fs.String("user-id", "", "User ID(s) to run (comma-separated). Empty runs every user with due templates")
	asOfStr := fs.String("as-of", "", "Calendar day to run for (YYYY-MM-DD). Defaults to today")
	timeoutStr := fs.String("timeout", "30m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin run-recurring [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, db := mustConnect()
	defer db.Close()

	asOf := mustAsOf(*asOfStr, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), mustDuration(*timeoutStr))
	defer cancel()

	service := newRecurringService(db)
	startTime := time.Now()

	var results map[int64]*recurring.RunResult
	if *userIDStr == "" {
		var err error
		results, err = service.RunDueForAll(ctx, asOf)
		if err != nil {
			log.Fatalf("Recurring run failed: %v", err)
		}
	} else {
		results = make(map[int64]*recurring.RunResult)
		for _, userID := range mustUserIDs(*userIDStr) {
			res, err := service.RunDue(ctx, userID, asOf)
			if err != nil {
				log.Printf("Recurring run failed for user %d: %v", userID, err)
				res = &recurring.RunResult{Failed: 1, Errors: []string{err.Error()}}
			}
			results[userID] = res
		}
	}

	writeRunTable(os.Stdout, results)

	total := recurring.Summarize(results)
	log.Printf("Recurring run as of %s completed in %v: %d processed, %d created, %d failed",
		asOf.Format(time.DateOnly), time.Since(startTime), total.Processed, total.Created, total.Failed)
}

func runOverview(args []string) {
	fs := flag.NewFlagSet("overview", flag.ExitOnError)
	userID := fs.Int64("user-id", 0, "User ID")
	asOfStr := fs.String("as-of", "", "Calendar day to report on (YYYY-MM-DD). Defaults to today")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	requireUserID(fs, *userID)

	cfg, db := mustConnect()
	defer db.Close()

	overview, err := newComposer(db).FounderOverview(context.Background(), *userID, mustAsOf(*asOfStr, cfg))
	if err != nil {
		log.Fatalf("Failed to build overview: %v", err)
	}

	fmt.Printf("Founder overview for user %d as of %s\n\n", *userID, overview.AsOf.Format(time.DateOnly))
	writeOverviewTable(os.Stdout, overview)
	fmt.Println()
	writeMonthsTable(os.Stdout, overview.SparklineMonths)
}

func runDigest(args []string) {
	fs := flag.NewFlagSet("digest", flag.ExitOnError)
	userID := fs.Int64("user-id", 0, "User ID")
	days := fs.Int("days", 30, "Trailing window in days (1-365)")
	asOfStr := fs.String("as-of", "", "Calendar day to report on (YYYY-MM-DD). Defaults to today")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	requireUserID(fs, *userID)
	if *days < 1 || *days > 365 {
		log.Fatalf("--days must be between 1 and 365")
	}

	cfg, db := mustConnect()
	defer db.Close()

	d, err := newComposer(db).CashSummary(context.Background(), *userID, *days, mustAsOf(*asOfStr, cfg))
	if err != nil {
		log.Fatalf("Failed to build digest: %v", err)
	}

	fmt.Printf("Cash summary for user %d, last %d days\n\n", *userID, d.Days)
	writeDigestTable(os.Stdout, d)
}

func runSparklineChart(args []string) {
	fs := flag.NewFlagSet("sparkline-chart", flag.ExitOnError)
	userID := fs.Int64("user-id", 0, "User ID")
	asOfStr := fs.String("as-of", "", "Calendar day to report on (YYYY-MM-DD). Defaults to today")
	out := fs.String("out", "sparkline.png", "Output PNG file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	requireUserID(fs, *userID)

	cfg, db := mustConnect()
	defer db.Close()

	overview, err := newComposer(db).FounderOverview(context.Background(), *userID, mustAsOf(*asOfStr, cfg))
	if err != nil {
		log.Fatalf("Failed to build overview: %v", err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Failed to create chart file: %v", err)
	}
	defer f.Close()

	if err := renderSparklineChart(f, overview); err != nil {
		log.Fatalf("Failed to render chart: %v", err)
	}
	log.Printf("Chart written to %s", *out)
}

func runIssueToken(args []string) {
	fs := flag.NewFlagSet("issue-token", flag.ExitOnError)
	userID := fs.Int64("user-id", 0, "User ID")
	email := fs.String("email", "", "Email claim")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	requireUserID(fs, *userID)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	token, err := auth.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL).Generate(*userID, *email)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}

func mustConnect() (*config.Config, *postgres.DB) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.New(cfg.Database.ConnectionString(), postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")
	return cfg, db
}

func newRecurringService(db *postgres.DB) *recurring.Service {
	accounts := postgres.NewAccountRepository(db)
	transactions := transaction.NewService(postgres.NewTransactionRepository(db), accounts, db)
	return recurring.NewService(postgres.NewRecurringRepository(db), account.NewService(accounts), transactions, db)
}

func newComposer(db *postgres.DB) *digest.Composer {
	return digest.NewComposer(metrics.NewEngine(postgres.NewMetricsSource(db)))
}

func requireUserID(fs *flag.FlagSet, userID int64) {
	if userID <= 0 {
		fmt.Println("Error: --user-id is required")
		fs.Usage()
		os.Exit(1)
	}
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}
	return d
}

func mustAsOf(s string, cfg *config.Config) time.Time {
	if s == "" {
		return cfg.Clock.Today(time.Now())
	}
	asOf, err := time.Parse(time.DateOnly, s)
	if err != nil {
		log.Fatalf("Invalid --as-of %q, expected YYYY-MM-DD", s)
	}
	return asOf
}

func mustUserIDs(s string) []int64 {
	var ids []int64
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			log.Fatalf("Invalid user ID '%s': %v", p, err)
		}
		ids = append(ids, id)
	}
	return ids
}
