package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-registry-api/internal/migrations"
	"github.com/noah-isme/sma-registry-api/pkg/config"
	"github.com/noah-isme/sma-registry-api/pkg/database"
	"github.com/noah-isme/sma-registry-api/pkg/logger"
)

const usage = `usage: migrate <command>

commands:
  up          apply every pending migration
  down [n]    roll back the newest n migrations (default 1)
  status      list migrations and whether they are applied
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	migrator, err := migrations.New(db, logr)
	if err != nil {
		logr.Fatal("failed to load migrations", zap.Error(err))
	}

	switch cmd := flag.Arg(0); cmd {
	case "up":
		count, err := migrator.Up(ctx)
		if err != nil {
			logr.Fatal("migrate up failed", zap.Int("applied", count), zap.Error(err))
		}
		logr.Info("migrate up complete", zap.Int("applied", count))
	case "down":
		steps := 1
		if raw := flag.Arg(1); raw != "" {
			if steps, err = strconv.Atoi(raw); err != nil {
				logr.Fatal("invalid step count", zap.String("value", raw))
			}
		}
		count, err := migrator.Down(ctx, steps)
		if errors.Is(err, migrations.ErrNothingToRollback) {
			logr.Info("nothing to roll back")
			return
		}
		if err != nil {
			logr.Fatal("migrate down failed", zap.Int("rolled_back", count), zap.Error(err))
		}
		logr.Info("migrate down complete", zap.Int("rolled_back", count))
	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			logr.Fatal("migrate status failed", zap.Error(err))
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
		for _, st := range statuses {
			applied := "pending"
			if st.AppliedAt != nil {
				applied = st.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%06d\t%s\t%s\n", st.Version, st.Name, applied)
		}
		_ = w.Flush()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
}
