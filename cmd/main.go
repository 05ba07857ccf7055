package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/jimmer89/bloop-tracker/src/database"
	"github.com/jimmer89/bloop-tracker/src/notify"
	"github.com/jimmer89/bloop-tracker/src/pnl"
	"github.com/jimmer89/bloop-tracker/src/repository"
	"github.com/jimmer89/bloop-tracker/src/server"
	"github.com/jimmer89/bloop-tracker/src/spread"
	"github.com/jimmer89/bloop-tracker/src/stream"
	"github.com/jimmer89/bloop-tracker/src/tracker"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "bloop-tracker CMD"
	app.Usage = "The bloop-tracker command line interface"

	app.Commands = []cli.Command{
		serveCMD,
		recalculateCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the webhook server",
		Action:      serveAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the signal webhook server`,
	}
	recalculateCMD = cli.Command{
		Name:        "recalculate",
		Usage:       "reprice the trade ledger",
		Action:      recalculateAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Reapply the baseline spread config to every closed trade`,
	}
)

func serveAction(_ *cli.Context) error {
	_ = godotenv.Load()

	logrus.Info("Starting webhook server CMD")

	if err := database.Init(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	spreads := spread.NewConfig()
	trk := tracker.New(
		repository.NewSignalRepository(),
		repository.NewPositionRepository(),
		pnl.NewCalculator(spreads),
	)

	config := server.GetConfig()
	server.StartServer(config.Port, server.Dependencies{
		Tracker:  trk,
		Spreads:  spreads,
		Hub:      stream.NewHub(),
		Notifier: notify.New(notify.GetConfig()),
	})

	return nil
}

// recalculateAction reprices the whole ledger with the baseline spread table.
// Spread mutations made through the admin endpoint do not survive restarts,
// so the CLI always sees the defaults.
func recalculateAction(_ *cli.Context) error {
	_ = godotenv.Load()

	logrus.Info("Starting recalculate CMD")

	if err := database.Init(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	recalc := pnl.NewRecalculator(repository.NewTradeRepository(), spread.NewConfig())

	updated, err := recalc.RecalculateAll(context.Background())
	if err != nil {
		logrus.WithError(err).Error("Recalculation failed")
		return err
	}

	fmt.Printf("updated %d trades\n", updated)
	return nil
}
