package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"

	"github.com/jimmer89/bloop-tracker/src/database"
	"github.com/jimmer89/bloop-tracker/src/notify"
	"github.com/jimmer89/bloop-tracker/src/pnl"
	"github.com/jimmer89/bloop-tracker/src/repository"
	"github.com/jimmer89/bloop-tracker/src/server"
	"github.com/jimmer89/bloop-tracker/src/spread"
	"github.com/jimmer89/bloop-tracker/src/stream"
	"github.com/jimmer89/bloop-tracker/src/tracker"
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	SetupLogger()
	defer handlePanic()

	if err := database.Init(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	spreads := spread.NewConfig()
	calc := pnl.NewCalculator(spreads)
	trk := tracker.New(
		repository.NewSignalRepository(),
		repository.NewPositionRepository(),
		calc,
	)

	config := server.GetConfig()
	server.StartServer(config.Port, server.Dependencies{
		Tracker:  trk,
		Spreads:  spreads,
		Hub:      stream.NewHub(),
		Notifier: notify.New(notify.GetConfig()),
	})
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error("Application bloop-tracker panic")
	}
	//nolint
	time.Sleep(time.Second * 5)
}
