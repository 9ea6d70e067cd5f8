package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m04kA/SMC-TableBookingService/internal/app"
	"github.com/m04kA/SMC-TableBookingService/internal/cli"
	"github.com/m04kA/SMC-TableBookingService/internal/config"
	"github.com/m04kA/SMC-TableBookingService/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.toml", "path to the TOML config")
	flag.Usage = func() {
		cli.PrintUsage(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return cli.ExitUsage
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return cli.ExitInternal
	}
	defer log.Close()

	log.Info("Starting table booking, config=%s", *configPath)

	// Ctrl+C прерывает интерактивный выбор и расписание сверки
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize: %v", err)
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		return cli.ExitInternal
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("Failed to close resources: %v", err)
		}
	}()

	// Сбор статистики connection pool
	if a.Metrics != nil && cfg.Metrics.PoolStatsPeriod > 0 {
		go a.DB.CollectPoolStats(ctx, time.Duration(cfg.Metrics.PoolStatsPeriod)*time.Second)
	}

	c := cli.New(a, os.Stdin, os.Stdout)
	err = c.Run(ctx, flag.Args())
	_ = c.Close()

	if werr := a.WriteMetrics(); werr != nil {
		log.Error("Failed to write metrics to %s: %v", cfg.Metrics.TextfilePath, werr)
	}

	if err != nil {
		log.Error("Command %v failed: %v", flag.Args(), err)
		fmt.Fprintln(os.Stderr, cli.Message(err))
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}
