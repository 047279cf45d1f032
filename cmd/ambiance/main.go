package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"ambiance/internal/logger"
	"ambiance/internal/util"
	"ambiance/pkg/config"
	"ambiance/pkg/engine"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	logLevel := flag.String("log", "", "Log level override (debug, info, warn, error)")
	console := flag.Bool("console", false, "Read operator commands from the terminal")
	noColor := flag.Bool("no-color", false, "Disable colored log output")
	flag.Parse()

	cfg, cfgErr := config.LoadConfig(*configPath)

	log := newLogger(cfg.Log, *console)
	if *logLevel != "" {
		log.SetLevel(*logLevel)
	}
	if *noColor {
		log.EnableColors(false)
	}
	defer log.Close()

	log.Info("Starting ambiance generator...")
	if !util.FileExists(*configPath) {
		log.Infof("No configuration at %s, using defaults", *configPath)
	} else if cfgErr != nil {
		log.Warnf("Failed to load configuration, using defaults: %v", cfgErr)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := engine.NewEngine(cfg, log, filepath.Dir(*configPath))
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	if *console {
		go runConsole(ctx, stop, eng, log)
	}

	log.Info("Engine initialized, starting playback loop...")
	if err := eng.Run(ctx); err != nil {
		log.Fatalf("Engine stopped: %v", err)
	}
}

// newLogger builds the process logger. With a log file configured, console
// mode writes to the file only so log lines do not break the prompt.
func newLogger(cfg config.LogConfig, console bool) *logger.Logger {
	if cfg.File == "" {
		return logger.NewLogger(cfg.Level)
	}

	var (
		log *logger.Logger
		err error
	)
	if console {
		log, err = logger.NewFileLogger(cfg.Level, cfg.File)
	} else {
		log, err = logger.NewMultiLogger(cfg.Level, cfg.File)
	}
	if err != nil {
		log = logger.NewLogger(cfg.Level)
		log.Warnf("Failed to open log file %s: %v", cfg.File, err)
	}
	return log
}
