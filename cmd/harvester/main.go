package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/harvester/internal/common"
	"github.com/ternarybob/harvester/internal/engine"
	"github.com/ternarybob/harvester/internal/server"
	"github.com/ternarybob/harvester/internal/session"
	"github.com/ternarybob/harvester/internal/snapshot"
)

var (
	configFile   = flag.String("config", "", "Configuration file path")
	configFileC  = flag.String("c", "", "Configuration file path (shorthand)")
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP  = flag.Int("p", 0, "Server port (shorthand, overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("harvester version %s (%s)\n", common.GetVersion(), common.GetBuild())
		os.Exit(0)
	}

	path := *configFile
	if path == "" {
		path = *configFileC
	}
	if path == "" {
		if _, err := os.Stat("harvester.toml"); err == nil {
			path = "harvester.toml"
		}
	}

	// Startup sequence (REQUIRED ORDER): 1. load config, 2. apply CLI
	// overrides, 3. initialize logger, 4. print banner.
	config, err := common.LoadFromFile(path)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Str("path", path).Msg("failed to load configuration")
		os.Exit(1)
	}

	if *serverPortP != 0 {
		config.Server.Port = *serverPortP
	} else if *serverPort != 0 {
		config.Server.Port = *serverPort
	}
	if *serverHost != "" {
		config.Server.Host = *serverHost
	}

	logger := common.SetupLogger(config)
	common.PrintBanner(config, logger)
	defer common.Stop()

	runID := common.NewRunID()
	logger = logger.WithContextWriter(runID)
	logger.Info().Str("run_id", runID).Msg("starting ingestion run")

	if err := os.MkdirAll(config.Output.Dir, 0755); err != nil {
		logger.Fatal().Err(err).Str("dir", config.Output.Dir).Msg("failed to create output directory")
	}

	engineCfg, err := engine.ConfigFromCommon(config.Engine, config.Output.Dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid engine configuration")
	}

	eng := engine.NewEngine(engineCfg, logger)
	eng.SetExportOptions(engine.ExportOptionsFromCommon(config.Export))

	if config.Snapshot.ResetOnStartup {
		if err := os.RemoveAll(config.Snapshot.Path); err != nil {
			logger.Warn().Err(err).Str("path", config.Snapshot.Path).Msg("failed to reset snapshot store on startup")
		}
	}

	store, err := snapshot.Open(config.Snapshot, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open snapshot store")
	}
	defer store.Close()

	hub := server.NewHub(logger)
	hub.SetRunID(runID)
	sess := session.New(eng, store, hub, logger)

	if err := sess.Restore(); err != nil {
		logger.Error().Err(err).Msg("failed to restore snapshot, starting with empty session")
	}

	ctx, cancelEngine := context.WithCancel(context.Background())
	defer cancelEngine()

	common.SafeGo(logger, "engine.Run", func() { eng.Run(ctx) })
	common.SafeGo(logger, "session.PumpEvents", sess.PumpEvents)

	var scheduler *server.Scheduler
	if config.Schedule.Enabled {
		scheduler = server.NewScheduler(sess, logger)
		if err := scheduler.Start(config.Schedule.CronSpec); err != nil {
			logger.Fatal().Err(err).Msg("failed to start archive schedule")
		}
	}

	httpServer := server.New(config, sess, hub, logger)
	common.SafeGo(logger, "server.Start", func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	})

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Msg("harvester ready - press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
	if scheduler != nil {
		scheduler.Stop()
	}

	eng.Stop()
	eng.Close()

	common.PrintShutdownBanner(logger)
}
