package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/harvester/internal/common"
	"github.com/ternarybob/harvester/internal/engine"
	harvesterserver "github.com/ternarybob/harvester/internal/server"
	"github.com/ternarybob/harvester/internal/session"
	"github.com/ternarybob/harvester/internal/snapshot"
)

func main() {
	configPath := os.Getenv("HARVESTER_CONFIG")
	if configPath == "" {
		configPath = "harvester.toml"
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Console-only, warn-level logger: stdout is the MCP stdio transport,
	// so noisy logging there would corrupt the protocol stream.
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	engineCfg, err := engine.ConfigFromCommon(config.Engine, config.Output.Dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid engine configuration")
	}
	if err := os.MkdirAll(config.Output.Dir, 0755); err != nil {
		logger.Fatal().Err(err).Msg("failed to create output directory")
	}

	eng := engine.NewEngine(engineCfg, logger)
	eng.SetExportOptions(engine.ExportOptionsFromCommon(config.Export))

	store, err := snapshot.Open(config.Snapshot, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open snapshot store")
	}
	defer store.Close()

	// The MCP server has no WebSocket clients; a Hub with no connections
	// turns every broadcast from the Session into a no-op.
	hub := harvesterserver.NewHub(logger)
	sess := session.New(eng, store, hub, logger)
	if err := sess.Restore(); err != nil {
		logger.Error().Err(err).Msg("failed to restore snapshot")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)
	go sess.PumpEvents()

	mcpServer := server.NewMCPServer(
		"harvester",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createSubmitURLsTool(), handleSubmitURLs(sess, logger))
	mcpServer.AddTool(createGetStatusTool(), handleGetStatus(sess, logger))
	mcpServer.AddTool(createExportTool(), handleExport(sess, logger))

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
