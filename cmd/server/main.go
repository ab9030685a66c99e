package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/crewlens/crewlens/internal/dataset"
	"github.com/crewlens/crewlens/internal/ingest"
	"github.com/crewlens/crewlens/internal/registry"
	"github.com/crewlens/crewlens/internal/runtime"
	"github.com/crewlens/crewlens/internal/security"
	"github.com/crewlens/crewlens/internal/store"
	"github.com/crewlens/crewlens/internal/telemetry"
	"github.com/crewlens/crewlens/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		useStdio        bool
		storePath       string
		shutdownTimeout time.Duration
	)

	flag.BoolVar(&useStdio, "stdio", false, "Run server over stdio transport")
	flag.StringVar(&storePath, "store", "", "Path to the dataset row store (default: temp file per run)")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	logger := zlog.With().Str("service", "crewlens-server").Logger()
	ctx := logger.WithContext(context.Background())

	// Security: validate allow-list directories on startup (fail-safe on error)
	secMgr, err := security.NewManagerFromEnv()
	if err != nil {
		logger.Error().Err(err).Msg("security: failed to initialize manager from env")
		fmt.Fprintln(os.Stderr, "invalid security configuration; set CREWLENS_ALLOWED_DIRS")
		os.Exit(1)
	}
	if err := secMgr.ValidateConfig(); err != nil {
		logger.Error().Err(err).Msg("security: invalid allow-list configuration")
		fmt.Fprintln(os.Stderr, "no allowed directories configured; set CREWLENS_ALLOWED_DIRS")
		os.Exit(1)
	}
	logger.Info().Strs("allowed_dirs", secMgr.AllowedDirectories()).Msg("security allow-list configured")

	tel := telemetry.NewHooks(logger)

	limits := runtime.NewLimits(10, 8)
	runtimeController := runtime.NewController(limits)
	runtimeMW := runtime.NewMiddleware(runtimeController, tel)

	if storePath == "" {
		storePath = filepath.Join(os.TempDir(), fmt.Sprintf("crewlens-%d.db", os.Getpid()))
	}
	rowStore, err := store.Open(storePath, limits.RowPageSize)
	if err != nil {
		logger.Error().Err(err).Str("path", storePath).Msg("store: failed to open row store")
		os.Exit(1)
	}
	defer func() { _ = rowStore.Close() }()

	datasetMgr := dataset.NewManager(0, 0, runtimeController, nil)
	datasetMgr.Start()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = datasetMgr.Close(closeCtx)
	}()

	loader := ingest.NewLoader(secMgr, limits.SampleRows, limits.MaxCellsPerOp, logger)

	toolRegistry := registry.New()

	writeFilter := registry.NewWriteToolFilterFromEnv()

	srv := server.NewMCPServer(
		"CrewLens Workforce Analytics Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithRecovery(),
		server.WithHooks(buildHooks(logger, tel)),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
		server.WithToolFilter(func(ctx context.Context, tools []mcp.Tool) []mcp.Tool { return writeFilter.FilterTools(ctx, tools) }),
	)

	registry.RegisterDatasetTools(srv, toolRegistry, runtimeController.LimitsSnapshot(), datasetMgr, loader, rowStore, tel)
	registry.RegisterAnalysisTools(srv, toolRegistry, datasetMgr)

	toolContextSize := toolRegistry.ModelContextSize("gpt-4o")

	logger.Info().
		Ctx(ctx).
		Str("version", version.Version()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_open_datasets", limits.MaxOpenDatasets).
		Int("model_context_size", toolContextSize).
		Str("store", storePath).
		Bool("stdio", useStdio).
		Msg("server bootstrap configured")

	if useStdio {
		tel.OnServerStart()
		defer tel.OnServerStop()
		if err := server.ServeStdio(srv); err != nil {
			// Use stderr for transport errors so clients don't misinterpret output
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// If no transport flags provided, print usage and exit non-zero
	fmt.Fprintln(os.Stderr, "no transport selected; use --stdio to run over stdio")
	os.Exit(2)
}

// buildHooks constructs mcp-go server hooks for basic telemetry.
func buildHooks(logger zerolog.Logger, tel *telemetry.Hooks) *server.Hooks {
	hooks := &server.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		tel.OnSessionStart(session.SessionID())
	})

	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		tel.OnSessionEnd(session.SessionID())
	})

	hooks.AddAfterListTools(func(ctx context.Context, id any, req *mcp.ListToolsRequest, res *mcp.ListToolsResult) {
		// Keep it light: tool count only
		logger.Info().Int("tools", len(res.Tools)).Msg("list_tools served")
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		logger.Error().Str("method", string(method)).Err(err).Msg("request error")
	})

	return hooks
}
