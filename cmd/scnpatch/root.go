package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/scnpatch/internal/config"
	"github.com/JonMunkholm/scnpatch/internal/core"
	"github.com/JonMunkholm/scnpatch/internal/logging"
	"github.com/JonMunkholm/scnpatch/internal/scene"
)

// app holds state shared by the subcommands of one invocation.
type app struct {
	verbosity int
	maxSize   int64
	logger    *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{maxSize: defaultMaxSize()}

	root := &cobra.Command{
		Use:   "scnpatch",
		Short: "Inspect the routing of X32 scene files",
		Long: `scnpatch reads a console scene export (.scn) and prints its input and
output patching, the raw parsed model, or the resolution of a single route.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.logger = logging.New(cmd.ErrOrStderr(), verbosityLevel(a.verbosity), "text")
			a.logger.Debug("command started", "command", cmd.Name())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG)")
	root.PersistentFlags().Int64Var(&a.maxSize, "max-size", a.maxSize, "Largest scene file to read, in bytes")

	root.AddCommand(
		newInputsCmd(a),
		newOutputsCmd(a),
		newDumpCmd(a),
		newRouteCmd(a),
	)
	return root
}

// defaultMaxSize follows UPLOAD_MAX_SCENE_SIZE so the CLI accepts the same
// files as the server.
func defaultMaxSize() int64 {
	cfg, err := config.LoadFrom(os.LookupEnv)
	if err != nil {
		return 5 << 20
	}
	return cfg.Upload.MaxSceneSize
}

func verbosityLevel(v int) string {
	switch {
	case v >= 2:
		return "debug"
	case v == 1:
		return "info"
	}
	return "warn"
}

// loadScene parses the scene at path.
func (a *app) loadScene(ctx context.Context, path string) (*scene.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	body, counter := core.WrapForStreaming(f, a.maxSize)
	sc, err := scene.ParseContext(ctx, body, scene.WithLogger(a.logger.With("file", path)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if counter.BytesRead() == 0 {
		return nil, fmt.Errorf("%s: %w", path, core.ErrEmptyScene)
	}

	stats := sc.Stats()
	a.logger.Info("scene parsed",
		"file", path,
		"bytes", counter.BytesRead(),
		"routes", sc.RouteCount(),
		"channels", stats.Channels,
		"outputs", stats.Outputs,
		"ignored", stats.Ignored,
	)
	return sc, nil
}
