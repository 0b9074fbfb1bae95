package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/urfave/cli"

	"github.com/df07/go-bidirectional-tracer/pkg/log"
	"github.com/df07/go-bidirectional-tracer/web/server"
)

// ServeScenes runs the progressive preview server until interrupted.
func ServeScenes(ctx *cli.Context) error {
	setupLogging(ctx)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := server.NewServer(ctx.Int("port"), BuiltinScenes(), LoadScene, log.AsCoreLogger(logger))
	logger.Noticef("visit http://localhost:%d/api/render?scene=cornell to start rendering", ctx.Int("port"))
	return s.Start(runCtx)
}
