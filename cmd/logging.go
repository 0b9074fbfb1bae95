package cmd

import (
	"os"

	"github.com/urfave/cli"

	"github.com/df07/go-bidirectional-tracer/pkg/log"
)

var logger = log.New("bidir")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

// Fatal logs err and exits with a non-zero status
func Fatal(err error) {
	logger.Error(err)
	os.Exit(1)
}
