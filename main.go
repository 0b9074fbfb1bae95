package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/df07/go-bidirectional-tracer/cmd"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "go-bidirectional-tracer"
	app.Usage = "render scenes using bidirectional path tracing"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a scene until a quit condition is met",
			Description: `
Accumulate one sample per pixel per pass with bidirectional path tracing,
weighted by the balance heuristic (bpt) or the power heuristic with
exponent --beta (mbpt). Rendering stops after
--num-samples passes or --num-seconds seconds, whichever comes first.

The scene argument is a built-in scene name (cornell, lit-plane) or a JSON
scene file. The result is written as <scene>.<width>.<height>.<samples>.<technique>.pfm
plus a tone-mapped png.`,
			ArgsUsage: "scene",
			Flags:     cmd.RenderFlags,
			Action:    cmd.RenderScene,
		},
		{
			Name:      "info",
			Usage:     "print the meshes, lights and cameras of a scene",
			ArgsUsage: "scene",
			Action:    cmd.SceneInfo,
		},
		{
			Name:  "serve",
			Usage: "stream progressive renders over server-sent events",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "port",
					Value: 8080,
					Usage: "port to serve on",
				},
			},
			Action: cmd.ServeScenes,
		},
	}

	if err := app.Run(os.Args); err != nil {
		cmd.Fatal(err)
	}
}
