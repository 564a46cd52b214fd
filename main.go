package main

import (
	"os"

	"github.com/urfave/cli"
	"github.com/yinxirun/Ray-Tracing-sub001/cmd"
	"github.com/yinxirun/Ray-Tracing-sub001/log"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	bvhFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "split",
			Value: "sah",
			Usage: "bvh split method: sah, middle, equal or hlbvh",
		},
		cli.IntFlag{
			Name:  "max-leaf-prims",
			Value: 4,
			Usage: "max number of primitives per bvh leaf (1-255)",
		},
		cli.IntFlag{
			Name:  "threads",
			Value: 0,
			Usage: "number of worker threads; 0 uses all available CPUs",
		},
	}

	app := cli.NewApp()
	app.Name = "raytrace"
	app.Usage = "render wavefront scenes using CPU path tracing"
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
			Usage: "render a single frame",
			Description: `
Load a scene, build a BVH over its triangles and path trace a single frame.

The final image is written as final.png and final.exr to the output folder
together with normal, position and triangle id visualizations.`,
			ArgsUsage: "scene_file.obj|scene_file.zip",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height",
				},
				cli.Float64Flag{
					Name:  "fov",
					Value: 0,
					Usage: "vertical field of view in degrees; 0 keeps the scene camera fov",
				},
				cli.IntFlag{
					Name:  "spp",
					Value: 16,
					Usage: "samples per pixel",
				},
				cli.Float64Flag{
					Name:  "rr",
					Value: 0.8,
					Usage: "russian roulette continuation probability",
				},
				cli.IntFlag{
					Name:  "max-depth",
					Value: 16,
					Usage: "max path depth",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "random seed",
				},
				cli.Float64Flag{
					Name:  "exposure",
					Value: 1.0,
					Usage: "camera exposure for tone-mapping",
				},
				cli.BoolFlag{
					Name:  "denoise",
					Usage: "run the edge-aware denoiser on the final frame",
				},
				cli.Float64Flag{
					Name:  "denoise-k",
					Value: 2.0,
					Usage: "outlier clamp width in standard deviations",
				},
				cli.BoolFlag{
					Name:  "no-checkpoints",
					Usage: "skip the intermediate frames written after 1, 2, 4, 8... samples",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: ".",
					Usage: "output folder for rendered images",
				},
				cli.IntFlag{
					Name:  "preview-width",
					Value: 0,
					Usage: "also write a downscaled preview.png with this width",
				},
			}, bvhFlags...),
			Action: cmd.RenderFrame,
		},
		{
			Name:        "bvh",
			Usage:       "build a BVH and display its statistics",
			Description: `Load a scene, build a BVH over its triangles and print scene and tree statistics.`,
			ArgsUsage:   "scene_file.obj|scene_file.zip",
			Flags:       bvhFlags,
			Action:      cmd.BuildBVH,
		},
		{
			Name:  "compile",
			Usage: "compile wavefront scenes into a binary compressed format",
			Description: `
Parse a scene definition from a wavefront obj file and write the resulting
vertices, faces, materials and camera to a zip archive which can be supplied
as an argument to the render and bvh commands.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Action:    cmd.CompileScene,
		},
		{
			Name:      "info",
			Usage:     "display scene statistics",
			ArgsUsage: "scene_file.obj|scene_file.zip",
			Action:    cmd.ShowSceneInfo,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.New("raytrace").Error(err)
		os.Exit(1)
	}
}
