package cmd

import (
	"errors"
	"strings"

	"github.com/urfave/cli"
	"github.com/yinxirun/Ray-Tracing-sub001/bvh"
	"github.com/yinxirun/Ray-Tracing-sub001/geometry"
	"github.com/yinxirun/Ray-Tracing-sub001/scene"
	"github.com/yinxirun/Ray-Tracing-sub001/scene/reader"
	"github.com/yinxirun/Ray-Tracing-sub001/scene/writer"
	"github.com/yinxirun/Ray-Tracing-sub001/scheduler"
)

// Compile wavefront scenes into zip archives that load without parsing.
func CompileScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errors.New("missing scene file argument")
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(sceneFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}

		logger.Noticef("parsing and compiling scene: %s", sceneFile)
		sc, err := reader.ReadScene(sceneFile)
		if err != nil {
			return err
		}

		logger.Noticef("scene information:\n%s", sc.Stats())

		zipFile := strings.TrimSuffix(sceneFile, ".obj") + ".zip"
		err = writer.WriteScene(sc, zipFile)
		if err != nil {
			return err
		}
	}

	return nil
}

// Display scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", sc.Stats())
	logger.Noticef("camera: %s", sc.Camera)
	return nil
}

// Load the scene passed as the first argument and build a BVH for it using
// the split method and leaf size selected by the command flags.
func loadScene(ctx *cli.Context, sched *scheduler.Scheduler) (*scene.Scene, *bvh.Accel, error) {
	if ctx.NArg() != 1 {
		return nil, nil, errors.New("missing scene file argument")
	}

	method, err := bvh.ParseSplitMethod(ctx.String("split"))
	if err != nil {
		return nil, nil, err
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return nil, nil, err
	}

	accel := bvh.Build(geometry.FlattenScene(sc), ctx.Int("max-leaf-prims"), method, sched)
	return sc, accel, nil
}
