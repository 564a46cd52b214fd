package cmd

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"github.com/yinxirun/Ray-Tracing-sub001/renderer"
	"github.com/yinxirun/Ray-Tracing-sub001/scheduler"
)

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	opts := renderer.DefaultOptions()
	opts.SamplesPerPixel = uint32(ctx.Int("spp"))
	opts.RussianRoulette = float32(ctx.Float64("rr"))
	opts.MaxDepth = uint32(ctx.Int("max-depth"))
	opts.Threads = uint32(ctx.Int("threads"))
	opts.Seed = ctx.Int64("seed")
	opts.Exposure = float32(ctx.Float64("exposure"))
	opts.Denoise = ctx.Bool("denoise")
	opts.DenoiseK = float32(ctx.Float64("denoise-k"))
	opts.Checkpoints = !ctx.Bool("no-checkpoints")
	opts.OutputDir = ctx.String("out")
	opts.PreviewWidth = uint32(ctx.Int("preview-width"))
	if err := opts.Validate(); err != nil {
		return err
	}

	sched := scheduler.New(ctx.Int("threads"))
	sched.Init()
	defer sched.Shutdown()

	sc, accel, err := loadScene(ctx, sched)
	if err != nil {
		return err
	}

	// Command line settings override the scene camera
	sc.Camera.Width = uint32(ctx.Int("width"))
	sc.Camera.Height = uint32(ctx.Int("height"))
	if fov := ctx.Float64("fov"); fov > 0 {
		sc.Camera.FOV = float32(fov)
	}
	logger.Infof("camera: %s", sc.Camera)

	r, err := renderer.NewDefault(accel, sc.Camera, sched, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	if err = r.Render(); err != nil {
		return err
	}

	displayFrameStats(r.Stats())
	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Phase", "Time", "% of frame"})
	for _, phase := range stats.Phases {
		percent := 0.0
		if stats.RenderTime > 0 {
			percent = 100 * float64(phase.Time) / float64(stats.RenderTime)
		}
		table.Append([]string{
			phase.Name,
			phase.Time.String(),
			fmt.Sprintf("%02.1f %%", percent),
		})
	}
	table.SetFooter([]string{
		fmt.Sprintf("%dx%d @ %d spp", stats.FrameW, stats.FrameH, stats.SamplesPerPixel),
		stats.RenderTime.String(),
		"TOTAL",
	})

	table.Render()
	logger.Noticef(
		"frame statistics (%d sampling tasks, %d covered pixels, %d checkpoints)\n%s",
		stats.Threads, stats.CoveredPixels, stats.Checkpoints, buf.String(),
	)
}
