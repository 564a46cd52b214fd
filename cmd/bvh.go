package cmd

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"github.com/yinxirun/Ray-Tracing-sub001/bvh"
	"github.com/yinxirun/Ray-Tracing-sub001/scheduler"
)

// Build a BVH for a scene and display scene and tree statistics.
func BuildBVH(ctx *cli.Context) error {
	setupLogging(ctx)

	sched := scheduler.New(ctx.Int("threads"))
	sched.Init()
	defer sched.Shutdown()

	sc, accel, err := loadScene(ctx, sched)
	if err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", sc.Stats())
	displayBVHStats(accel.Stats(), len(accel.GetAllLights()))
	return nil
}

func displayBVHStats(stats bvh.Stats, lights int) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Property", "Value"})
	table.Append([]string{"Split method", stats.Method.String()})
	table.Append([]string{"Primitives", fmt.Sprintf("%d", stats.Primitives)})
	table.Append([]string{"Area lights", fmt.Sprintf("%d", lights)})
	table.Append([]string{"Nodes", fmt.Sprintf("%d", stats.Nodes)})
	table.Append([]string{"Leafs", fmt.Sprintf("%d", stats.Leafs)})
	table.Append([]string{"Max depth", fmt.Sprintf("%d", stats.MaxDepth)})
	table.Append([]string{"Max prims per leaf", fmt.Sprintf("%d / %d", stats.MaxLeafPrims, stats.MaxPrimsLimit)})
	if stats.Method == bvh.HLBVH {
		table.Append([]string{"Treelets", fmt.Sprintf("%d", stats.Treelets)})
	}
	table.SetFooter([]string{"Build time", stats.BuildTime.String()})

	table.Render()
	logger.Noticef("bvh statistics\n%s", buf.String())
}
