package cmd

import (
	"github.com/urfave/cli"
	"github.com/yinxirun/Ray-Tracing-sub001/log"
)

var logger = log.New("raytrace")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
