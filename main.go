package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"

	"nesav/emu"
)

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case versionMode:
		printVersion()
		return
	case infoMode:
		tr, err := readTrace(cli.Info.TracePath)
		checkf(err, "failed to read trace")
		checkf(printInfos(os.Stdout, tr), "failed to print trace infos")
		return
	}

	cfg := loadConfig(cli.Config)
	tr, err := readTrace(tracePath(cli))
	checkf(err, "failed to read trace")

	switch cli.mode {
	case renderMode:
		checkf(render(os.Stdout, tr, cli.Render, cfg), "render failed")
	case playMode:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		checkf(play(ctx, tr, cfg), "play failed")
	}
}

func tracePath(cli CLI) string {
	if cli.mode == playMode {
		return cli.Play.TracePath
	}
	return cli.Render.TracePath
}

func loadConfig(path string) emu.Config {
	if path == "" {
		return emu.LoadConfigOrDefault()
	}
	cfg, err := emu.LoadConfig(path)
	checkf(err, "failed to load config")
	return cfg
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("nesav", version)
}
