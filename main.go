/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/soco/engine"
	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/platform"
	"github.com/spaghettifunk/soco/engine/platform/desktop"
	"github.com/spaghettifunk/soco/engine/renderer/headless"
	"github.com/spaghettifunk/soco/testbed"
)

func main() {
	configPath := flag.String("config", engine.DefaultConfigPath, "engine configuration file")
	headlessRun := flag.Bool("headless", false, "run without a window")
	frames := flag.Int("frames", -1, "stop after this many frames, overrides the configuration")
	flag.Parse()

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		core.LogFatal("%s", err)
	}
	if *headlessRun {
		cfg.Application.Headless = true
	}
	if *frames >= 0 {
		cfg.Application.MaxFrames = *frames
	}

	var window platform.Window
	if cfg.Application.Headless {
		window = platform.NewHeadless(cfg.Application.StartWidth, cfg.Application.StartHeight, 0)
	} else {
		window = desktop.New()
	}

	// TODO: swap in a native D3D12 device once one exists; the headless device records commands only.
	tb := testbed.NewTestGame(&cfg.Application)
	e, err := engine.New(tb.Game, cfg, window, headless.NewDevice())
	if err != nil {
		core.LogFatal("%s", err)
	}

	if err := e.Initialize(); err != nil {
		core.LogFatal("%s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		<-sigCh
		e.Stop()
	}()

	// run engine
	if err := e.Run(); err != nil {
		core.LogError("%s", err)
	}
	if err := e.Shutdown(); err != nil {
		core.LogFatal("%s", err)
	}
}
