// Package main provides the entry point for the Panel Cropper application.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"panel-cropper/internal/app"
	"panel-cropper/internal/config"
	"panel-cropper/internal/detect"
	"panel-cropper/internal/version"
	"panel-cropper/ui/mainwindow"
	"panel-cropper/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/adrg/xdg"
)

const appID = "io.github.panelcropper"

func main() {
	configPath := flag.String("config", "", "settings file (default: XDG config dir)")
	outDir := flag.String("out", "", "output folder for exported panels")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("panel-cropper", version.String())
		return
	}

	path := *configPath
	if path == "" {
		p, err := xdg.ConfigFile("panel-cropper/config.yaml")
		if err != nil {
			fmt.Fprintf(os.Stderr, "config path: %v\n", err)
			os.Exit(1)
		}
		path = p
	}

	cfg, cfgErr := config.Load(path)
	level, _ := config.ParseLevel(cfg.LogLevel)
	var logLevel slog.LevelVar
	logLevel.Set(level)
	logger := app.NewLogger(&logLevel)
	logger.Info("starting", "version", version.String(), "config", path)
	if cfgErr != nil {
		logger.Warn("using default settings", "error", cfgErr)
	}
	if *outDir != "" {
		cfg.Export.Dir = *outDir
	}

	state := app.NewState(cfg, detect.New(logger), logger)
	defer state.Close()

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.CropperTheme{})

	win := mainwindow.New(fyneApp, state, prefs.Load(), cfg, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := config.Watch(ctx, path, logger, func(cfg config.Config) {
		if lvl, err := config.ParseLevel(cfg.LogLevel); err == nil {
			logLevel.Set(lvl)
		}
		win.ApplyConfig(cfg)
	})
	if err != nil {
		logger.Warn("settings file will not be watched", "error", err)
	}

	if args := flag.Args(); len(args) > 0 {
		win.OpenPaths(args)
	}

	win.ShowAndRun()
}
