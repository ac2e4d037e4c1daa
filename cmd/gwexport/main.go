// gwexport converts scene snapshots into runtime resource files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/gwexport/internal/config"
	"github.com/Faultbox/gwexport/internal/export"
	"github.com/Faultbox/gwexport/internal/logger"
	"github.com/Faultbox/gwexport/internal/scene"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run":
		cmdRun(args)
	case config.JobModel, config.JobCollision, config.JobTexture, config.JobMotion:
		cmdSingle(command, args)
	case "inspect", "dump":
		cmdInspect(args)
	case "init-config":
		cmdInitConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`gwexport - scene resource exporter

Usage:
  gwexport <command> [options]

Commands:
  run [-config file]                     Export every job of the config file
  model [options] <input> [out_dir]      Export a model (.gwmdl)
  collision [options] <input> [out_dir]  Export a collision mesh (.gwcls)
  texture [options] <image> [out_dir]    Export a float RGBA texture (.dds)
  motion [-columns] <input> [out_dir]    Export sampled motion tracks (.txt)
  inspect [-depth n] <input>             Dump the loaded snapshot
  init-config [path]                     Write the effective config (default: user config dir)

Inputs are YAML snapshots (.yaml, .yml), glTF scenes (.gltf, .glb) or images.

Common options:
  -config <file>    Config file (.yaml or .toml)
  -out <dir>        Output directory
  -catalog <name>   Catalog file name
  -encoding <name>  Charset of resource names (utf-8, euc-kr, Windows 1252, ...)
  -debug            Enable debug logging

Examples:
  gwexport run -config gwexport.yaml
  gwexport model -node body scenes/hero.gltf ./res
  gwexport texture textures/stone.png
  gwexport motion -columns anim/walk.yaml`)
}

// setup loads the config with the parsed flags and initializes logging.
func setup(flags *config.Flags) *config.Config {
	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded",
		zap.String("out", cfg.Export.OutDir),
		zap.String("encoding", cfg.Export.Encoding),
		zap.Int("jobs", len(cfg.Jobs)))
	return cfg
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var flags config.Flags
	flags.Bind(fs)
	fs.Parse(args)

	cfg := setup(&flags)
	defer logger.Sync()

	if len(cfg.Jobs) == 0 {
		fmt.Fprintln(os.Stderr, "No jobs configured")
		os.Exit(1)
	}

	runner, err := export.NewRunner(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sum, err := runner.Run(ctx)
	if err != nil {
		logger.Error("batch stopped", zap.String("run", sum.RunID), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, f := range sum.Written {
		fmt.Println(f)
	}
	if sum.Catalog != "" {
		fmt.Printf("Catalog: %s\n", sum.Catalog)
	}
	fmt.Fprintf(os.Stderr, "\n(%d written, %d skipped)\n", len(sum.Written), sum.Skipped)

	if sum.Err != nil {
		for _, e := range multierr.Errors(sum.Err) {
			logger.Warn("resource failed", zap.String("run", sum.RunID), zap.Error(e))
			fmt.Fprintf(os.Stderr, "  %v\n", e)
		}
		os.Exit(2)
	}
}

func cmdSingle(kind string, args []string) {
	fs := flag.NewFlagSet(kind, flag.ExitOnError)
	var flags config.Flags
	flags.Bind(fs)
	node := fs.String("node", "", "glTF node to export")
	name := fs.String("name", "", "Output base name")
	skelRoot := fs.String("skeleton-root", "", "Joint the skeleton starts from")
	columns := fs.Bool("columns", false, "Write motion tracks as columns")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: gwexport %s [options] <input> [out_dir]\n", kind)
		os.Exit(1)
	}
	if fs.NArg() > 1 {
		flags.OutDir = fs.Arg(1)
	}

	cfg := setup(&flags)
	defer logger.Sync()

	if *skelRoot != "" {
		cfg.Export.SkeletonRoot = *skelRoot
	}
	if *columns {
		cfg.Export.MotionLayout = config.MotionColumns
	}

	runner, err := export.NewRunner(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	path, err := runner.Export(config.Job{Kind: kind, Input: fs.Arg(0), Name: *name, Node: *node})
	if err != nil {
		logger.Error("export failed", zap.String("kind", kind), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("export done", zap.String("file", path))
	fmt.Printf("Exported: %s\n", path)
}

func cmdInitConfig(args []string) {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	var flags config.Flags
	flags.Bind(fs)
	fs.Parse(args)

	cfg := setup(&flags)
	defer logger.Sync()

	var err error
	path := filepath.Join(config.ConfigDir(), "config.yaml")
	if fs.NArg() > 0 {
		path = fs.Arg(0)
		err = cfg.SaveTo(path)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config written: %s\n", path)
}

func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	depth := fs.Int("depth", 4, "Maximum nesting depth (0 = unlimited)")
	node := fs.String("node", "", "glTF node to load")
	skelRoot := fs.String("skeleton-root", "", "Joint the skeleton starts from")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: gwexport inspect [-depth n] <input>")
		os.Exit(1)
	}

	doc, err := scene.Load(fs.Arg(0), scene.Options{SkeletonRoot: *skelRoot, Node: *node})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := spew.ConfigState{Indent: "  ", MaxDepth: *depth, DisablePointerAddresses: true, SortKeys: true}
	cfg.Dump(doc)
}
