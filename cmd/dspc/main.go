// dspc compiles a directory tree of dsp templates into JavaScript files.
package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/natefinch/atomic"
	"github.com/spf13/pflag"

	dsp "github.com/Bithero-Agency/ninox.d-dsp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dspc:", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("dspc", pflag.ContinueOnError)
	var (
		outDir     = flags.StringP("out", "o", "", "directory for generated files (default: next to each source)")
		namespace  = flags.String("namespace", "", "root namespace of the generated code")
		watch      = flags.BoolP("watch", "w", false, "stay running and recompile when templates change")
		configPath = flags.StringP("config", "c", "", "config file (default dspc.yaml, if present)")
		verbose    = flags.BoolP("verbose", "v", false, "debug logging")
		runtime    = flags.Bool("runtime", true, "with --out, also write the dsp.js support library there")
	)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dspc [flags] [src-dir]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Compiles every *.dsp file beneath src-dir (default \".\") to JavaScript.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprint(os.Stderr, flags.FlagUsages())
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flags.NArg() > 1 {
		return fmt.Errorf("unexpected argument: %s", flags.Arg(1))
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if flags.Changed("out") {
		cfg.Out = *outDir
	}
	if flags.Changed("namespace") {
		cfg.Namespace = *namespace
	}
	if flags.Changed("watch") {
		cfg.Watch = *watch
	}
	var src = cfg.Src
	if flags.NArg() > 0 {
		src = flags.Arg(0)
	}
	if src == "" {
		src = "."
	}

	var level = slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	dsp.Logger = logger

	var bundle = dsp.NewBundle().
		WatchFiles(cfg.Watch).
		Namespace(cfg.Namespace).
		Ignore(cfg.Ignore...).
		AddTemplateDir(src)
	if cfg.Watch {
		bundle.SetRecompilationCallback(func(build *dsp.Build) {
			if err := writeBuild(build, cfg.Out, *runtime, logger); err != nil {
				logger.Error("write failed", "error", err)
			}
		})
	}

	build, err := bundle.Compile()
	if err != nil {
		return err
	}
	if err := writeBuild(build, cfg.Out, *runtime, logger); err != nil {
		return err
	}

	if !cfg.Watch {
		return nil
	}

	logger.Info("watching for changes", "src", src)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	bundle.Stop()
	return nil
}

// writeBuild writes the generated files, plus the runtime support library
// when compiling into a dedicated output directory.
func writeBuild(build *dsp.Build, outDir string, runtime bool, logger *slog.Logger) error {
	if err := build.Write(outDir); err != nil {
		return err
	}
	if outDir != "" && runtime {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return err
		}
		if err := atomic.WriteFile(filepath.Join(outDir, "dsp.js"), bytes.NewReader(dsp.RuntimeJS)); err != nil {
			return err
		}
	}
	logger.Debug("wrote templates", "count", len(build.Files))
	return nil
}
