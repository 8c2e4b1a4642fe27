package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/calligraphy-grader/internal/config"
	"github.com/ironsheep/calligraphy-grader/internal/grader"
	"github.com/ironsheep/calligraphy-grader/internal/ocr"
	"github.com/ironsheep/calligraphy-grader/internal/server"
	"github.com/ironsheep/calligraphy-grader/internal/templates"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("calligraphy-grader - grade handwritten Chinese characters on practice worksheets")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  calligraphy-grader grade <image>       Grade one worksheet, print a JSON report")
	fmt.Println("  calligraphy-grader grade-dir <dir>     Grade every image in a directory")
	fmt.Println("  calligraphy-grader serve               Run the MCP server on stdin/stdout")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env):")
	fmt.Println("  GRADER_LOG_LEVEL=debug           Enable debug logging")
	fmt.Println("  GRADER_TEMPLATE_DIR=<dir>        Template images and fonts (default data/templates)")
	fmt.Println("  GRADER_TEMPLATE_FONT=<file.ttf>  Font used when no template image exists")
	fmt.Println("  GRADER_REDIS_URL=<url>           Share template features through Redis")
	fmt.Println("  GRADER_FILTER_PRINTED=false      Keep printed reference characters")
	fmt.Println("  GRADER_PERSPECTIVE_CORRECT=true  Flatten photographed sheets first")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("calligraphy-grader %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		usage()
		return
	}

	// stdout carries reports and the MCP protocol
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:]); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, command string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	debug := log.New(io.Discard, "", 0)
	if cfg.Debug() {
		debug = log.Default()
		log.Printf("Calligraphy grader v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	engine, err := ocr.NewEngine(cfg.OCR)
	if err != nil {
		return err
	}
	defer engine.Close()

	provider := templates.New(ctx, cfg.Templates, log.Default())
	defer provider.Close()

	g := grader.New(cfg, engine, provider, debug)

	switch command {
	case "grade":
		if len(args) != 1 {
			return fmt.Errorf("usage: calligraphy-grader grade <image>")
		}
		report, err := g.GradeFile(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(report)

	case "grade-dir":
		if len(args) != 1 {
			return fmt.Errorf("usage: calligraphy-grader grade-dir <dir>")
		}
		summary, err := g.GradeDir(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(summary)

	case "serve":
		info := engine.Info()
		debug.Printf("OCR: %s %s (%s)", info.Engine, info.Version, info.Language)
		return server.New(g, Version).Run(ctx)

	default:
		return fmt.Errorf("unknown command %q (try --help)", command)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
