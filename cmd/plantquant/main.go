package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/ironsheep/plantquant/internal/config"
	"github.com/ironsheep/plantquant/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("plantquant - element quantification of plant scans")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  plantquant [serve] [-config file]                 Run the MCP server on stdin/stdout")
	fmt.Println("  plantquant quantify [-config file] <dir|files...> Quantify every plant and write results")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug    Enable debug logging\n", config.EnvLogLevel)
	fmt.Printf("  %s=N          Aggregation worker count\n", config.EnvWorkers)
	fmt.Printf("  %s=dir     Output directory for quantify\n", config.EnvOutputDir)
}

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("plantquant %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "serve", "quantify":
			cmd, args = args[0], args[1:]
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "", "YAML settings file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if cfg.Debug() {
		log.Printf("plantquant v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	switch cmd {
	case "serve":
		server.Version = Version
		srv := server.New(cfg)
		if err := srv.Run(); err != nil {
			log.Fatalf("Server error: %v", err)
		}

	case "quantify":
		if fs.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "quantify: at least one directory or file is required")
			os.Exit(2)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		failed, err := runQuantify(ctx, cfg, fs.Args())
		if err != nil {
			log.Fatalf("Quantify error: %v", err)
		}
		if failed > 0 {
			log.Printf("%d plant(s) failed", failed)
			stop()
			os.Exit(1)
		}
	}
}
