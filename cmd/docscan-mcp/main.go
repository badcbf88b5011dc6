package main

import (
	"fmt"
	"os"

	"github.com/foundersai25/talkdoc-core/internal/config"
	"github.com/foundersai25/talkdoc-core/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("docscan-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("docscan-mcp - MCP server for document scanning")
			fmt.Println()
			fmt.Println("Usage: docscan-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (also read from .env):")
			fmt.Println("  DOCSCAN_LOG_LEVEL=debug           Enable debug logging")
			fmt.Println("  DOCSCAN_OUTPUT_DIR=output         Default directory for document_scan")
			fmt.Println("  DOCSCAN_MIN_QUAD_AREA_RATIO=0.25  Smallest page, as a fraction of the photo")
			fmt.Println("  DOCSCAN_MAX_QUAD_ANGLE_RANGE=40   Largest interior angle spread of a page")
			fmt.Println("  DOCSCAN_BINARIZE=false            Black and white output")
			fmt.Println("  DOCSCAN_PDF_DPI=100               PDF resolution")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Register it as a stdio server in your MCP client.")
			return
		}
	}

	cfg, warnings := config.Load()

	// Log to stderr (stdout is for MCP protocol)
	log := cfg.NewLogger(os.Stderr)
	for _, w := range warnings {
		log.Warn(w)
	}
	log.WithField("commit", GitCommit).Debugf("Document scanner MCP server v%s (built %s)", Version, BuildTime)

	srv := server.New(
		server.WithScanOptions(cfg.ScanOptions()),
		server.WithSaveOptions(cfg.SaveOptions()),
		server.WithOutputDir(cfg.OutputDir),
		server.WithLogger(log),
		server.WithVersion(Version),
	)
	if err := srv.Run(); err != nil {
		log.WithError(err).Fatal("Server error")
	}
}
