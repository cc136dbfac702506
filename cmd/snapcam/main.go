// Package main provides the snapcam CLI application.
//
// Snapcam drives a camera through a permission, connect, preview and
// capture session from the terminal, and keeps an index of the photos it
// has taken.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/0xmhha/snapcam/pkg/config"
	"github.com/0xmhha/snapcam/pkg/logger"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Parse()

	if *showVersion {
		fmt.Printf("snapcam %s\n", version)
		return nil
	}

	args := flag.Args()
	if len(args) == 0 {
		return showUsage()
	}

	command := args[0]

	switch command {
	case "run":
		return runRunCommand(*configPath, args[1:])
	case "gallery":
		return runGalleryCommand(*configPath, args[1:])
	case "permission":
		return runPermissionCommand(*configPath, args[1:])
	case "config":
		return runConfigCommand(*configPath, args[1:])
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runRunCommand runs the interactive camera session.
func runRunCommand(configPath string, args []string) error {
	cmd, err := parseRunCommand(configPath, args)
	if err != nil {
		return err
	}
	return cmd.Execute()
}

// parseRunCommand parses run flags.
func parseRunCommand(configPath string, args []string) (*runCommand, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	driver := fs.String("driver", "", "camera driver (v4l2, virtual)")
	perm := fs.String("permission", "", "permission mode (prompt, grant, deny)")
	format := fs.String("format", "", "status format (table, simple, json)")
	output := fs.String("output", "", "directory photos are saved to")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &runCommand{
		driver:     *driver,
		permission: *perm,
		format:     *format,
		outputDir:  *output,
		configPath: configPath,
	}, nil
}

// runGalleryCommand lists indexed photos.
func runGalleryCommand(configPath string, args []string) error {
	cmd, err := parseGalleryCommand(configPath, args)
	if err != nil {
		return err
	}
	return cmd.Execute(os.Stdout)
}

// parseGalleryCommand parses gallery flags.
func parseGalleryCommand(configPath string, args []string) (*galleryCommand, error) {
	fs := flag.NewFlagSet("gallery", flag.ContinueOnError)
	format := fs.String("format", "table", "output format (table, simple, json)")
	limit := fs.Int("limit", 20, "maximum photos to list (0 for all)")
	scan := fs.Bool("scan", false, "rescan the output directory first")
	paths := fs.Bool("paths", false, "show full paths")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &galleryCommand{
		format:     *format,
		limit:      *limit,
		scan:       *scan,
		showPaths:  *paths,
		configPath: configPath,
	}, nil
}

// runPermissionCommand runs the permission command.
func runPermissionCommand(configPath string, args []string) error {
	cmd := &permissionCommand{
		configPath: configPath,
	}
	return cmd.Execute(os.Stdout, args)
}

// runConfigCommand runs the config command.
func runConfigCommand(configPath string, args []string) error {
	cmd := &configCommand{
		configPath: configPath,
		in:         os.Stdin,
	}
	return cmd.Execute(os.Stdout, args)
}

// loadConfig loads configuration from configPath or the default locations.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger creates the logger described by cfg.
func newLogger(cfg *config.Config) logger.Logger {
	return logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// showUsage displays usage information.
func showUsage() error {
	usage := `Snapcam - terminal camera with a photo gallery

Usage:
  snapcam [flags] <command> [command flags]

Commands:
  run         Start an interactive camera session
  gallery     List captured photos
  permission  Show or forget the remembered camera permission
  config      Configuration management (show, path, check, reset)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Run Command Flags:
  -driver     Camera driver (v4l2, virtual)
  -permission Permission mode (prompt, grant, deny)
  -format     Status format (table, simple, json)
  -output     Directory photos are saved to

Gallery Command Flags:
  -format     Output format (table, simple, json)
  -limit      Maximum photos to list (default: 20, 0 for all)
  -scan       Rescan the output directory first
  -paths      Show full paths

Session Commands (inside run):
  start       Request permission and open the camera
  capture     Take a photo
  switch      Switch between back and front cameras
  teardown    Close the camera
  status      Show the current status
  gallery     Show the latest photos
  quit        Close the camera and exit

Examples:
  # Try it without hardware
  snapcam run -driver virtual -permission grant

  # Save photos somewhere else
  snapcam run -output ~/Desktop

  # List the last 5 photos as JSON
  snapcam gallery -limit 5 -format json

  # Ask for camera permission again next time
  snapcam permission forget

Version: %s
`

	fmt.Printf(usage, version)
	return nil
}
