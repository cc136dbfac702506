package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/0xmhha/snapcam/pkg/config"
	"gopkg.in/yaml.v3"
)

// configCommand handles the config subcommands.
type configCommand struct {
	configPath string
	in         io.Reader
}

// Execute runs the config command with given arguments.
func (c *configCommand) Execute(w io.Writer, args []string) error {
	if len(args) == 0 {
		showConfigHelp(w)
		return nil
	}

	switch args[0] {
	case "show":
		return c.show(w, args[1:])
	case "path":
		return c.paths(w)
	case "check":
		return c.check(w)
	case "reset":
		return c.reset(w, args[1:])
	case "help":
		showConfigHelp(w)
		return nil
	default:
		return fmt.Errorf("unknown config subcommand: %s", args[0])
	}
}

// show prints the effective configuration, after file and environment.
func (c *configCommand) show(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("config show", flag.ContinueOnError)
	format := fs.String("format", "yaml", "output format (yaml, json)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	switch *format {
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		fmt.Fprintf(w, "# source: %s\n%s", c.source(), data)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", *format)
	}
	return nil
}

// paths lists where a config file is looked for, marking the one in use.
func (c *configCommand) paths(w io.Writer) error {
	active := c.source()
	for _, p := range c.searchPaths() {
		state := "missing"
		if _, err := os.Stat(p); err == nil {
			state = "present"
		}
		mark := " "
		if p == active {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %-8s %s\n", mark, state, p)
	}
	return nil
}

// searchPaths lists the places a config file is looked for, in order.
func (c *configCommand) searchPaths() []string {
	var paths []string
	if c.configPath != "" {
		paths = append(paths, c.configPath)
	} else if p := os.Getenv(config.EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	return append(paths, "./snapcam.yaml", config.DefaultPath())
}

// check loads the configuration and reports whether it is usable.
func (c *configCommand) check(w io.Writer) error {
	if _, err := loadConfig(c.configPath); err != nil {
		return err
	}
	fmt.Fprintf(w, "configuration ok (%s)\n", c.source())
	return nil
}

// reset writes the default configuration, asking before it overwrites.
func (c *configCommand) reset(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("config reset", flag.ContinueOnError)
	force := fs.Bool("force", false, "overwrite without asking")
	output := fs.String("output", config.DefaultPath(), "where to write the config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*output); err == nil && !*force && !c.confirm(w, *output) {
		fmt.Fprintln(w, "reset cancelled")
		return nil
	}

	if err := config.Save(config.Default(), *output); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote default configuration to %s\n", *output)
	return nil
}

func (c *configCommand) confirm(w io.Writer, path string) bool {
	in := c.in
	if in == nil {
		in = os.Stdin
	}

	fmt.Fprintf(w, "%s exists. Overwrite? [y/N]: ", path)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// source returns the config file in use.
func (c *configCommand) source() string {
	if p := config.NewLoader(c.configPath).Path(); p != "" {
		return p
	}
	return "defaults"
}

func showConfigHelp(w io.Writer) {
	fmt.Fprint(w, `Usage: snapcam config <subcommand> [flags]

Subcommands:
  show [-format yaml|json]       print the effective configuration
  path                           list config file locations (* = in use)
  check                          load and validate the configuration
  reset [-force] [-output FILE]  write the defaults

Environment overrides (SNAPCAM_ prefix):
  SNAPCAM_CONFIG                 config file path
  SNAPCAM_CAMERA_DRIVER          v4l2 or virtual
  SNAPCAM_CAMERA_BACK_DEVICE     back camera device
  SNAPCAM_CAMERA_FRONT_DEVICE    front camera device
  SNAPCAM_CAPTURE_OUTPUT_DIR     photo directory
  SNAPCAM_PERMISSION_MODE        prompt, grant or deny
  SNAPCAM_STORAGE_DB             database path
  SNAPCAM_DISPLAY_FORMAT         table, simple or json
  SNAPCAM_LOG_LEVEL              debug, info, warn or error
`)
}
