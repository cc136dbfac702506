package main

import (
	"fmt"
	"io"

	"github.com/0xmhha/snapcam/pkg/permission"
	"github.com/0xmhha/snapcam/pkg/storage"
)

// permissionCommand inspects the remembered camera permission.
type permissionCommand struct {
	configPath string
}

// Execute runs the permission command with given arguments.
func (c *permissionCommand) Execute(w io.Writer, args []string) error {
	if len(args) == 0 {
		return c.showHelp(w)
	}

	switch args[0] {
	case "show":
		return c.withStore(func(r *permission.Remembered) error {
			return c.runShow(w, r)
		})
	case "forget":
		return c.withStore(func(r *permission.Remembered) error {
			if err := r.Forget(); err != nil {
				return err
			}
			fmt.Fprintln(w, "Camera permission forgotten; you will be asked again.")
			return nil
		})
	case "help":
		return c.showHelp(w)
	default:
		return fmt.Errorf("unknown permission subcommand: %s", args[0])
	}
}

// withStore opens the decision store and runs fn on it.
func (c *permissionCommand) withStore(fn func(r *permission.Remembered) error) error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	db, err := storage.Open(storage.Config{Path: cfg.Storage.DBPath}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()

	// The inner provider is never consulted here.
	r, err := permission.NewRemembered(permission.Static{}, db, log)
	if err != nil {
		return fmt.Errorf("failed to initialize permission store: %w", err)
	}

	return fn(r)
}

func (c *permissionCommand) runShow(w io.Writer, r *permission.Remembered) error {
	d, ok, err := r.Stored()
	if err != nil {
		return err
	}

	if !ok {
		fmt.Fprintln(w, "camera: not decided")
		return nil
	}

	fmt.Fprintf(w, "camera: granted (%s)\n", d.DecidedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func (c *permissionCommand) showHelp(w io.Writer) error {
	help := `Permission - remembered camera permission

Usage:
  snapcam permission <subcommand>

Subcommands:
  show      Show the remembered grant
  forget    Forget it, so the next session asks again
`
	_, err := fmt.Fprint(w, help)
	return err
}
