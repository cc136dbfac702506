package camera

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/0xmhha/snapcam/pkg/logger"
)

// commandRunner runs an external command and returns its stderr output.
type commandRunner func(ctx context.Context, name string, args ...string) (stderr []byte, err error)

// V4L2Provider captures stills from Linux video devices by shelling out
// to ffmpeg. Requires ffmpeg on PATH and read access to the devices
// (membership in the video group).
type V4L2Provider struct {
	config  Config
	logger  logger.Logger
	handles *handleSet

	statDevice func(path string) (os.FileInfo, error)
	run        commandRunner
}

// NewV4L2Provider creates a provider for the devices in cfg.
func NewV4L2Provider(cfg Config, log logger.Logger) (*V4L2Provider, error) {
	cfg = applyDefaults(cfg)
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid resolution %dx%d", cfg.Width, cfg.Height)
	}

	log.Info("v4l2 camera provider created",
		"back_device", cfg.BackDevice,
		"front_device", cfg.FrontDevice,
		"resolution", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"output_dir", cfg.OutputDir)

	return &V4L2Provider{
		config:     cfg,
		logger:     log,
		handles:    newHandleSet(),
		statDevice: os.Stat,
		run:        runCommand,
	}, nil
}

// Acquire implements Provider.Acquire.
func (p *V4L2Provider) Acquire(ctx context.Context, facing Facing) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}

	device, err := deviceFor(p.config, facing)
	if err != nil {
		return Handle{}, err
	}

	if err := p.checkDevice(device); err != nil {
		return Handle{}, err
	}

	h := p.handles.issue(facing, device)
	p.logger.Info("camera acquired",
		"handle", h.ID,
		"facing", facing,
		"device", device)

	return h, nil
}

// Reconfigure implements Provider.Reconfigure. V4L2 devices are separate
// nodes per camera, so switching is a release followed by an acquire.
func (p *V4L2Provider) Reconfigure(ctx context.Context, h Handle, facing Facing) (Handle, error) {
	if _, err := p.handles.lookup(h); err != nil {
		return Handle{}, err
	}

	next, err := p.Acquire(ctx, facing)
	if err != nil {
		return Handle{}, err
	}

	p.Release(h)
	return next, nil
}

// Capture implements Provider.Capture.
func (p *V4L2Provider) Capture(ctx context.Context, h Handle, name string) (string, error) {
	open, err := p.handles.lookup(h)
	if err != nil {
		return "", err
	}

	dest, err := prepareDestination(p.config.OutputDir, name)
	if err != nil {
		return "", err
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", p.config.Width, p.config.Height),
		"-i", open.Device,
		"-vframes", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"-q:v", "2",
		"-y",
		dest,
	}

	p.logger.Debug("running ffmpeg", "device", open.Device, "dest", dest)

	if stderr, runErr := p.run(ctx, p.config.FFmpegPath, args...); runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = runErr.Error()
		}
		return "", fmt.Errorf("%w: %s", ErrCaptureFailed, msg)
	}

	info, err := os.Stat(dest)
	if err != nil || info.Size() == 0 {
		return "", fmt.Errorf("%w: ffmpeg produced no image", ErrCaptureFailed)
	}

	p.logger.Info("frame captured", "handle", open.ID, "path", dest, "bytes", info.Size())
	return dest, nil
}

// Release implements Provider.Release.
func (p *V4L2Provider) Release(h Handle) {
	if !p.handles.drop(h) {
		p.logger.Debug("release of unknown handle ignored", "handle", h.ID)
		return
	}
	p.logger.Info("camera released", "handle", h.ID, "device", h.Device)
}

// checkDevice verifies that device exists and is a character device.
func (p *V4L2Provider) checkDevice(device string) error {
	info, err := p.statDevice(device)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, device, err)
	}
	if info.Mode()&os.ModeCharDevice == 0 {
		return fmt.Errorf("%w: %s is not a character device", ErrDeviceUnavailable, device)
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}
