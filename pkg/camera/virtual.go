package camera

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"sync"
	"time"

	"github.com/0xmhha/snapcam/pkg/logger"
)

// VirtualProvider synthesizes frames instead of talking to hardware.
// The back camera renders a horizontal gradient, the front camera a
// vertical one, so captures from either facing are distinguishable.
//
// Failures and latency can be injected for demos and tests.
type VirtualProvider struct {
	config  Config
	logger  logger.Logger
	handles *handleSet

	mu          sync.Mutex
	failAcquire error
	failCapture error
	delay       time.Duration
}

// NewVirtualProvider creates a hardware-free provider.
func NewVirtualProvider(cfg Config, log logger.Logger) (*VirtualProvider, error) {
	cfg.Driver = DriverVirtual
	cfg = applyDefaults(cfg)
	if cfg.BackDevice == "" {
		cfg.BackDevice = "virtual:back"
	}
	if cfg.FrontDevice == "" {
		cfg.FrontDevice = "virtual:front"
	}

	log.Info("virtual camera provider created", "output_dir", cfg.OutputDir)

	return &VirtualProvider{
		config:  cfg,
		logger:  log,
		handles: newHandleSet(),
	}, nil
}

// Acquire implements Provider.Acquire.
func (p *VirtualProvider) Acquire(ctx context.Context, facing Facing) (Handle, error) {
	f := p.faults()

	if err := wait(ctx, f.delay); err != nil {
		return Handle{}, err
	}
	if f.acquire != nil {
		return Handle{}, f.acquire
	}

	device, err := deviceFor(p.config, facing)
	if err != nil {
		return Handle{}, err
	}

	h := p.handles.issue(facing, device)
	p.logger.Info("virtual camera acquired", "handle", h.ID, "facing", facing)
	return h, nil
}

// Reconfigure implements Provider.Reconfigure.
func (p *VirtualProvider) Reconfigure(ctx context.Context, h Handle, facing Facing) (Handle, error) {
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
func (p *VirtualProvider) Capture(ctx context.Context, h Handle, name string) (string, error) {
	f := p.faults()

	open, err := p.handles.lookup(h)
	if err != nil {
		return "", err
	}

	if err := wait(ctx, f.delay); err != nil {
		return "", err
	}
	if f.capture != nil {
		return "", f.capture
	}

	dest, err := prepareDestination(p.config.OutputDir, name)
	if err != nil {
		return "", err
	}

	if err := writePattern(dest, open.Facing, p.config.Width, p.config.Height); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	p.logger.Info("virtual frame captured", "handle", open.ID, "path", dest)
	return dest, nil
}

// Release implements Provider.Release.
func (p *VirtualProvider) Release(h Handle) {
	if p.handles.drop(h) {
		p.logger.Info("virtual camera released", "handle", h.ID)
	}
}

// OpenHandles returns how many handles are currently acquired.
func (p *VirtualProvider) OpenHandles() int {
	return p.handles.count()
}

// SetFailAcquire makes subsequent Acquire calls fail with err (nil clears it).
func (p *VirtualProvider) SetFailAcquire(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failAcquire = err
}

// SetFailCapture makes subsequent Capture calls fail with err (nil clears it).
func (p *VirtualProvider) SetFailCapture(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failCapture = err
}

// SetDelay adds latency to Acquire and Capture.
func (p *VirtualProvider) SetDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
}

type faultSet struct {
	acquire error
	capture error
	delay   time.Duration
}

func (p *VirtualProvider) faults() faultSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return faultSet{acquire: p.failAcquire, capture: p.failCapture, delay: p.delay}
}

// wait sleeps for d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// writePattern encodes a gradient test card as JPEG at path.
func writePattern(path string, facing Facing, width, height int) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var v uint8
			if facing == FacingFront {
				v = uint8(y * 255 / max(height-1, 1))
				img.Set(x, y, color.RGBA{R: 40, G: v, B: 255 - v, A: 255})
			} else {
				v = uint8(x * 255 / max(width-1, 1))
				img.Set(x, y, color.RGBA{R: v, G: 255 - v, B: 40, A: 255})
			}
		}
	}

	// #nosec G304: path is built from the configured output directory
	f, err := os.Create(path) // nolint:gosec
	if err != nil {
		return err
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
