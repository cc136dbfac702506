package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/0xmhha/snapcam/pkg/camera"
	"github.com/0xmhha/snapcam/pkg/logger"
	"github.com/0xmhha/snapcam/pkg/permission"
	"github.com/0xmhha/snapcam/pkg/session"
)

// controller implements the Controller interface.
type controller struct {
	config Config
	logger logger.Logger
	perm   permission.Provider
	cam    camera.Provider

	mu       sync.RWMutex
	running  bool
	closed   bool
	stopChan chan struct{}
	loopDone chan struct{}
	cancel   context.CancelFunc
	cmdCtx   context.Context

	// state is only written with mu held.
	state session.Session

	events  chan session.Event
	updates chan Update

	// inflight tracks command goroutines.
	inflight sync.WaitGroup
}

// New creates a controller for a new session.
func New(cfg Config, perm permission.Provider, cam camera.Provider, log logger.Logger) (Controller, error) {
	if perm == nil || cam == nil {
		return nil, ErrNilCollaborator
	}

	if cfg.PermissionTimeout == 0 {
		cfg.PermissionTimeout = 60 * time.Second
	}
	if cfg.AcquireTimeout == 0 {
		cfg.AcquireTimeout = 10 * time.Second
	}
	if cfg.CaptureTimeout == 0 {
		cfg.CaptureTimeout = 15 * time.Second
	}
	if cfg.UpdateBuffer <= 0 {
		cfg.UpdateBuffer = 16
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	c := &controller{
		config:  cfg,
		logger:  log.Named("controller"),
		perm:    perm,
		cam:     cam,
		state:   session.New(),
		events:  make(chan session.Event, 32),
		updates: make(chan Update, cfg.UpdateBuffer),
	}

	c.logger.Debug("controller created",
		"permission_timeout", cfg.PermissionTimeout,
		"acquire_timeout", cfg.AcquireTimeout,
		"capture_timeout", cfg.CaptureTimeout)

	return c, nil
}

// Start implements Controller.Start.
func (c *controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.running {
		return ErrRunning
	}

	// Drop user events that raced the previous Stop.
	for len(c.events) > 0 {
		<-c.events
	}

	c.cmdCtx, c.cancel = context.WithCancel(ctx)
	c.stopChan = make(chan struct{})
	c.loopDone = make(chan struct{})
	c.running = true

	go c.loop(c.cmdCtx, c.stopChan, c.loopDone)

	c.logger.Info("controller started", "phase", c.state.Phase)
	return nil
}

// Dispatch implements Controller.Dispatch.
func (c *controller) Dispatch(e session.Event) error {
	if req, ok := e.(session.CaptureRequested); ok && req.At.IsZero() {
		req.At = c.config.Clock()
		e = req
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrClosed
	}
	if !c.running {
		c.mu.RUnlock()
		return ErrNotRunning
	}
	done := c.loopDone
	c.mu.RUnlock()

	select {
	case <-done:
		return ErrNotRunning
	default:
	}

	select {
	case c.events <- e:
		return nil
	case <-done:
		return ErrNotRunning
	}
}

// Updates implements Controller.Updates.
func (c *controller) Updates() <-chan Update {
	return c.updates
}

// Snapshot implements Controller.Snapshot.
func (c *controller) Snapshot() session.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// Stop implements Controller.Stop.
func (c *controller) Stop() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.running {
		c.mu.Unlock()
		return ErrNotRunning
	}
	c.running = false
	close(c.stopChan)
	loopDone := c.loopDone
	c.mu.Unlock()

	c.shutdown(loopDone)

	c.logger.Info("controller stopped")
	return nil
}

// shutdown waits for the loop, tears the session down and cancels
// outstanding commands. Cancellation makes every command report back at
// once, abandoning providers that ignore it, so the wait is bounded. User
// events still queued are dropped.
func (c *controller) shutdown(loopDone <-chan struct{}) {
	<-loopDone

	c.apply(session.Teardown{})
	c.cancel()

	waited := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(waited)
	}()

	for {
		select {
		case e := <-c.events:
			c.drain(e)
		case <-waited:
			for {
				select {
				case e := <-c.events:
					c.drain(e)
				default:
					return
				}
			}
		}
	}
}

// drain applies a completion that arrived after teardown. Its token can
// no longer match, so at most a ReleaseCamera results.
func (c *controller) drain(e session.Event) {
	switch e.(type) {
	case session.StartRequested, session.CaptureRequested, session.SwitchFacingRequested, session.Teardown:
		c.logger.Debug("dropping queued event", "event", session.EventName(e))
	default:
		c.apply(e)
	}
}

// Close implements Controller.Close.
func (c *controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	wasRunning := c.running
	var loopDone chan struct{}
	if wasRunning {
		c.running = false
		close(c.stopChan)
		loopDone = c.loopDone
	}
	c.mu.Unlock()

	if wasRunning {
		c.shutdown(loopDone)
	}

	c.mu.Lock()
	c.closed = true
	close(c.updates)
	c.mu.Unlock()

	c.logger.Debug("controller closed")
	return nil
}

// loop applies events until stopped.
func (c *controller) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("event loop stopped", "reason", "context cancelled")
			return

		case <-stop:
			c.logger.Debug("event loop stopped", "reason", "stop signal")
			return

		case e := <-c.events:
			c.apply(e)
		}
	}
}

// apply runs one transition and carries out its commands.
func (c *controller) apply(e session.Event) {
	c.mu.Lock()
	prev := c.state.Phase
	next, cmds, disposition := session.Step(c.state, e)
	c.state = next
	c.mu.Unlock()

	name := session.EventName(e)

	if err := next.Check(); err != nil {
		c.logger.Error("session inconsistent after event",
			"event", name,
			"error", err)
	}

	switch disposition {
	case session.Applied:
		if prev != next.Phase {
			c.logger.Info("phase changed",
				"event", name,
				"from", prev,
				"to", next.Phase)
		} else {
			c.logger.Debug("event applied", "event", name, "phase", next.Phase)
		}
	case session.Stale:
		c.logger.Debug("stale event discarded",
			"event", name,
			"phase", next.Phase,
			"error", session.ErrStaleEvent)
	default:
		c.logger.Debug("event ignored", "event", name, "phase", next.Phase)
	}

	for _, cmd := range cmds {
		c.execute(cmd)
	}

	if disposition == session.Applied {
		c.publish(name, next)
	}
}

// publish notifies observers and queues an update.
func (c *controller) publish(event string, s session.Session) {
	now := c.config.Clock()
	st := s.Status()
	st.UpdatedAt = now

	u := Update{
		Timestamp: now,
		Event:     event,
		Status:    st,
	}

	for _, o := range c.config.Observers {
		o.Observe(u)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}

	select {
	case c.updates <- u:
	default:
		c.logger.Warn("updates channel full, dropping update", "event", event)
	}
}

// execute carries out a command. Commands with a completion event run on
// their own goroutine; releases run inline.
func (c *controller) execute(cmd session.Command) {
	c.logger.Debug("executing command", "command", session.CommandName(cmd))

	switch cmd := cmd.(type) {
	case session.RequestPermission:
		c.perform(c.config.PermissionTimeout, "permission request",
			func(ctx context.Context) session.Event {
				granted, err := c.perm.Request(ctx)
				if err != nil {
					return session.PermissionFailed{Token: cmd.Token, Reason: reason("permission request", err)}
				}
				return session.PermissionResult{Token: cmd.Token, Granted: granted}
			},
			func(why string) session.Event {
				return session.PermissionFailed{Token: cmd.Token, Reason: why}
			})

	case session.AcquireCamera:
		c.perform(c.config.AcquireTimeout, "camera acquisition",
			func(ctx context.Context) session.Event {
				h, err := c.cam.Acquire(ctx, cmd.Facing)
				if err != nil {
					return session.CameraAcquireFailed{Token: cmd.Token, Reason: reason("camera acquisition", err)}
				}
				return session.CameraAcquired{Token: cmd.Token, Handle: h}
			},
			func(why string) session.Event {
				return session.CameraAcquireFailed{Token: cmd.Token, Reason: why}
			})

	case session.ReconfigureCamera:
		c.perform(c.config.AcquireTimeout, "camera switch",
			func(ctx context.Context) session.Event {
				h, err := c.cam.Reconfigure(ctx, cmd.Handle, cmd.Facing)
				if err != nil {
					return session.CameraAcquireFailed{Token: cmd.Token, Reason: reason("camera switch", err)}
				}
				return session.CameraAcquired{Token: cmd.Token, Handle: h}
			},
			func(why string) session.Event {
				return session.CameraAcquireFailed{Token: cmd.Token, Reason: why}
			})

	case session.TakePicture:
		c.perform(c.config.CaptureTimeout, "capture",
			func(ctx context.Context) session.Event {
				path, err := c.cam.Capture(ctx, cmd.Handle, cmd.Name)
				if err != nil {
					return session.CaptureFailed{Token: cmd.Token, Reason: reason("capture", err)}
				}
				return session.CaptureCompleted{Token: cmd.Token, Path: path, At: c.config.Clock()}
			},
			func(why string) session.Event {
				return session.CaptureFailed{Token: cmd.Token, Reason: why}
			})

	case session.ReleaseCamera:
		c.release(cmd.Handle)

	default:
		c.logger.Warn("unknown command", "command", session.CommandName(cmd))
	}
}

// perform runs op on its own goroutine and feeds the resulting event back
// to the loop. If op outlives its timeout, or the controller shuts down
// first, the event built by fail is fed back instead and op is abandoned;
// its late result is disposed of by discardLate. A panic in op also
// becomes a fail event.
func (c *controller) perform(timeout time.Duration, what string, op func(context.Context) session.Event, fail func(string) session.Event) {
	c.mu.RLock()
	parent := c.cmdCtx
	c.mu.RUnlock()

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()

		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		result := make(chan session.Event, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("provider panicked", "operation", what, "panic", r)
					result <- fail(fmt.Sprintf("%s failed: %v", what, r))
				}
			}()
			result <- op(ctx)
		}()

		var ev session.Event
		select {
		case ev = <-result:
		case <-ctx.Done():
			select {
			case ev = <-result:
			default:
				c.logger.Warn("provider did not return in time", "operation", what, "timeout", timeout)
				ev = fail(reason(what, ctx.Err()))
				go func() { c.discardLate(what, <-result) }()
			}
		}

		c.events <- ev
	}()
}

// discardLate disposes of the result of an abandoned operation. Its token
// was already answered by the failure event, so only a camera handle
// needs attention: it is released.
func (c *controller) discardLate(what string, e session.Event) {
	c.logger.Debug("late result discarded", "operation", what, "event", session.EventName(e))

	if acquired, ok := e.(session.CameraAcquired); ok {
		c.release(acquired.Handle)
	}
}

// release returns a handle to the camera provider.
func (c *controller) release(h camera.Handle) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("provider panicked", "operation", "release", "panic", r)
		}
	}()

	c.cam.Release(h)
	c.logger.Debug("camera released", "handle", h.ID, "facing", h.Facing)
}

// reason turns a provider error into the text shown to the user.
func reason(what string, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return what + " timed out"
	case errors.Is(err, context.Canceled):
		return what + " cancelled"
	default:
		return err.Error()
	}
}
