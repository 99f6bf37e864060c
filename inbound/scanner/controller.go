package scanner

import (
	"context"
	"errors"
	"log/slog"
	"qr-checkin/common"
	"qr-checkin/common/constant"
	"qr-checkin/common/errs"
	"qr-checkin/model"
	"qr-checkin/monitoring"
	"qr-checkin/outbound/camera"
	"qr-checkin/outbound/decoder"
	"qr-checkin/ticket"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/viper"
)

type State int

const (
	StateIdle State = iota
	StateScanning
	StateResolving
	StateDisplaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateResolving:
		return "resolving"
	case StateDisplaying:
		return "displaying"
	}
	return "unknown"
}

type command int

const (
	cmdStart command = iota
	cmdStop
	cmdReset
)

// TicketResolver matches ticket.Resolver.
type TicketResolver interface {
	Resolve(ctx context.Context, id model.ScanIdentifier) (model.TicketRecord, string, error)
}

// StatusListener receives presentation events. Rendering is out of scope for
// the controller; it only reports.
type StatusListener interface {
	OnStatus(kind, message string)
	OnTicket(rec model.TicketRecord, source string)
	OnResolveError(id model.ScanIdentifier, err error)
}

// Beeper plays the short audible cue on a successful scan. Failures are
// swallowed; the cue is best-effort.
type Beeper interface {
	Beep()
}

type resolveResult struct {
	seq    uint64
	id     model.ScanIdentifier
	rec    model.TicketRecord
	source string
	err    error
}

// Controller drives the scan loop: a frame pump bound to the display tick
// while scanning, single-shot hand-off to the resolver on the first fresh
// decode, and operator-triggered reset back to idle. All state transitions
// happen on the Run goroutine.
type Controller struct {
	Source    camera.FrameSource
	Decoder   decoder.Decoder
	Resolver  TicketResolver
	Listener  StatusListener
	Beeper    Beeper
	Publisher jetstream.Publisher

	TimeNow func() time.Time

	station string
	tick    time.Duration

	commands chan command
	results  chan resolveResult

	mu              sync.Mutex
	state           State
	lastScannedCode string
	currentTicket   *model.TicketRecord
	resolveSeq      uint64
}

func NewController(
	cfg *viper.Viper,
	source camera.FrameSource,
	dec decoder.Decoder,
	resolver TicketResolver,
	listener StatusListener,
	beeper Beeper,
	publisher jetstream.Publisher,
) *Controller {
	return &Controller{
		Source:    source,
		Decoder:   dec,
		Resolver:  resolver,
		Listener:  listener,
		Beeper:    beeper,
		Publisher: publisher,
		TimeNow:   time.Now,

		station: cfg.GetString("scanner.station"),
		tick:    cfg.GetDuration("scanner.tick"),

		commands: make(chan command, 8),
		results:  make(chan resolveResult, 1),

		state: StateIdle,
	}
}

// Start is the shutter trigger: Idle -> Scanning.
func (c *Controller) Start() { c.commands <- cmdStart }

// Stop aborts an active scan: Scanning -> Idle.
func (c *Controller) Stop() { c.commands <- cmdStop }

// Reset clears the last result: Displaying -> Idle.
func (c *Controller) Reset() { c.commands <- cmdReset }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) LastScannedCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastScannedCode
}

func (c *Controller) CurrentTicket() *model.TicketRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTicket
}

// Run owns every state transition. The pump samples one frame per tick and
// only while the state is Scanning, so frames produced during Resolving or
// Displaying are simply never read: there is no backlog to drain.
func (c *Controller) Run(ctx context.Context) {
	c.Listener.OnStatus(constant.ScanStatusReady, constant.MsgReady)

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.commands:
			c.handleCommand(cmd)
		case res := <-c.results:
			c.applyResolveResult(ctx, res)
		case <-ticker.C:
			if c.State() == StateScanning {
				c.pumpFrame(ctx)
			}
		}
	}
}

func (c *Controller) handleCommand(cmd command) {
	c.mu.Lock()

	changed := false
	kind, msg := constant.ScanStatusReady, constant.MsgReady

	switch cmd {
	case cmdStart:
		if c.state == StateIdle {
			c.state = StateScanning
			kind, msg = constant.ScanStatusScanning, constant.MsgScanning
			changed = true
		}
	case cmdStop:
		if c.state == StateScanning {
			c.state = StateIdle
			changed = true
		}
	case cmdReset:
		// Resetting mid-Resolving does not cancel the outstanding lookup; its
		// result is still applied when it arrives unless a newer resolve has
		// started by then.
		c.state = StateIdle
		c.lastScannedCode = ""
		c.currentTicket = nil
		changed = true
	}

	c.mu.Unlock()

	if changed {
		c.Listener.OnStatus(kind, msg)
	}
}

func (c *Controller) pumpFrame(ctx context.Context) {
	img, err := c.Source.CurrentFrame(ctx)
	if err != nil {
		if errors.Is(err, camera.ErrNotReady) || errors.Is(err, context.Canceled) {
			return
		}

		// Camera failures are terminal for the attempt: surface them with a
		// retry affordance, never retry silently.
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()

		slog.Error("frame pull failed", slog.Any(constant.LogFieldErr, err))
		c.Listener.OnStatus(constant.ScanStatusError, constant.MsgError+": "+err.Error())
		return
	}

	payload, ok := c.Decoder.Decode(img)
	if !ok {
		// no code in this frame
		return
	}

	c.mu.Lock()

	if payload == c.lastScannedCode {
		// same code still in front of the camera, keep pumping
		c.mu.Unlock()
		return
	}

	// Single-shot: the pump stops here, and the payload is remembered before
	// resolution begins so a resolver failure cannot re-trigger on the same
	// still-visible code.
	c.lastScannedCode = payload
	c.state = StateResolving
	c.resolveSeq++
	seq := c.resolveSeq

	c.mu.Unlock()

	c.Listener.OnStatus(constant.ScanStatusSuccess, constant.MsgDetected)

	id := ticket.Classify(payload)

	go func() {
		rec, source, err := c.Resolver.Resolve(ctx, id)
		select {
		case c.results <- resolveResult{seq: seq, id: id, rec: rec, source: source, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) applyResolveResult(ctx context.Context, res resolveResult) {
	c.mu.Lock()

	if res.seq != c.resolveSeq {
		// a newer resolve superseded this one
		c.mu.Unlock()
		return
	}

	c.state = StateDisplaying
	if res.err != nil {
		c.currentTicket = nil
	} else {
		rec := res.rec
		c.currentTicket = &rec
	}

	c.mu.Unlock()

	result := model.ScanResultResolved
	if res.err != nil {
		result = resultForError(res.err)
	}

	monitoring.ObserveScan(result)
	c.publishScanned(ctx, res, result)

	if res.err != nil {
		c.Listener.OnResolveError(res.id, res.err)
		return
	}

	c.beep()
	c.Listener.OnTicket(res.rec, res.source)
}

func (c *Controller) publishScanned(ctx context.Context, res resolveResult, result string) {
	if c.Publisher == nil {
		return
	}

	msg := model.CheckinEventMessage{
		Station:      c.station,
		TicketNumber: res.rec.TicketNumber,
		RawPayload:   res.id.Raw,
		Kind:         string(res.id.Kind),
		Result:       result,
		ScannedAt:    c.TimeNow().UTC().Format(time.RFC3339),
	}

	if err := common.PublishMessage(ctx, c.Publisher, constant.SubjectTicketScanned, msg); err != nil {
		slog.Warn("scanned event publish failed", slog.Any(constant.LogFieldErr, err))
	}
}

func (c *Controller) beep() {
	if c.Beeper == nil {
		return
	}
	c.Beeper.Beep()
}

func resultForError(err error) string {
	var notFound *errs.NotFoundError
	var ambiguous *errs.AmbiguousMatchError

	switch {
	case errors.As(err, &notFound):
		return model.ScanResultNotFound
	case errors.As(err, &ambiguous):
		return model.ScanResultAmbiguous
	default:
		return model.ScanResultNetworkError
	}
}
