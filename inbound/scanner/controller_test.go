package scanner

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"qr-checkin/common/constant"
	"qr-checkin/common/errs"
	"qr-checkin/model"
	"qr-checkin/outbound/camera"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
)

type stubSource struct {
	img image.Image
	err error
}

func (s *stubSource) CurrentFrame(ctx context.Context) (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.img, nil
}

func (s *stubSource) Close() error { return nil }

type stubDecoder struct {
	payload string
	ok      bool
}

func (d *stubDecoder) Decode(img image.Image) (string, bool) {
	return d.payload, d.ok
}

type stubScanResolver struct {
	mu      sync.Mutex
	calls   int
	rec     model.TicketRecord
	source  string
	err     error
	blockCh chan struct{}
}

func (r *stubScanResolver) Resolve(ctx context.Context, id model.ScanIdentifier) (model.TicketRecord, string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	if r.blockCh != nil {
		<-r.blockCh
	}

	return r.rec, r.source, r.err
}

func (r *stubScanResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type recordingListener struct {
	mu       sync.Mutex
	statuses []string
	tickets  []model.TicketRecord
	errors   []error
}

func (l *recordingListener) OnStatus(kind, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, kind)
}

func (l *recordingListener) OnTicket(rec model.TicketRecord, source string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tickets = append(l.tickets, rec)
}

func (l *recordingListener) OnResolveError(id model.ScanIdentifier, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, err)
}

func (l *recordingListener) lastStatus() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.statuses) == 0 {
		return ""
	}
	return l.statuses[len(l.statuses)-1]
}

type countingBeeper struct {
	mu    sync.Mutex
	beeps int
}

func (b *countingBeeper) Beep() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beeps++
}

func (b *countingBeeper) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.beeps
}

type ControllerTestSuite struct {
	suite.Suite

	Cfg      *viper.Viper
	Listener *recordingListener
	Beeper   *countingBeeper
}

func (s *ControllerTestSuite) SetupTest() {
	s.Cfg = viper.New()
	s.Cfg.Set("scanner.station", "gate-1")
	s.Cfg.Set("scanner.tick", "5ms")

	s.Listener = &recordingListener{}
	s.Beeper = &countingBeeper{}

	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func TestControllerTestSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}

func (s *ControllerTestSuite) newController(source camera.FrameSource, dec *stubDecoder, resolver *stubScanResolver) *Controller {
	return NewController(s.Cfg, source, dec, resolver, s.Listener, s.Beeper, nil)
}

func (s *ControllerTestSuite) TestCommandTransitions() {
	c := s.newController(&stubSource{}, &stubDecoder{}, &stubScanResolver{})

	s.Equal(StateIdle, c.State())

	c.handleCommand(cmdStart)
	s.Equal(StateScanning, c.State())
	s.Equal(constant.ScanStatusScanning, s.Listener.lastStatus())

	// Start while scanning is a no-op
	c.handleCommand(cmdStart)
	s.Equal(StateScanning, c.State())

	c.handleCommand(cmdStop)
	s.Equal(StateIdle, c.State())

	c.handleCommand(cmdReset)
	s.Equal(StateIdle, c.State())
	s.Empty(c.LastScannedCode())
	s.Nil(c.CurrentTicket())
}

func (s *ControllerTestSuite) TestPumpFrameSingleShot() {
	resolver := &stubScanResolver{
		rec:    model.TicketRecord{TicketNumber: "TKT-20250101-001", Name: "山田太郎"},
		source: "cache",
	}
	c := s.newController(&stubSource{img: image.NewRGBA(image.Rect(0, 0, 1, 1))}, &stubDecoder{payload: "TKT-20250101-001", ok: true}, resolver)

	ctx := context.Background()

	c.handleCommand(cmdStart)
	c.pumpFrame(ctx)

	s.Equal(StateResolving, c.State())
	s.Equal("TKT-20250101-001", c.LastScannedCode())

	res := <-c.results
	c.applyResolveResult(ctx, res)

	s.Equal(StateDisplaying, c.State())
	s.Require().NotNil(c.CurrentTicket())
	s.Equal("TKT-20250101-001", c.CurrentTicket().TicketNumber)
	s.Equal(1, resolver.callCount())
	s.Equal(1, s.Beeper.count())

	// The same still-visible code never triggers a second resolve.
	c.pumpFrame(ctx)
	s.Equal(StateDisplaying, c.State())
	s.Equal(1, resolver.callCount())
}

func (s *ControllerTestSuite) TestDuplicateCodeKeepsPumping() {
	resolver := &stubScanResolver{}
	c := s.newController(&stubSource{img: image.NewRGBA(image.Rect(0, 0, 1, 1))}, &stubDecoder{payload: "TKT-20250101-001", ok: true}, resolver)

	c.handleCommand(cmdStart)

	c.mu.Lock()
	c.lastScannedCode = "TKT-20250101-001"
	c.mu.Unlock()

	c.pumpFrame(context.Background())

	s.Equal(StateScanning, c.State())
	s.Zero(resolver.callCount())
}

func (s *ControllerTestSuite) TestPumpFrameNoCodeKeepsScanning() {
	resolver := &stubScanResolver{}
	c := s.newController(&stubSource{img: image.NewRGBA(image.Rect(0, 0, 1, 1))}, &stubDecoder{ok: false}, resolver)

	c.handleCommand(cmdStart)
	c.pumpFrame(context.Background())

	s.Equal(StateScanning, c.State())
	s.Zero(resolver.callCount())
}

func (s *ControllerTestSuite) TestPumpFrameNotReadyIsSilent() {
	c := s.newController(&stubSource{err: camera.ErrNotReady}, &stubDecoder{}, &stubScanResolver{})

	c.handleCommand(cmdStart)
	c.pumpFrame(context.Background())

	s.Equal(StateScanning, c.State())
	s.Equal(constant.ScanStatusScanning, s.Listener.lastStatus())
}

func (s *ControllerTestSuite) TestPumpFrameCameraFailureReturnsToIdle() {
	c := s.newController(&stubSource{err: camera.ErrDeviceBusy}, &stubDecoder{}, &stubScanResolver{})

	c.handleCommand(cmdStart)
	c.pumpFrame(context.Background())

	s.Equal(StateIdle, c.State())
	s.Equal(constant.ScanStatusError, s.Listener.lastStatus())
}

func (s *ControllerTestSuite) TestResolveErrorShowsErrorAndKeepsDedup() {
	resolver := &stubScanResolver{err: &errs.NotFoundError{Identifier: "TKT-20250101-404"}}
	c := s.newController(&stubSource{img: image.NewRGBA(image.Rect(0, 0, 1, 1))}, &stubDecoder{payload: "TKT-20250101-404", ok: true}, resolver)

	ctx := context.Background()

	c.handleCommand(cmdStart)
	c.pumpFrame(ctx)

	res := <-c.results
	c.applyResolveResult(ctx, res)

	s.Equal(StateDisplaying, c.State())
	s.Nil(c.CurrentTicket())
	s.Equal("TKT-20250101-404", c.LastScannedCode(), "a failed resolve must not clear the dedup code")

	s.Listener.mu.Lock()
	defer s.Listener.mu.Unlock()
	s.Len(s.Listener.errors, 1)
	s.Zero(s.Beeper.count())
}

func (s *ControllerTestSuite) TestStaleResolveResultIsDiscarded() {
	resolver := &stubScanResolver{rec: model.TicketRecord{TicketNumber: "TKT-20250101-001"}}
	c := s.newController(&stubSource{img: image.NewRGBA(image.Rect(0, 0, 1, 1))}, &stubDecoder{payload: "TKT-20250101-001", ok: true}, resolver)

	ctx := context.Background()

	c.handleCommand(cmdStart)
	c.pumpFrame(ctx)

	res := <-c.results

	// A reset and a newer scan supersede the outstanding result.
	c.handleCommand(cmdReset)
	c.mu.Lock()
	c.resolveSeq++
	c.mu.Unlock()

	c.applyResolveResult(ctx, res)

	s.Equal(StateIdle, c.State())
	s.Nil(c.CurrentTicket())
}

func (s *ControllerTestSuite) TestRunLoop() {
	resolver := &stubScanResolver{
		rec:    model.TicketRecord{TicketNumber: "TKT-20250101-001"},
		source: "cache",
	}
	c := s.newController(&stubSource{img: image.NewRGBA(image.Rect(0, 0, 1, 1))}, &stubDecoder{payload: "TKT-20250101-001", ok: true}, resolver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go c.Run(ctx)

	c.Start()

	deadline := time.After(time.Second)
	for c.State() != StateDisplaying {
		select {
		case <-deadline:
			s.FailNow(fmt.Sprintf("controller stuck in state %s", c.State()))
		case <-time.After(5 * time.Millisecond):
		}
	}

	s.Equal(1, resolver.callCount())
	s.Require().NotNil(c.CurrentTicket())

	c.Reset()

	deadline = time.After(time.Second)
	for c.State() != StateIdle {
		select {
		case <-deadline:
			s.FailNow("controller did not reset")
		case <-time.After(5 * time.Millisecond):
		}
	}

	s.Nil(c.CurrentTicket())
}
