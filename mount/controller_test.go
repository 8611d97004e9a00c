package mount

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/skyfoundry/mount-commander/internal/clock"
	"github.com/skyfoundry/mount-commander/internal/protocol"
	"github.com/skyfoundry/mount-commander/internal/transport"
	"github.com/skyfoundry/mount-commander/model"
)

type step struct {
	reply   []byte
	readErr error
}

type scriptTransport struct {
	opens  int
	closes int
	script []step
	cur    step
	writes [][]byte
}

func (f *scriptTransport) Open() error {
	f.opens++
	return nil
}

func (f *scriptTransport) Close() error {
	f.closes++
	return nil
}

func (f *scriptTransport) Write(p []byte) error {
	f.writes = append(f.writes, append([]byte(nil), p...))
	if len(f.script) == 0 {
		f.cur = step{readErr: transport.ErrTimeout}
		return nil
	}
	f.cur = f.script[0]
	f.script = f.script[1:]
	return nil
}

func (f *scriptTransport) Read(p []byte) (int, error) {
	if len(f.cur.reply) == 0 {
		if f.cur.readErr != nil {
			return 0, f.cur.readErr
		}
		return 0, transport.ErrTimeout
	}
	n := copy(p, f.cur.reply)
	f.cur.reply = f.cur.reply[n:]
	return n, nil
}

func handshake() step {
	return step{reply: []byte{protocol.HandshakeSentinel, '#'}}
}

func ack() step {
	return step{reply: []byte{'#'}}
}

func testController(t *testing.T, steps ...step) (*Controller, *scriptTransport) {
	t.Helper()
	tr := &scriptTransport{script: steps}
	cfg, err := model.NewTCPConfig("localhost", 9999)
	if err != nil {
		t.Fatalf("NewTCPConfig: %v", err)
	}
	return newController(cfg, tr, Options{Clock: clock.NewFake(time.Unix(0, 0))}), tr
}

func TestGotoRejectsOutOfRangeWithoutIO(t *testing.T) {
	tests := []struct {
		name string
		call func(*Controller) error
	}{
		{"ra high", func(c *Controller) error { return c.GotoRADec(context.Background(), 24.0, 0) }},
		{"ra negative", func(c *Controller) error { return c.GotoRADec(context.Background(), -0.1, 0) }},
		{"dec high", func(c *Controller) error { return c.GotoRADec(context.Background(), 12, 90.1) }},
		{"az high", func(c *Controller) error { return c.GotoAltAz(context.Background(), 360.0, 0) }},
		{"alt low", func(c *Controller) error { return c.GotoAltAz(context.Background(), 0, -90.5) }},
		{"sync dec", func(c *Controller) error { return c.SyncRADec(context.Background(), 12, -91) }},
		{"rate high", func(c *Controller) error { return c.MoveFixed(context.Background(), model.AzimuthPositive, 10) }},
		{"year pre-2000", func(c *Controller) error {
			return c.SetTime(context.Background(), time.Date(1999, time.December, 31, 23, 59, 0, 0, time.UTC))
		}},
		{"year post-2255", func(c *Controller) error {
			return c.SetTime(context.Background(), time.Date(2256, time.January, 1, 0, 0, 0, 0, time.UTC))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, tr := testController(t)
			if err := tt.call(c); err == nil {
				t.Fatal("expected a validation error")
			}
			if tr.opens != 0 || len(tr.writes) != 0 {
				t.Fatalf("validation must reject before any transport call; opens=%d writes=%d",
					tr.opens, len(tr.writes))
			}
		})
	}
}

func TestGetPositionRADecPrecise(t *testing.T) {
	// RA 6h encodes as a quarter revolution, Dec -45 as 315 degrees.
	c, _ := testController(t,
		handshake(),
		step{reply: []byte("40000000,E0000000#")},
	)

	pos, err := c.GetPositionRADec(context.Background())
	if err != nil {
		t.Fatalf("GetPositionRADec: %v", err)
	}
	if math.Abs(pos.RAHours-6) > 1e-6 {
		t.Fatalf("RA = %v, want 6", pos.RAHours)
	}
	if math.Abs(pos.DecDegrees-(-45)) > 1e-6 {
		t.Fatalf("Dec = %v, want -45", pos.DecDegrees)
	}
}

func TestGetPositionAltAzPrecise(t *testing.T) {
	c, tr := testController(t,
		handshake(),
		step{reply: []byte("80000000,20000000#")},
	)

	pos, err := c.GetPositionAltAz(context.Background())
	if err != nil {
		t.Fatalf("GetPositionAltAz: %v", err)
	}
	if math.Abs(pos.AzimuthDegrees-180) > 1e-6 {
		t.Fatalf("azimuth = %v, want 180", pos.AzimuthDegrees)
	}
	if math.Abs(pos.AltitudeDegrees-45) > 1e-6 {
		t.Fatalf("altitude = %v, want 45", pos.AltitudeDegrees)
	}
	// precise opcode on the wire
	if got := tr.writes[len(tr.writes)-1][0]; got != 'z' {
		t.Fatalf("opcode = %q, want 'z'", got)
	}
}

func TestGarbledPositionIsAnErrorNotZero(t *testing.T) {
	c, _ := testController(t,
		handshake(),
		step{reply: []byte("40000000+E0000000#")},
	)

	_, err := c.GetPositionRADec(context.Background())
	if !errors.Is(err, protocol.ErrMalformedReply) {
		t.Fatalf("error = %v, want ErrMalformedReply", err)
	}
}

func TestIsSlewingReflectsEachPoll(t *testing.T) {
	c, tr := testController(t,
		handshake(),
		step{reply: []byte("1#")},
		step{reply: []byte("0#")},
	)

	first, err := c.IsSlewing(context.Background())
	if err != nil || !first {
		t.Fatalf("first poll = %v, %v; want true", first, err)
	}
	second, err := c.IsSlewing(context.Background())
	if err != nil || second {
		t.Fatalf("second poll = %v, %v; want false", second, err)
	}
	// two distinct device polls, no caching
	polls := 0
	for _, w := range tr.writes {
		if w[0] == 'L' {
			polls++
		}
	}
	if polls != 2 {
		t.Fatalf("device polls = %d, want 2", polls)
	}
}

func TestOneFailureOneReconnect(t *testing.T) {
	c, tr := testController(t,
		handshake(),
		step{readErr: transport.ErrTimeout}, // injected failure
		handshake(),                         // reconnect handshake
		step{reply: []byte("0#")},           // resubmitted command
	)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	slewing, err := c.IsSlewing(context.Background())
	if err != nil {
		t.Fatalf("IsSlewing after one injected failure: %v", err)
	}
	if slewing {
		t.Fatal("slewing = true, want false")
	}
	if tr.opens != 2 {
		t.Fatalf("transport opens = %d, want 2 (initial + one reconnect)", tr.opens)
	}
}

func TestTwoFailuresSurface(t *testing.T) {
	c, tr := testController(t,
		handshake(),
		step{readErr: transport.ErrTimeout},
		handshake(),
		step{readErr: transport.ErrTimeout},
	)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	_, err := c.IsSlewing(context.Background())
	if !errors.Is(err, transport.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if tr.opens != 2 {
		t.Fatalf("transport opens = %d, want 2 (no third attempt)", tr.opens)
	}
}

func TestMoveForTimeStopsAfterWait(t *testing.T) {
	tr := &scriptTransport{script: []step{handshake(), ack(), ack()}}
	cfg, err := model.NewTCPConfig("localhost", 9999)
	if err != nil {
		t.Fatalf("NewTCPConfig: %v", err)
	}
	fake := clock.NewFake(time.Unix(0, 0))
	c := newController(cfg, tr, Options{Clock: fake})

	if err := c.MoveForTime(context.Background(), model.AltitudePositive, 5, 2*time.Second); err != nil {
		t.Fatalf("MoveForTime: %v", err)
	}

	sleeps := fake.Sleeps()
	if len(sleeps) != 1 || sleeps[0] != 2*time.Second {
		t.Fatalf("sleeps = %v, want [2s]", sleeps)
	}
	var motion [][]byte
	for _, w := range tr.writes {
		if w[0] == 'P' {
			motion = append(motion, w)
		}
	}
	if len(motion) != 2 {
		t.Fatalf("motion commands = %d, want move then stop", len(motion))
	}
	if motion[0][4] != 5 || motion[1][4] != 0 {
		t.Fatalf("rates = %d then %d, want 5 then 0", motion[0][4], motion[1][4])
	}
	if motion[0][2] != 17 || motion[1][2] != 17 {
		t.Fatal("both commands must address the altitude axis")
	}
}

func TestMoveForTimeStopsOnCancelledWait(t *testing.T) {
	tr := &scriptTransport{script: []step{handshake(), ack(), ack()}}
	cfg, err := model.NewTCPConfig("localhost", 9999)
	if err != nil {
		t.Fatalf("NewTCPConfig: %v", err)
	}
	c := newController(cfg, tr, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.MoveForTime(ctx, model.AzimuthNegative, 3, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	stops := 0
	for _, w := range tr.writes {
		if w[0] == 'P' && w[4] == 0 {
			stops++
		}
	}
	if stops != 1 {
		t.Fatalf("stop commands = %d, want 1 even on a cancelled wait", stops)
	}
}

func TestVersionAndModel(t *testing.T) {
	c, _ := testController(t,
		handshake(),
		step{reply: []byte{4, 22, '#'}},
		step{reply: []byte{6, '#'}},
	)

	version, err := c.GetVersion(context.Background())
	if err != nil || version != "4.22" {
		t.Fatalf("version = %q, %v; want \"4.22\"", version, err)
	}
	mountModel, err := c.GetModel(context.Background())
	if err != nil || mountModel != 6 {
		t.Fatalf("model = %d, %v; want 6", mountModel, err)
	}
}

func TestTrackingRoundTrip(t *testing.T) {
	c, _ := testController(t,
		handshake(),
		ack(),
		step{reply: []byte{byte(model.TrackingAltAz), '#'}},
	)

	if err := c.SetTrackingMode(context.Background(), model.TrackingAltAz); err != nil {
		t.Fatalf("SetTrackingMode: %v", err)
	}
	mode, err := c.GetTrackingMode(context.Background())
	if err != nil || mode != model.TrackingAltAz {
		t.Fatalf("mode = %v, %v; want alt-az", mode, err)
	}
}
