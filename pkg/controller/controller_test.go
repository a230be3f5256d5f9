package controller

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/tuffrabit/tinygo-epaper-results/pkg/buttons"
	"github.com/tuffrabit/tinygo-epaper-results/pkg/display"
	"github.com/tuffrabit/tinygo-epaper-results/pkg/status"
)

type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

type testPin struct {
	name string
	high bool
	rec  *recorder
}

func (p *testPin) Set(high bool) {
	if p.high != high {
		p.rec.add("%s=%v", p.name, high)
	}
	p.high = high
}

func (p *testPin) Get() bool { return p.high }

type testPanel struct {
	rec    *recorder
	frames []bool // blank or not
	err    error
}

func (p *testPanel) Present(b *display.Bitmap) error {
	p.frames = append(p.frames, b.Blank())
	if b.Blank() {
		p.rec.add("present blank")
	} else {
		p.rec.add("present")
	}
	return p.err
}

type testJournal struct {
	lines []string
	err   error
}

func (j *testJournal) Append(line string) error {
	j.lines = append(j.lines, line)
	return j.err
}

type fixture struct {
	c          *Controller
	rec        *recorder
	panel      *testPanel
	red, green *testPin
	execute    *testPin
	mode       *testPin
	journal    *testJournal
	logs       *bytes.Buffer
}

func newTestController(t *testing.T) *fixture {
	t.Helper()
	rec := &recorder{}
	f := &fixture{
		rec:     rec,
		panel:   &testPanel{rec: rec},
		red:     &testPin{name: "red", rec: rec},
		green:   &testPin{name: "green", rec: rec},
		execute: &testPin{name: "execute", high: true},
		mode:    &testPin{name: "mode", high: true},
		journal: &testJournal{},
		logs:    &bytes.Buffer{},
	}
	renderer := display.NewRenderer(f.panel, display.NewBitmap(128, 250), display.Layout{X: 5, Y: 5})
	f.c = New(renderer, status.NewSignaler(f.red, f.green), buttons.NewPanel(f.execute, f.mode), Options{
		Capacity: 5,
		Journal:  f.journal,
		Logger:   slog.New(slog.NewTextHandler(f.logs, nil)),
	})
	f.c.sleep = func(d time.Duration) { rec.add("sleep %v", d) }
	return f
}

func TestDisplayMessageScenario(t *testing.T) {
	f := newTestController(t)

	if err := f.c.DisplayMessage("Error: sensor timeout"); err != nil {
		t.Fatalf("DisplayMessage failed: %v", err)
	}
	if f.c.LedState() != status.RedOn || !f.red.high || f.green.high {
		t.Errorf("expected red on, got state %v red=%v green=%v", f.c.LedState(), f.red.high, f.green.high)
	}
	if got := f.c.Log(); !slices.Equal(got, []string{"Error: sensor timeout"}) {
		t.Errorf("unexpected log %v", got)
	}

	f.c.DisplayMessage("Succes: retry ok")
	if f.c.LedState() != status.GreenOn || f.red.high || !f.green.high {
		t.Errorf("expected green on, got state %v red=%v green=%v", f.c.LedState(), f.red.high, f.green.high)
	}
	if got := f.c.Log(); !slices.Equal(got, []string{"Error: sensor timeout", "Succes: retry ok"}) {
		t.Errorf("unexpected log %v", got)
	}

	for i := 0; i < 4; i++ {
		f.c.DisplayMessage(fmt.Sprintf("plain %d", i))
	}
	want := []string{"Succes: retry ok", "plain 0", "plain 1", "plain 2", "plain 3"}
	if got := f.c.Log(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if f.c.LedState() != status.GreenOn {
		t.Errorf("plain messages changed LED state to %v", f.c.LedState())
	}

	if len(f.panel.frames) != 6 {
		t.Errorf("expected one frame per message, got %d", len(f.panel.frames))
	}
	if len(f.journal.lines) != 6 {
		t.Errorf("expected 6 journal lines, got %d", len(f.journal.lines))
	}
	if !strings.Contains(f.logs.String(), "Display : Succes: retry ok") {
		t.Errorf("diagnostic line missing from log output:\n%s", f.logs.String())
	}
}

func TestEndOfTest(t *testing.T) {
	f := newTestController(t)
	f.c.DisplayMessage("Error : Commutation test failed")
	f.rec.events = nil

	if err := f.c.DisplayMessage("end of test: servo1"); err != nil {
		t.Fatalf("DisplayMessage failed: %v", err)
	}

	want := []string{"present", "sleep 3s", "present blank", "red=false"}
	if !slices.Equal(f.rec.events, want) {
		t.Errorf("expected events %v, got %v", want, f.rec.events)
	}
	if f.c.LedState() != status.Neither || f.red.high || f.green.high {
		t.Errorf("expected LEDs off, got %v", f.c.LedState())
	}

	// The screen is wiped but the log still holds the session.
	if got := f.c.Log(); !slices.Equal(got, []string{"Error : Commutation test failed", "end of test: servo1"}) {
		t.Errorf("unexpected log %v", got)
	}
}

func TestEndOfTestNeedsExactPrefix(t *testing.T) {
	f := newTestController(t)

	for _, msg := range []string{"End of test: x", "end of test", " end of test: x"} {
		f.c.DisplayMessage(msg)
	}
	for _, e := range f.rec.events {
		if strings.HasPrefix(e, "sleep") {
			t.Fatalf("unexpected end-of-test sequence: %v", f.rec.events)
		}
	}
}

func TestPanelErrorStillUpdatesState(t *testing.T) {
	f := newTestController(t)
	f.panel.err = errors.New("busy")

	err := f.c.DisplayMessage("end of test: brake")
	if !errors.Is(err, display.ErrPresent) {
		t.Fatalf("expected ErrPresent, got %v", err)
	}
	if got := f.c.Log(); !slices.Equal(got, []string{"end of test: brake"}) {
		t.Errorf("unexpected log %v", got)
	}
	if len(f.panel.frames) != 2 {
		t.Errorf("expected render and blank attempts, got %d frames", len(f.panel.frames))
	}
}

func TestJournalErrorIgnored(t *testing.T) {
	f := newTestController(t)
	f.journal.err = errors.New("full")

	if err := f.c.DisplayMessage("Success: Test"); err != nil {
		t.Errorf("journal error leaked: %v", err)
	}
	if !strings.Contains(f.logs.String(), "journal append failed") {
		t.Error("expected journal warning in log output")
	}
}

func TestButtons(t *testing.T) {
	f := newTestController(t)
	f.execute.high = false

	got := f.c.Buttons()
	if want := (buttons.State{Execute: buttons.Pressed, Mode: buttons.Direction}); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if len(f.rec.events) != 0 {
		t.Errorf("button query had side effects: %v", f.rec.events)
	}
}
