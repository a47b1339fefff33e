package resources

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/relabs-tech/resource_sync/internal/syncx"
)

const testHold = 50 * time.Millisecond

// simulateAsync runs Simulate on its own goroutine so a deadlocked run can
// be observed without blocking the test.
func simulateAsync(p *Pair, opts Options) <-chan Report {
	done := make(chan Report, 1)
	go func() { done <- Simulate(p, opts) }()
	return done
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) observe(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) states(actor int) []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []State
	for _, e := range l.events {
		if e.Actor == actor {
			out = append(out, e.State)
		}
	}
	return out
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		arg  string
		want Mode
	}{
		{"safe", ModeSafe},
		{"SAFE", ModeSafe},
		{"race", ModeRace},
		{"unsafe", ModeUnsafe},
		{"", ModeUnsafe},
		{"whatever", ModeUnsafe},
	}
	for _, tt := range tests {
		if got := ParseMode(tt.arg); got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}

func TestModePolicy(t *testing.T) {
	tests := []struct {
		mode     Mode
		safe     bool
		noWait   bool
		wantHold time.Duration
	}{
		{ModeUnsafe, false, false, time.Second},
		{ModeSafe, true, false, time.Second},
		{ModeRace, false, true, 0},
	}
	for _, tt := range tests {
		p := tt.mode.Policy(time.Second)
		if p.Safe != tt.safe || p.NoWait != tt.noWait {
			t.Errorf("%s policy = %+v", tt.mode, p)
		}
		if got := p.holdDelay(); got != tt.wantHold {
			t.Errorf("%s hold delay = %v, want %v", tt.mode, got, tt.wantHold)
		}
	}
}

func TestActorStateMachine(t *testing.T) {
	p := NewPair()
	var log eventLog

	out := p.Run(Actor2, 0, log.observe)
	if out.Err != nil || out.State != Released {
		t.Fatalf("outcome = %+v", out)
	}
	want := []State{Idle, HoldingFirst, HoldingBoth, Released}
	got := log.states(2)
	if len(got) != len(want) {
		t.Fatalf("states = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("states = %v, want %v", got, want)
		}
	}
	if c := p.UnsafeCounts(); c != (Counts{A: 1, B: 1}) {
		t.Errorf("counts = %+v, want A=1 B=1", c)
	}
	if first := log.events[1]; first.First != B || first.Second != A {
		t.Errorf("actor 2 order = %s, %s; want B, A", first.First, first.Second)
	}
}

func TestSafeMode(t *testing.T) {
	p := NewPair()
	var log eventLog

	var report Report
	select {
	case report = <-simulateAsync(p, Options{Policy: ModeSafe.Policy(testHold), Observe: log.observe}):
	case <-time.After(5 * time.Second):
		t.Fatal("safe mode did not complete")
	}

	if !report.AfterFirstValid || report.AfterFirst != (Counts{A: 1, B: 1}) {
		t.Errorf("counts after actor 1 = %+v (valid=%v), want A=1 B=1", report.AfterFirst, report.AfterFirstValid)
	}
	if report.InFlightValid {
		t.Error("safe mode took an in-flight read")
	}
	if report.Final != (Counts{A: 2, B: 2}) {
		t.Errorf("final counts = %+v, want A=2 B=2", report.Final)
	}
	for _, o := range report.Outcomes {
		if o.Err != nil || o.State != Released {
			t.Errorf("actor %d outcome = %+v", o.Actor, o)
		}
	}

	// Actor 1 finished every state before actor 2 started.
	log.mu.Lock()
	for i, e := range log.events {
		if want := 1 + i/4; e.Actor != want {
			t.Errorf("event %d from actor %d, want actor %d", i, e.Actor, want)
		}
	}
	log.mu.Unlock()

	// Both resources are free: a fresh actor gets them immediately.
	done := make(chan Outcome, 1)
	go func() { done <- p.Run(Actor1, 0, nil) }()
	select {
	case o := <-done:
		if o.Err != nil {
			t.Fatalf("fresh actor: %v", o.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("fresh actor blocked after safe run")
	}
	if err := p.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
}

func TestUnsafeModeDeadlocks(t *testing.T) {
	if raceEnabled {
		t.Skip("unsafe mode reads counters without synchronization")
	}
	p := NewPair()
	var log eventLog

	select {
	case r := <-simulateAsync(p, Options{Policy: ModeUnsafe.Policy(testHold), Observe: log.observe}):
		t.Fatalf("unsafe mode completed: %+v", r)
	case <-time.After(500 * time.Millisecond):
	}

	// Both actors hold their first resource and never get further.
	for _, actor := range []int{1, 2} {
		states := log.states(actor)
		if len(states) != 2 || states[1] != HoldingFirst {
			t.Errorf("actor %d states = %v, want [idle holding-first]", actor, states)
		}
	}
	for _, l := range p.locks {
		if !l.(*syncx.Mutex).Held() {
			t.Errorf("resource %s not held in deadlock", l.(*syncx.Mutex).Name())
		}
	}
	if err := p.Destroy(); !errors.Is(err, syncx.ErrBusy) {
		t.Errorf("destroy during deadlock: got %v, want ErrBusy", err)
	}
}

func TestRaceModeCompletes(t *testing.T) {
	if raceEnabled {
		t.Skip("race mode reads counters without synchronization")
	}
	const runs = 50
	completed := 0
	for i := 0; i < runs; i++ {
		p := NewPair()
		select {
		case r := <-simulateAsync(p, Options{Policy: ModeRace.Policy(testHold)}):
			completed++
			if !r.InFlightValid {
				t.Fatal("race mode took no in-flight read")
			}
			for _, v := range []int{r.InFlight.A, r.InFlight.B} {
				if v < 0 || v > 2 {
					t.Fatalf("run %d: in-flight counts %+v out of [0, 2]", i, r.InFlight)
				}
			}
			if r.Final != (Counts{A: 2, B: 2}) {
				t.Fatalf("run %d: final counts = %+v", i, r.Final)
			}
		case <-time.After(2 * time.Second):
			t.Logf("run %d deadlocked", i)
		}
	}
	// The reversed order still leaves a tiny window; allow for it.
	if completed < runs-2 {
		t.Fatalf("only %d of %d race runs completed", completed, runs)
	}
}

// failingLock fails every acquire.
type failingLock struct{}

func (failingLock) Acquire() error {
	return &syncx.LockError{Op: "acquire", Name: "B", Err: errors.New("injected")}
}
func (failingLock) Release() error { return nil }

func TestActorFailureLeaksFirstResource(t *testing.T) {
	a := syncx.New("A")
	p := NewPairWithLocks(a, failingLock{})
	var log eventLog

	out := p.Run(Actor1, 0, log.observe)
	var le *syncx.LockError
	if !errors.As(out.Err, &le) || le.Name != "B" {
		t.Fatalf("Err = %v, want LockError on B", out.Err)
	}
	if out.State != HoldingFirst {
		t.Errorf("State = %s, want holding-first", out.State)
	}
	if !a.Held() {
		t.Error("failed actor released A; the leak must be preserved")
	}
	if c := p.UnsafeCounts(); c != (Counts{A: 1}) {
		t.Errorf("counts = %+v, want A=1 B=0", c)
	}
	if err := p.Destroy(); !errors.Is(err, syncx.ErrBusy) {
		t.Errorf("destroy with leaked A: got %v, want ErrBusy", err)
	}

	last := log.events[len(log.events)-1]
	if last.Err == "" {
		t.Error("failure was not reported as an event")
	}
}

func TestCountsLocked(t *testing.T) {
	p := NewPair()
	p.Run(Actor1, 0, nil)
	c, err := p.Counts()
	if err != nil {
		t.Fatal(err)
	}
	if c != (Counts{A: 1, B: 1}) {
		t.Errorf("Counts() = %+v", c)
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{Event{Actor: 1, State: Idle, First: A, Second: B}, "THREAD 1 grabbing resources"},
		{Event{Actor: 2, State: HoldingFirst, First: B, Second: A}, "THREAD 2 got B, trying for A"},
		{Event{Actor: 1, State: HoldingBoth, First: A, Second: B}, "THREAD 1 got A and B"},
		{Event{Actor: 2, State: Released, First: B, Second: A}, "THREAD 2 done"},
	}
	for _, tt := range tests {
		if got := tt.ev.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestEventJSON(t *testing.T) {
	ev := Event{Actor: 2, State: HoldingFirst, First: B, Second: A}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"state":"holding-first"`) || !strings.Contains(string(data), `"first":"B"`) {
		t.Errorf("unexpected encoding %s", data)
	}

	var back Event
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Actor != 2 || back.State != HoldingFirst || back.First != B || back.Second != A {
		t.Errorf("round trip = %+v", back)
	}

	if err := json.Unmarshal([]byte(`{"state":"sleeping"}`), &back); err == nil {
		t.Error("unknown state decoded without error")
	}
}
