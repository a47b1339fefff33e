package attitude

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/relabs-tech/resource_sync/internal/clock"
	"github.com/relabs-tech/resource_sync/internal/orientation"
	"github.com/relabs-tech/resource_sync/internal/syncx"
)

var errInjected = errors.New("injected failure")

// scriptedLocker fails the n-th acquire or release (1-based, 0 = never).
type scriptedLocker struct {
	inner *syncx.Mutex

	mu          sync.Mutex
	acquires    int
	releases    int
	failAcquire int
	failRelease int
}

func (l *scriptedLocker) Acquire() error {
	l.mu.Lock()
	l.acquires++
	n := l.acquires
	l.mu.Unlock()
	if n == l.failAcquire {
		return &syncx.LockError{Op: "acquire", Name: "sample", Err: errInjected}
	}
	return l.inner.Acquire()
}

func (l *scriptedLocker) Release() error {
	l.mu.Lock()
	l.releases++
	n := l.releases
	l.mu.Unlock()
	if n == l.failRelease {
		return &syncx.LockError{Op: "release", Name: "sample", Err: errInjected}
	}
	return l.inner.Release()
}

// fixedVelocity cycles through values and counts how often it was asked.
type fixedVelocity struct {
	values []float64
	calls  int
}

func (f *fixedVelocity) Velocity() float64 {
	v := f.values[f.calls%len(f.values)]
	f.calls++
	return v
}

func fixedClock(ts clock.Timestamp) clock.Source {
	return clock.SourceFunc(func() clock.Timestamp { return ts })
}

func TestWriteTimestampLeavesOtherFields(t *testing.T) {
	ts := clock.Timestamp{Sec: 42, Nsec: 7}
	c := NewChannel(syncx.New("sample"), fixedClock(ts), &fixedVelocity{values: []float64{1}})
	c.sample = Sample{X: 1, Y: 2, Z: 3, Pose: orientation.Pose{Roll: 4, Pitch: 5, Yaw: 6}}

	if err := c.WriteTimestamp(); err != nil {
		t.Fatalf("WriteTimestamp: %v", err)
	}
	got, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	want := Sample{X: 1, Y: 2, Z: 3, Pose: orientation.Pose{Roll: 4, Pitch: 5, Yaw: 6}, SampleTime: ts}
	if got != want {
		t.Fatalf("sample = %+v, want %+v", got, want)
	}
}

func TestSampleAndDerive(t *testing.T) {
	vel := &fixedVelocity{values: []float64{100, -50, 25}}
	c := NewChannel(syncx.New("sample"), fixedClock(clock.Timestamp{Sec: 10}), vel)
	if err := c.WriteTimestamp(); err != nil {
		t.Fatal(err)
	}

	rec, err := c.SampleAndDerive(3)
	if err != nil {
		t.Fatalf("SampleAndDerive: %v", err)
	}
	if rec.Iteration != 3 {
		t.Errorf("Iteration = %d, want 3", rec.Iteration)
	}
	if rec.X != 10 || rec.Y != -5 || rec.Z != 2.5 {
		t.Errorf("accelerations = (%v, %v, %v), want (10, -5, 2.5)", rec.X, rec.Y, rec.Z)
	}
	if want := orientation.FromAcceleration(10, -5, 2.5); rec.Pose != want {
		t.Errorf("pose = %+v, want %+v", rec.Pose, want)
	}
	if rec.SampleTime != (clock.Timestamp{Sec: 10}) {
		t.Errorf("SampleTime = %v", rec.SampleTime)
	}
}

func TestSampleAndDeriveZeroTime(t *testing.T) {
	c := NewChannel(syncx.New("sample"), fixedClock(clock.Timestamp{}), &fixedVelocity{values: []float64{5, -5, 0}})

	rec, err := c.SampleAndDerive(0)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(rec.X, 1) || !math.IsInf(rec.Y, -1) || !math.IsNaN(rec.Z) {
		t.Errorf("accelerations with zero sample time = (%v, %v, %v), want (+Inf, -Inf, NaN)", rec.X, rec.Y, rec.Z)
	}
	if !math.IsNaN(rec.Yaw) {
		t.Errorf("yaw = %v, want NaN", rec.Yaw)
	}
}

func TestDerivedAnglesBounded(t *testing.T) {
	c := NewChannel(syncx.New("sample"), fixedClock(clock.Timestamp{Sec: 3, Nsec: 250}), NewRandomVelocity(9, 250))
	if err := c.WriteTimestamp(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 500; i++ {
		rec, err := c.SampleAndDerive(i)
		if err != nil {
			t.Fatal(err)
		}
		if rec.X == 0 || rec.Y == 0 || rec.Z == 0 {
			continue
		}
		for name, v := range map[string]float64{"pitch": rec.Pitch, "roll": rec.Roll, "yaw": rec.Yaw} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= -90 || v >= 90 {
				t.Fatalf("iteration %d: %s = %v out of (-90, 90)", i, name, v)
			}
		}
	}
}

func TestRandomVelocityRangeAndSeed(t *testing.T) {
	a := NewRandomVelocity(1, 250)
	b := NewRandomVelocity(1, 250)
	for i := 0; i < 1000; i++ {
		va, vb := a.Velocity(), b.Velocity()
		if va != vb {
			t.Fatalf("same seed diverged at %d: %v != %v", i, va, vb)
		}
		if va < -250 || va > 250 || va != math.Trunc(va) {
			t.Fatalf("velocity %v outside integer range [-250, 250]", va)
		}
	}
}

func TestRunSeededFiveIterations(t *testing.T) {
	c := NewChannel(syncx.New("sample"), clock.Monotonic(), NewRandomVelocity(12345, 250))

	var records []Record
	outcomes := Run(c, RunOptions{
		Iterations: 5,
		Emit:       func(r Record) { records = append(records, r) },
	})

	for _, o := range outcomes {
		if o.Err != nil || o.Completed != 5 {
			t.Fatalf("%s outcome = %+v", o.Role, o)
		}
	}
	if len(records) != 5 {
		t.Fatalf("got %d records, want 5", len(records))
	}
	for i, r := range records {
		if r.Iteration != i {
			t.Errorf("record %d has iteration %d", i, r.Iteration)
		}
		if i > 0 && r.SampleTime.Before(records[i-1].SampleTime) {
			t.Errorf("sample time decreased: %v then %v", records[i-1].SampleTime, r.SampleTime)
		}
	}
}

func TestRunSampleTimeNonDecreasing(t *testing.T) {
	for run := 0; run < 20; run++ {
		c := NewChannel(syncx.New("sample"), clock.Monotonic(), NewRandomVelocity(uint64(run), 250))

		var prev clock.Timestamp
		count := 0
		Run(c, RunOptions{
			Iterations: DefaultIterations,
			Emit: func(r Record) {
				if r.SampleTime.Before(prev) {
					t.Errorf("run %d iteration %d: sample time %v before %v", run, r.Iteration, r.SampleTime, prev)
				}
				prev = r.SampleTime
				count++
			},
		})
		if count != DefaultIterations {
			t.Fatalf("run %d emitted %d records", run, count)
		}
	}
}

func TestDeriverStopsOnAcquireFailure(t *testing.T) {
	lock := &scriptedLocker{inner: syncx.New("sample"), failAcquire: 3}
	vel := &fixedVelocity{values: []float64{1, 2, 3}}
	c := NewChannel(lock, fixedClock(clock.Timestamp{Sec: 1}), vel)

	emitted := 0
	out := RunDeriver(c, 10, func(Record) { emitted++ })

	var le *syncx.LockError
	if !errors.As(out.Err, &le) || le.Op != "acquire" {
		t.Fatalf("Err = %v, want acquire LockError", out.Err)
	}
	if out.Completed != 2 || emitted != 2 {
		t.Errorf("Completed = %d, emitted = %d, want 2 and 2", out.Completed, emitted)
	}
	// The body must not run after a failed acquire.
	if vel.calls != 6 {
		t.Errorf("velocity drawn %d times, want 6", vel.calls)
	}
	if lock.inner.Held() {
		t.Error("lock left held after failed acquire")
	}
}

func TestDeriverStopsOnReleaseFailure(t *testing.T) {
	lock := &scriptedLocker{inner: syncx.New("sample"), failRelease: 1}
	c := NewChannel(lock, fixedClock(clock.Timestamp{Sec: 1}), &fixedVelocity{values: []float64{1}})

	emitted := 0
	out := RunDeriver(c, 10, func(Record) { emitted++ })

	if !errors.Is(out.Err, errInjected) {
		t.Fatalf("Err = %v, want injected failure", out.Err)
	}
	if out.Completed != 0 || emitted != 0 {
		t.Errorf("Completed = %d, emitted = %d, want 0 and 0", out.Completed, emitted)
	}
}

func TestSamplerStopsOnFailure(t *testing.T) {
	lock := &scriptedLocker{inner: syncx.New("sample"), failAcquire: 4}
	c := NewChannel(lock, clock.Monotonic(), &fixedVelocity{values: []float64{1}})

	out := RunSampler(c, 10)
	if out.Role != RoleSampler || out.Completed != 3 || !errors.Is(out.Err, errInjected) {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestRunAbsorbsWorkerFailure(t *testing.T) {
	lock := &scriptedLocker{inner: syncx.New("sample"), failAcquire: 50}
	c := NewChannel(lock, clock.Monotonic(), NewRandomVelocity(3, 250))

	outcomes := Run(c, RunOptions{Iterations: DefaultIterations})
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes", len(outcomes))
	}

	failed := 0
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
			if o.Completed >= DefaultIterations {
				t.Errorf("%s failed after completing all iterations", o.Role)
			}
		case o.Completed != DefaultIterations:
			t.Errorf("%s completed %d iterations without error", o.Role, o.Completed)
		}
	}
	if failed != 1 {
		t.Fatalf("%d workers failed, want exactly 1", failed)
	}
}
