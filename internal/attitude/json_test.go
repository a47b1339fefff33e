package attitude

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/relabs-tech/resource_sync/internal/clock"
	"github.com/relabs-tech/resource_sync/internal/orientation"
)

func TestRecordJSONNonFinite(t *testing.T) {
	rec := Record{
		Iteration: 4,
		Sample: Sample{
			X:          math.Inf(1),
			Y:          2,
			Z:          math.NaN(),
			Pose:       orientation.Pose{Roll: 1, Pitch: math.NaN(), Yaw: 3},
			SampleTime: clock.Timestamp{},
		},
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"iteration":4`, `"x":null`, `"y":2`, `"pitch":null`, `"sample_time":{"sec":0,"nsec":0}`} {
		if !strings.Contains(s, want) {
			t.Errorf("%s missing %s", s, want)
		}
	}

	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Iteration != 4 || back.Y != 2 || back.Roll != 1 || back.Yaw != 3 {
		t.Errorf("decoded = %+v", back)
	}
	if !math.IsNaN(back.X) || !math.IsNaN(back.Z) || !math.IsNaN(back.Pitch) {
		t.Errorf("non-finite fields not decoded as NaN: %+v", back)
	}
}
