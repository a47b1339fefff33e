package attitude

import (
	"encoding/json"
	"math"

	"github.com/relabs-tech/resource_sync/internal/clock"
	"github.com/relabs-tech/resource_sync/internal/orientation"
)

// recordJSON is the wire form of a Record. Non-finite values, which a zero
// sample time produces, are encoded as null.
type recordJSON struct {
	Iteration  int             `json:"iteration"`
	X          *float64        `json:"x"`
	Y          *float64        `json:"y"`
	Z          *float64        `json:"z"`
	Yaw        *float64        `json:"yaw"`
	Pitch      *float64        `json:"pitch"`
	Roll       *float64        `json:"roll"`
	SampleTime clock.Timestamp `json:"sample_time"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Iteration:  r.Iteration,
		X:          finite(r.X),
		Y:          finite(r.Y),
		Z:          finite(r.Z),
		Yaw:        finite(r.Yaw),
		Pitch:      finite(r.Pitch),
		Roll:       finite(r.Roll),
		SampleTime: r.SampleTime,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Record{
		Iteration: w.Iteration,
		Sample: Sample{
			X: orNaN(w.X),
			Y: orNaN(w.Y),
			Z: orNaN(w.Z),
			Pose: orientation.Pose{
				Roll:  orNaN(w.Roll),
				Pitch: orNaN(w.Pitch),
				Yaw:   orNaN(w.Yaw),
			},
			SampleTime: w.SampleTime,
		},
	}
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
