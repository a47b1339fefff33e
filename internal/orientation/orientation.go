// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Pose is an attitude in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// FromAcceleration derives a pose from three acceleration components
// (in any unit, only the ratios matter):
//
//	pitch = atan2(ax, sqrt(ay² + az²))
//	roll  = atan(ay / sqrt(ax² + az²))
//	yaw   = atan(az / sqrt(ax² + ay²))
//
// Non-finite inputs propagate to NaN/Inf angles; callers decide what that means.
func FromAcceleration(ax, ay, az float64) Pose {
	pitchRad := math.Atan2(ax, math.Hypot(ay, az))
	rollRad := math.Atan(ay / math.Hypot(ax, az))
	yawRad := math.Atan(az / math.Hypot(ax, ay))

	return Pose{
		Roll:  degrees(rollRad),
		Pitch: degrees(pitchRad),
		Yaw:   degrees(yawRad),
	}
}

func degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
