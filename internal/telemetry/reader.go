// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/resource_sync/internal/attitude"
	"github.com/relabs-tech/resource_sync/internal/clock"
)

// ErrType is returned for valid NMEA sentences that are not $PATT.
var ErrType = errors.New("telemetry: unexpected sentence type")

// TypeATT is the sentence type of $PATT once the proprietary "P" talker is
// split off.
const TypeATT = "ATT"

// PATT is a decoded $PATT sentence. Empty numeric fields are not Valid.
type PATT struct {
	nmea.BaseSentence
	Iteration  int64
	SampleTime string
	X          nmea.Float64
	Y          nmea.Float64
	Z          nmea.Float64
	Yaw        nmea.Float64
	Pitch      nmea.Float64
	Roll       nmea.Float64
}

func newPATT(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	return PATT{
		BaseSentence: s,
		Iteration:    p.Int64(0, "iteration"),
		SampleTime:   p.String(1, "sample time"),
		X:            p.NullFloat64(2, "x"),
		Y:            p.NullFloat64(3, "y"),
		Z:            p.NullFloat64(4, "z"),
		Yaw:          p.NullFloat64(5, "yaw"),
		Pitch:        p.NullFloat64(6, "pitch"),
		Roll:         p.NullFloat64(7, "roll"),
	}, p.Err()
}

var parser = nmea.SentenceParser{
	CustomParsers: map[string]nmea.ParserFunc{
		TypeATT: newPATT,
	},
}

// Parse decodes one $PATT sentence. Fields sent empty decode as NaN.
func Parse(line string) (attitude.Record, error) {
	var rec attitude.Record

	sentence, err := parser.Parse(strings.TrimSpace(line))
	if err != nil {
		return rec, fmt.Errorf("telemetry: %w", err)
	}
	m, ok := sentence.(PATT)
	if !ok {
		return rec, fmt.Errorf("%w: %s", ErrType, sentence.Prefix())
	}

	ts, err := parseTimestamp(m.SampleTime)
	if err != nil {
		return rec, err
	}

	rec.Iteration = int(m.Iteration)
	rec.SampleTime = ts
	rec.X, rec.Y, rec.Z = value(m.X), value(m.Y), value(m.Z)
	rec.Yaw, rec.Pitch, rec.Roll = value(m.Yaw), value(m.Pitch), value(m.Roll)
	return rec, nil
}

func value(f nmea.Float64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Value
}

func parseTimestamp(s string) (clock.Timestamp, error) {
	secStr, nsecStr, ok := strings.Cut(s, ".")
	if !ok {
		return clock.Timestamp{}, fmt.Errorf("telemetry: bad timestamp %q", s)
	}
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return clock.Timestamp{}, fmt.Errorf("telemetry: timestamp seconds: %w", err)
	}
	nsec, err := strconv.ParseInt(nsecStr, 10, 64)
	if err != nil || len(nsecStr) != 9 {
		return clock.Timestamp{}, fmt.Errorf("telemetry: bad timestamp nanoseconds %q", nsecStr)
	}
	return clock.Timestamp{Sec: sec, Nsec: nsec}, nil
}

// Scan reads sentences from r until it fails, calling fn for each record.
// Lines that are not valid $PATT sentences are skipped and counted.
func Scan(r io.Reader, fn func(attitude.Record)) (skipped int, err error) {
	reader := bufio.NewReader(r)
	for {
		var line string
		line, err = reader.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			rec, perr := Parse(line)
			if perr != nil {
				skipped++
			} else {
				fn(rec)
			}
		}
		if err != nil {
			return skipped, err
		}
	}
}
