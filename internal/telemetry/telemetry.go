// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry carries attitude records over a serial line as
// NMEA-framed proprietary sentences:
//
//	$PATT,<iteration>,<sec.nsec>,<x>,<y>,<z>,<yaw>,<pitch>,<roll>*<checksum>
//
// Non-finite values are sent as empty fields.
package telemetry

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/resource_sync/internal/attitude"
)

// SentenceType is the proprietary sentence identifier.
const SentenceType = "PATT"

// Sentence formats rec as one NMEA sentence including the trailing CRLF.
func Sentence(rec attitude.Record) string {
	fields := []string{
		SentenceType,
		strconv.Itoa(rec.Iteration),
		rec.SampleTime.String(),
		field(rec.X),
		field(rec.Y),
		field(rec.Z),
		field(rec.Yaw),
		field(rec.Pitch),
		field(rec.Roll),
	}
	body := strings.Join(fields, ",")
	return fmt.Sprintf("$%s*%s\r\n", body, nmea.Checksum(body))
}

func field(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// Writer sends sentences to an underlying writer.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// PublishRecord writes one sentence for rec.
func (t *Writer) PublishRecord(rec attitude.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.w, Sentence(rec)); err != nil {
		return fmt.Errorf("telemetry write: %w", err)
	}
	return nil
}

// Close closes the underlying writer if it is a Closer.
func (t *Writer) Close() error {
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// OpenSerial opens portName at baudRate for writing sentences.
func OpenSerial(portName string, baudRate int) (*Writer, error) {
	port, err := OpenPort(portName, baudRate)
	if err != nil {
		return nil, err
	}
	return NewWriter(port), nil
}

// OpenPort opens portName at baudRate, 8N1.
func OpenPort(portName string, baudRate int) (io.ReadWriteCloser, error) {
	serialOpts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return port, nil
}
