// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display draws the latest attitude record on an SSD1306 OLED.
package display

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/resource_sync/internal/attitude"
)

// Panel geometry.
const (
	Width  = 128
	Height = 64
)

// DefaultAddr is the only I²C address the upstream ssd1306 driver talks to.
const DefaultAddr = 0x3C

// Render draws rec into a 1-bit frame. A nil record draws the waiting screen.
func Render(rec *attitude.Record) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if rec == nil {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawString("Attitude")
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawString("Waiting...")
		return img
	}

	lines := []string{
		fmt.Sprintf("#%d t=%.1f", rec.Iteration, rec.SampleTime.Seconds()),
		fmt.Sprintf("R: %6.1f", rec.Roll),
		fmt.Sprintf("P: %6.1f", rec.Pitch),
		fmt.Sprintf("Y: %6.1f", rec.Yaw),
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(line)
	}
	return img
}

// Panel is an SSD1306 on the default I²C bus.
type Panel struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
}

// OpenPanel initializes periph and the display at addr.
func OpenPanel(addr uint16) (*Panel, error) {
	if addr != DefaultAddr {
		return nil, fmt.Errorf("display address 0x%02X not supported (driver uses 0x%02X)", addr, DefaultAddr)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display at 0x%02X: %w", addr, err)
	}
	return &Panel{bus: bus, dev: dev}, nil
}

// Show draws rec (or the waiting screen for nil).
func (p *Panel) Show(rec *attitude.Record) error {
	return p.dev.Draw(p.dev.Bounds(), Render(rec), image.Point{})
}

// Close releases the I²C bus.
func (p *Panel) Close() error {
	return p.bus.Close()
}
