// Package config holds the monitor's runtime settings and their defaults.
package config

import (
	"fmt"
	"time"
)

// FilterSettings selects the cutoffs of the streaming filter bank.
// A cutoff of 0 disables that stage.
type FilterSettings struct {
	HighpassHz float64
	LowpassHz  float64
	NotchHz    float64
	Enabled    bool
}

// Settings is the full monitor configuration. Use Default and adjust.
type Settings struct {
	// Serial connection.
	SerialPort string
	BaudRate   uint

	// Bluetooth-bridged devices enumerate as serial ports; when enabled the
	// named device is preferred during auto-detection.
	UseBluetooth        bool
	BluetoothDeviceName string

	// Sampling.
	SampleRate int // Hz

	// Display.
	DisplayDuration time.Duration // waveform window
	UpdateInterval  time.Duration // between display updates

	// Spectrogram.
	SpectrogramDuration time.Duration // analysis window
	SpectrogramUpdate   time.Duration // between spectrogram updates
	SpectrogramMaxHz    float64       // upper display frequency

	Filter      FilterSettings
	Sensitivity float64 // amplification applied to display output

	RecordingsDir string
}

// Default returns the settings the desktop application ships with.
func Default() Settings {
	return Settings{
		SerialPort:          "/dev/cu.usbserial-0001",
		BaudRate:            115200,
		UseBluetooth:        true,
		BluetoothDeviceName: "404-BrainNotFound",
		SampleRate:          500,
		DisplayDuration:     10 * time.Second,
		UpdateInterval:      20 * time.Millisecond,
		SpectrogramDuration: 30 * time.Second,
		SpectrogramUpdate:   500 * time.Millisecond,
		SpectrogramMaxHz:    70,
		Filter: FilterSettings{
			HighpassHz: 0.5,
			LowpassHz:  70,
			NotchHz:    60,
			Enabled:    true,
		},
		Sensitivity:   1.0,
		RecordingsDir: "recordings",
	}
}

// DisplayBufferSize returns the waveform ring capacity in samples.
func (s Settings) DisplayBufferSize() int {
	return int(s.DisplayDuration.Seconds() * float64(s.SampleRate))
}

// SpectrogramBufferSize returns the spectrogram ring capacity in samples.
func (s Settings) SpectrogramBufferSize() int {
	return int(s.SpectrogramDuration.Seconds() * float64(s.SampleRate))
}

// Validate reports the first configuration error found.
func (s Settings) Validate() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("config: sample rate must be > 0, got %d", s.SampleRate)
	}
	if s.BaudRate == 0 {
		return fmt.Errorf("config: baud rate must be > 0")
	}
	if s.DisplayDuration <= 0 {
		return fmt.Errorf("config: display duration must be > 0, got %v", s.DisplayDuration)
	}
	if s.SpectrogramDuration <= 0 {
		return fmt.Errorf("config: spectrogram duration must be > 0, got %v", s.SpectrogramDuration)
	}
	if s.UpdateInterval <= 0 {
		return fmt.Errorf("config: update interval must be > 0, got %v", s.UpdateInterval)
	}
	if s.Sensitivity <= 0 {
		return fmt.Errorf("config: sensitivity must be > 0, got %v", s.Sensitivity)
	}

	nyquist := float64(s.SampleRate) / 2
	f := s.Filter
	if f.HighpassHz < 0 || f.HighpassHz >= nyquist {
		return fmt.Errorf("config: highpass cutoff %v Hz outside [0, %v)", f.HighpassHz, nyquist)
	}
	if f.LowpassHz < 0 || f.LowpassHz >= nyquist {
		return fmt.Errorf("config: lowpass cutoff %v Hz outside [0, %v)", f.LowpassHz, nyquist)
	}
	if f.NotchHz < 0 || f.NotchHz >= nyquist {
		return fmt.Errorf("config: notch frequency %v Hz outside [0, %v)", f.NotchHz, nyquist)
	}
	if f.HighpassHz > 0 && f.LowpassHz > 0 && f.HighpassHz >= f.LowpassHz {
		return fmt.Errorf("config: highpass %v Hz must be below lowpass %v Hz", f.HighpassHz, f.LowpassHz)
	}

	return nil
}
