// Package serial implements the Device port for the keypad on a serial line.
package serial

import "github.com/noisebridge/baron/internal/domain/model"

// Encode maps a feedback signal to the keypad firmware's byte commands:
// an optional 'Q' (quiet), then 'H' or 'S' for the tone, then 'R', 'G' or 'B'
// for the LED.
func Encode(s model.Signal) []byte {
	out := make([]byte, 0, 3)
	if s.Quiet {
		out = append(out, 'Q')
	}
	switch s.Tone {
	case model.ToneHappy:
		out = append(out, 'H')
	case model.ToneSad:
		out = append(out, 'S')
	}
	switch s.Color {
	case model.ColorRed:
		out = append(out, 'R')
	case model.ColorGreen:
		out = append(out, 'G')
	case model.ColorBlue:
		out = append(out, 'B')
	}
	return out
}
