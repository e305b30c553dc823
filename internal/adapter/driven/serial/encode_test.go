package serial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noisebridge/baron/internal/adapter/driven/serial"
	"github.com/noisebridge/baron/internal/domain/model"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		signal model.Signal
		want   string
	}{
		{"happy blue", model.Signal{Tone: model.ToneHappy, Color: model.ColorBlue}, "HB"},
		{"sad red", model.Signal{Tone: model.ToneSad, Color: model.ColorRed}, "SR"},
		{"quiet sad red", model.Signal{Quiet: true, Tone: model.ToneSad, Color: model.ColorRed}, "QSR"},
		{"happy green", model.Signal{Tone: model.ToneHappy, Color: model.ColorGreen}, "HG"},
		{"quiet only", model.Signal{Quiet: true}, "Q"},
		{"empty", model.Signal{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(serial.Encode(tt.signal)))
		})
	}
}
