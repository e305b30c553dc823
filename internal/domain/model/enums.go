package model

// Decision is the outcome of one authorization attempt.
type Decision string

const (
	DecisionGranted    Decision = "granted"
	DecisionDenied     Decision = "denied"
	DecisionGateFailed Decision = "gate_failed" // Code accepted, gate did not open.
)

// Tone selects the keypad sound.
type Tone string

const (
	ToneNone  Tone = ""
	ToneHappy Tone = "happy"
	ToneSad   Tone = "sad"
)

// Color selects the keypad LED.
type Color string

const (
	ColorNone  Color = ""
	ColorRed   Color = "red"
	ColorGreen Color = "green"
	ColorBlue  Color = "blue"
)

// Signal is one fire-and-forget feedback write to the keypad. The device
// adapter owns the byte encoding.
type Signal struct {
	Quiet bool
	Tone  Tone
	Color Color
}

// Feedback is a named sequence of signals played after a decision.
type Feedback string

const (
	FeedbackGranted    Feedback = "granted"
	FeedbackDenied     Feedback = "denied"
	FeedbackGateFailed Feedback = "gate_failed"
)

// Signals returns the signal sequence for f.
func (f Feedback) Signals() []Signal {
	switch f {
	case FeedbackGranted:
		return []Signal{{Tone: ToneHappy, Color: ColorBlue}}
	case FeedbackGateFailed:
		return []Signal{
			{Tone: ToneSad, Color: ColorRed},
			{Quiet: true, Tone: ToneSad, Color: ColorRed},
			{Quiet: true, Tone: ToneSad, Color: ColorRed},
		}
	default:
		return []Signal{{Tone: ToneSad, Color: ColorRed}}
	}
}
