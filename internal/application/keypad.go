package application

import "github.com/noisebridge/baron/internal/domain/model"

// Keypad control characters.
const (
	CancelKey byte = '*'
	SubmitKey byte = '#'
)

// Submission is a completed code entry ready for authorization.
type Submission struct {
	Code string
}

// InputBuffer turns the keypad character stream into submissions. Digits
// accumulate; CancelKey and an idle timeout clear the buffer; SubmitKey emits
// the buffer unless it is empty. Any other character is ignored.
type InputBuffer struct {
	pending []byte
}

// Feed processes one character. It returns a Submission and true only for a
// SubmitKey that follows at least one digit.
func (b *InputBuffer) Feed(key byte) (Submission, bool) {
	switch {
	case key == CancelKey:
		b.reset()
	case key == SubmitKey:
		if len(b.pending) == 0 {
			return Submission{}, false
		}
		sub := Submission{Code: string(b.pending)}
		b.reset()
		return sub, true
	case model.IsDigit(key):
		b.pending = append(b.pending, key)
	}
	return Submission{}, false
}

// Timeout clears the buffer after the keypad has been idle.
func (b *InputBuffer) Timeout() {
	b.reset()
}

// Pending returns the digits collected since the last reset.
func (b *InputBuffer) Pending() string {
	return string(b.pending)
}

func (b *InputBuffer) reset() {
	b.pending = b.pending[:0]
}
