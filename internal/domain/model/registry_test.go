package model_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noisebridge/baron/internal/domain/model"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestRegistry() (*model.Registry, *testClock) {
	clock := &testClock{now: created}
	return model.NewRegistry(clock.Now, nil), clock
}

func mustCredential(t *testing.T, code string, validity int) *model.Credential {
	t.Helper()
	cred, err := model.NewCredential(code, created, validity)
	require.NoError(t, err)
	return cred
}

func TestRegistry_AddThenCheck(t *testing.T) {
	reg, _ := newTestRegistry()

	for _, code := range []string{"0", "1234", "00042", "98765432109876543210"} {
		require.NoError(t, reg.Add(mustCredential(t, code, model.NeverExpires)))
		assert.True(t, reg.Check(code), "code %s", code)
	}
	assert.Equal(t, 4, reg.Len())
}

func TestRegistry_AddDuplicateFails(t *testing.T) {
	reg, _ := newTestRegistry()
	original := mustCredential(t, "1234", model.NeverExpires)
	require.NoError(t, reg.Add(original))

	err := reg.Add(mustCredential(t, "1234", 60))

	assert.ErrorIs(t, err, model.ErrDuplicateCredential)
	assert.Same(t, original, reg.Get("1234"), "duplicate add must not overwrite")
}

func TestRegistry_AddRejectsInvalid(t *testing.T) {
	reg, clock := newTestRegistry()

	disabled := mustCredential(t, "1111", model.NeverExpires)
	disabled.Enabled = false
	assert.ErrorIs(t, reg.Add(disabled), model.ErrDisabled)

	clock.now = created.Add(2 * time.Minute)
	assert.ErrorIs(t, reg.Add(mustCredential(t, "2222", 60)), model.ErrExpired)

	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_GetAbsent(t *testing.T) {
	reg, _ := newTestRegistry()

	assert.Nil(t, reg.Get("1234"))
	assert.False(t, reg.Check("1234"))
	assert.ErrorIs(t, reg.Verify("1234"), model.ErrUnknownCredential)
}

func TestRegistry_DisableRetainsRecord(t *testing.T) {
	reg, _ := newTestRegistry()
	require.NoError(t, reg.Add(mustCredential(t, "1234", model.NeverExpires)))

	require.NoError(t, reg.Disable("1234"))

	assert.False(t, reg.Check("1234"))
	cred := reg.Get("1234")
	require.NotNil(t, cred)
	assert.False(t, cred.Enabled)
	assert.ErrorIs(t, reg.Verify("1234"), model.ErrDisabled)
}

func TestRegistry_DisableUnknownFails(t *testing.T) {
	reg, _ := newTestRegistry()

	assert.ErrorIs(t, reg.Disable("1234"), model.ErrUnknownCredential)
}

func TestRegistry_CheckExpiryBoundary(t *testing.T) {
	reg, clock := newTestRegistry()
	require.NoError(t, reg.Add(mustCredential(t, "1234", 90)))

	clock.now = created.Add(90*time.Second - time.Millisecond)
	assert.True(t, reg.Check("1234"))

	clock.now = created.Add(90 * time.Second)
	assert.False(t, reg.Check("1234"))
	assert.ErrorIs(t, reg.Verify("1234"), model.ErrExpired)
	assert.NotNil(t, reg.Get("1234"))
}

func TestRegistry_UpdateReplacesWithoutDuplicateCheck(t *testing.T) {
	reg, clock := newTestRegistry()
	require.NoError(t, reg.Add(mustCredential(t, "1234", 60)))

	clock.now = created.Add(time.Hour)
	require.False(t, reg.Check("1234"))

	refreshed, err := model.NewCredential("1234", clock.now, model.NeverExpires)
	require.NoError(t, err)
	require.NoError(t, reg.Update(refreshed))

	assert.Same(t, refreshed, reg.Get("1234"))
	assert.True(t, reg.Check("1234"))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_UpdateInsertsNewCode(t *testing.T) {
	reg, _ := newTestRegistry()

	require.NoError(t, reg.Update(mustCredential(t, "5555", model.NeverExpires)))

	assert.True(t, reg.Check("5555"))
}

func TestRegistry_UpdateRejectsMalformed(t *testing.T) {
	reg, _ := newTestRegistry()

	bad := &model.Credential{Code: "", CreatedAt: created, ValiditySeconds: model.NeverExpires, Enabled: true}

	assert.ErrorIs(t, reg.Update(bad), model.ErrMalformedCredential)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_CodesSorted(t *testing.T) {
	reg, _ := newTestRegistry()
	for _, code := range []string{"30", "10", "20"} {
		require.NoError(t, reg.Add(mustCredential(t, code, model.NeverExpires)))
	}

	assert.Equal(t, []string{"10", "20", "30"}, reg.Codes())
}

func TestFeedback_Signals(t *testing.T) {
	assert.Equal(t, []model.Signal{{Tone: model.ToneHappy, Color: model.ColorBlue}}, model.FeedbackGranted.Signals())
	assert.Equal(t, []model.Signal{{Tone: model.ToneSad, Color: model.ColorRed}}, model.FeedbackDenied.Signals())
	assert.Len(t, model.FeedbackGateFailed.Signals(), 3)
}

func TestRegistry_LogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	reg := model.NewRegistry(func() time.Time { return created }, logger)

	require.NoError(t, reg.Add(mustCredential(t, "1234", model.NeverExpires)))
	require.NoError(t, reg.Disable("1234"))
	require.NoError(t, reg.Update(mustCredential(t, "5678", model.NeverExpires)))

	out := buf.String()
	assert.Contains(t, out, "credential disabled")
	assert.Contains(t, out, "code=1234")
	assert.Contains(t, out, "credential updated")
	assert.Contains(t, out, "code=5678")
}
