package verification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academia/internal/upload"
)

func TestMockVerifierReturnsFixedPayload(t *testing.T) {
	v := MockVerifier{Latency: time.Millisecond, Record: DefaultMockRecord()}

	first, err := v.Verify(context.Background(), upload.File{Name: "a.png"})
	require.NoError(t, err)
	second, err := v.Verify(context.Background(), upload.File{Name: "completely-different.jpg"})
	require.NoError(t, err)

	assert.True(t, first.Success)
	assert.Equal(t, first, second)
	assert.Equal(t, "Sidhesh Shah", first.Data["name"])
}

func TestMockVerifierResultIsACopy(t *testing.T) {
	v := MockVerifier{Record: DefaultMockRecord()}
	res, err := v.Verify(context.Background(), upload.File{})
	require.NoError(t, err)

	res.Data["name"] = "changed"
	again, err := v.Verify(context.Background(), upload.File{})
	require.NoError(t, err)
	assert.Equal(t, "Sidhesh Shah", again.Data["name"])
}

func TestMockVerifierHonoursCancellation(t *testing.T) {
	v := MockVerifier{Latency: time.Minute, Record: DefaultMockRecord()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Verify(ctx, upload.File{})
	assert.ErrorIs(t, err, context.Canceled)
}
