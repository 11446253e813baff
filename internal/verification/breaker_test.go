package verification_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"academia/internal/platform/upstream"
	"academia/internal/upload"
	"academia/internal/verification"
	"academia/internal/verification/mocks"
	"academia/pkg/platform/circuit"
)

func TestBreakerVerifier(t *testing.T) {
	file := upload.File{Name: "card.png", Data: []byte{1}}
	outage := upstream.FromStatus("verification", http.StatusServiceUnavailable, "down")

	t.Run("opens after consecutive outages and fails fast", func(t *testing.T) {
		next := mocks.NewMockVerifier(gomock.NewController(t))
		breaker := circuit.New("verification", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
		v := verification.NewBreakerVerifier(next, breaker, nil)

		next.EXPECT().Verify(gomock.Any(), file).Return(verification.Result{}, outage).Times(2)
		for range 2 {
			_, err := v.Verify(context.Background(), file)
			require.Error(t, err)
		}
		assert.True(t, breaker.IsOpen())

		_, err := v.Verify(context.Background(), file)
		assert.Equal(t, upstream.ErrorOutage, upstream.GetCategory(err))
	})

	t.Run("rejections do not trip the breaker", func(t *testing.T) {
		next := mocks.NewMockVerifier(gomock.NewController(t))
		breaker := circuit.New("verification", circuit.WithFailureThreshold(1))
		v := verification.NewBreakerVerifier(next, breaker, nil)

		rejected := upstream.FromStatus("verification", http.StatusBadRequest, "unreadable")
		next.EXPECT().Verify(gomock.Any(), file).Return(verification.Result{}, rejected)

		_, err := v.Verify(context.Background(), file)
		require.ErrorIs(t, err, rejected)
		assert.False(t, breaker.IsOpen())
	})

	t.Run("cancelled calls are not counted", func(t *testing.T) {
		next := mocks.NewMockVerifier(gomock.NewController(t))
		breaker := circuit.New("verification", circuit.WithFailureThreshold(1))
		v := verification.NewBreakerVerifier(next, breaker, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		next.EXPECT().Verify(gomock.Any(), file).Return(verification.Result{}, upstream.FromTransport("verification", context.Canceled))

		_, err := v.Verify(ctx, file)
		require.Error(t, err)
		assert.False(t, breaker.IsOpen())
	})

	t.Run("success passes through", func(t *testing.T) {
		next := mocks.NewMockVerifier(gomock.NewController(t))
		v := verification.NewBreakerVerifier(next, circuit.New("verification"), nil)

		next.EXPECT().Verify(gomock.Any(), file).Return(verification.Result{Success: true, Message: "ok"}, nil)
		res, err := v.Verify(context.Background(), file)
		require.NoError(t, err)
		assert.Equal(t, "ok", res.Message)
	})
}
