package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDo_RetriesRetryableUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("connection refused"))
		}
		return nil
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond), WithJitter(0))

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanent(t *testing.T) {
	boom := errors.New("bad credentials")
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(boom)
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestConnectRetrier_RetriesMarkedErrors(t *testing.T) {
	var retried []int
	r := ConnectRetrier(3, func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
	})
	r.config.InitialDelay = time.Millisecond
	r.config.MaxDelay = time.Millisecond

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return Retryable(errors.New("dial tcp: refused"))
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestConnectRetrier_GivesUpOnPermanent(t *testing.T) {
	r := ConnectRetrier(5, nil)
	r.config.InitialDelay = time.Millisecond

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(errors.New("password authentication failed"))
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestConfig_DelayIsCapped(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, cfg.Delay(1))
	assert.Equal(t, 400*time.Millisecond, cfg.Delay(3))
	assert.Equal(t, time.Second, cfg.Delay(10))
}

func TestDo_PlainErrorsAreNotRetriedByDefault(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("constraint violated")
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
