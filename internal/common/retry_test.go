package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyStopsAfterMaxAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}

	attempts := 0
	err := policy.Execute(context.Background(), func() error {
		attempts++
		return errors.New("always fails")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryPolicySingleAttemptRunsExactlyOnce(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 1, Delay: time.Millisecond}

	boom := errors.New("always fails")
	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- policy.Execute(context.Background(), func() error {
			attempts++
			return boom
		})
	}()

	select {
	case err := <-done:
		assert.Equal(t, boom, err)
		assert.Equal(t, 1, attempts)
	case <-time.After(2 * time.Second):
		t.Fatalf("Execute did not return; attempts so far: %d", attempts)
	}
}

func TestRetryPolicySingleAttemptSuccess(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 1}

	attempts := 0
	err := policy.Execute(context.Background(), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicySingleAttemptUnwrapsPermanent(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 1}

	fatal := errors.New("executable not found")
	err := policy.Execute(context.Background(), func() error {
		return Permanent(fatal)
	})

	assert.Equal(t, fatal, err)
}

func TestRetryPolicySucceedsMidway(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, Delay: time.Millisecond}

	attempts := 0
	err := policy.Execute(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryPolicyPermanentErrorAbortsImmediately(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, Delay: time.Millisecond}

	fatal := errors.New("executable not found")
	attempts := 0
	err := policy.Execute(context.Background(), func() error {
		attempts++
		return Permanent(fatal)
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, fatal, err)
}

func TestRetryPolicyRespectsContextCancellation(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 100, Delay: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := policy.Execute(ctx, func() error {
		attempts++
		return errors.New("transient")
	})

	require.Error(t, err)
	assert.Less(t, attempts, 100)
}
