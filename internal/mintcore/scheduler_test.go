package mintcore

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventClient records the order of chain calls relative to the
// scheduler's sleep, which is what arming is about.
type eventClient struct {
	fakeClient
	mu     sync.Mutex
	events []string
}

func (e *eventClient) record(ev string) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func newTestScheduler(t *testing.T, client ChainClient, sleep func(context.Context, time.Duration) error) *Scheduler {
	t.Helper()
	b, err := NewBatchBuilder(big.NewInt(1), testKey, testContract)
	require.NoError(t, err)
	return &Scheduler{
		Client:       client,
		Estimator:    NewFeeEstimator(client, 2.5),
		Builder:      b,
		Dispatcher:   NewDispatcher(client, fastCfg(), zerolog.Nop()),
		SafetyMargin: 50 * time.Millisecond,
		Log:          zerolog.Nop(),
		Sleep:        sleep,
	}
}

func TestExecute_FutureStagePrebuildsBeforeSleep(t *testing.T) {
	client := &eventClient{}
	client.nonceFn = func() (uint64, error) {
		client.record("nonce")
		return 3, nil
	}
	s := newTestScheduler(t, client, nil)
	var slept time.Duration
	s.Sleep = func(ctx context.Context, d time.Duration) error {
		client.record("sleep")
		slept = d
		assert.Equal(t, StateArmed, s.State(), "still armed while waiting")
		return nil
	}

	target := testTarget(ERC721, 2)
	rep, err := s.Execute(context.Background(), target, &Decision{
		Stage: Stage{Index: 1, PriceWei: target.PriceWei},
		Wait:  2 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, StateDone, rep.State)
	assert.Equal(t, StateDone, s.State())

	require.Len(t, client.events, 2)
	assert.Equal(t, "nonce", client.events[0], "batch must be built before the wait")
	assert.Equal(t, "sleep", client.events[1])
	assert.Equal(t, 2*time.Second-50*time.Millisecond, slept, "safety margin fires early")
}

func TestExecute_ShortWaitClampsToZero(t *testing.T) {
	client := &eventClient{}
	var slept time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		slept = d
		return nil
	}
	s := newTestScheduler(t, client, sleep)

	target := testTarget(ERC721, 1)
	_, err := s.Execute(context.Background(), target, &Decision{
		Stage: Stage{PriceWei: target.PriceWei},
		Wait:  10 * time.Millisecond, // below the safety margin
	})
	require.NoError(t, err)
	assert.Zero(t, slept)
}

func TestExecute_ImmediateSkipsSleep(t *testing.T) {
	client := &eventClient{}
	slept := false
	s := newTestScheduler(t, client, func(context.Context, time.Duration) error {
		slept = true
		return nil
	})
	client.sendFn = func(*types.Transaction) error {
		assert.Equal(t, StateFiring, s.State())
		return nil
	}

	target := testTarget(ERC1155, 3)
	assert.Equal(t, StateIdle, s.State())
	rep, err := s.Execute(context.Background(), target, &Decision{
		Stage:     Stage{PriceWei: target.PriceWei},
		Immediate: true,
	})
	require.NoError(t, err)
	assert.False(t, slept)
	assert.Equal(t, StateDone, rep.State)
	assert.Equal(t, 3, rep.Confirmed)
	assert.Equal(t, 0, rep.Failed)
	assert.Equal(t, int32(3), client.sendCalls.Load())
}

func TestExecute_GasRefreshedAtArming(t *testing.T) {
	client := &eventClient{}
	s := newTestScheduler(t, client, func(context.Context, time.Duration) error { return nil })

	// warm the cache, then make sure arming still re-reads fees
	_, err := s.Estimator.Estimate(context.Background(), false)
	require.NoError(t, err)

	target := testTarget(ERC721, 1)
	_, err = s.Execute(context.Background(), target, &Decision{
		Stage: Stage{PriceWei: target.PriceWei},
		Wait:  time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), client.feeCalls.Load())
}

func TestExecute_BuildFailureAborts(t *testing.T) {
	client := &eventClient{}
	client.nonceFn = func() (uint64, error) {
		return 0, errors.New("rpc down")
	}
	s := newTestScheduler(t, client, func(context.Context, time.Duration) error { return nil })

	target := testTarget(ERC721, 1)
	rep, err := s.Execute(context.Background(), target, &Decision{
		Stage: Stage{PriceWei: target.PriceWei},
		Wait:  time.Second,
	})
	require.Error(t, err)
	assert.Equal(t, StateAborted, rep.State)
	assert.Equal(t, StateAborted, s.State())
	assert.Zero(t, client.sendCalls.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "armed", StateArmed.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "aborted", StateAborted.String())
}
