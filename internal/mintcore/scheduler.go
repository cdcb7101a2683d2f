package mintcore

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// State of one scheduled run.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateArmed
	StateFiring
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateArmed:
		return "armed"
	case StateFiring:
		return "firing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Report is the terminal result of a run.
type Report struct {
	State     State
	Reason    string
	Outcomes  []Outcome
	Confirmed int
	Failed    int
}

// Scheduler is the timing core. For a future stage it pre-builds the
// batch at arming time, so the only work left when the deadline fires
// is broadcast; an already-open stage skips the wait and builds with
// fresh nonce and gas at fire time.
type Scheduler struct {
	Client     ChainClient
	Estimator  *FeeEstimator
	Builder    *BatchBuilder
	Dispatcher *Dispatcher

	// SafetyMargin fires the deadline slightly early to compensate for
	// local scheduling latency.
	SafetyMargin time.Duration

	Log zerolog.Logger

	// Sleep is stubbed in tests.
	Sleep func(ctx context.Context, d time.Duration) error

	state atomic.Int32
}

// State reports where the run currently is; a fresh scheduler is Idle.
func (s *Scheduler) State() State { return State(s.state.Load()) }

func (s *Scheduler) setState(st State) { s.state.Store(int32(st)) }

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute drives Armed/Firing for an already-resolved decision.
func (s *Scheduler) Execute(ctx context.Context, target *MintTarget, decision *Decision) (*Report, error) {
	log := s.Log.With().
		Str("component", "scheduler").
		Str("collection", target.CollectionName).
		Int("stage", target.StageIndex).
		Logger()

	var batch []*TransactionRequest
	var err error

	abort := func(err error) (*Report, error) {
		s.setState(StateAborted)
		return &Report{State: StateAborted, Reason: err.Error()}, err
	}

	if decision.Immediate {
		// no wait window to hide latency behind: build at fire time
		s.setState(StateFiring)
		log.Info().Msg("stage already open, firing now")
		batch, err = s.buildBatch(ctx, target)
		if err != nil {
			return abort(err)
		}
	} else {
		s.setState(StateArmed)
		wait := decision.Wait - s.SafetyMargin
		if wait < 0 {
			wait = 0
		}
		// Arm: absorb nonce fetch, gas fetch and signing before the
		// sleep, outside the timing-critical window.
		batch, err = s.buildBatch(ctx, target)
		if err != nil {
			return abort(err)
		}
		log.Info().
			Dur("wait", wait).
			Int("batch", len(batch)).
			Msg("armed, sleeping until stage opens")
		if err := s.sleep(ctx, wait); err != nil {
			return abort(err)
		}
		s.setState(StateFiring)
	}

	log.Info().Int("batch", len(batch)).Msg("dispatching")
	outcomes := s.Dispatcher.Dispatch(ctx, batch)
	s.setState(StateDone)

	rep := &Report{State: StateDone, Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Confirmed {
			rep.Confirmed++
		} else {
			rep.Failed++
		}
	}
	rep.Reason = fmt.Sprintf("%d/%d confirmed", rep.Confirmed, len(outcomes))
	log.Info().Int("confirmed", rep.Confirmed).Int("failed", rep.Failed).Msg("run complete")
	return rep, nil
}

// buildBatch snapshots the pending nonce once and force-refreshes gas
// so a stale cache never prices the batch.
func (s *Scheduler) buildBatch(ctx context.Context, target *MintTarget) ([]*TransactionRequest, error) {
	gas, err := s.Estimator.Estimate(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("gas estimate: %w", err)
	}
	baseNonce, err := s.Client.PendingNonceAt(ctx, s.Builder.Wallet())
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	s.Log.Info().
		Str("max_fee_gwei", FmtGwei(gas.MaxFeePerGas)).
		Str("tip_gwei", FmtGwei(gas.MaxPriorityFeePerGas)).
		Uint64("base_nonce", baseNonce).
		Msg("batch priced")
	s.warnIfUnderfunded(ctx, target, gas)
	return s.Builder.Build(target, baseNonce, gas)
}

func (s *Scheduler) warnIfUnderfunded(ctx context.Context, target *MintTarget, gas GasParams) {
	bal, err := s.Client.BalanceAt(ctx, s.Builder.Wallet())
	if err != nil || bal == nil {
		return
	}
	perTx := new(big.Int).Mul(gas.MaxFeePerGas, big.NewInt(MintGasLimit))
	perTx.Add(perTx, target.PriceWei)
	need := perTx.Mul(perTx, big.NewInt(int64(target.MintCount)))
	if bal.Cmp(need) < 0 {
		s.Log.Warn().
			Str("balance", fmtETH(bal)).
			Str("worst_case", fmtETH(need)).
			Msg("wallet may not cover the full batch")
	}
}
