package mintcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Outcome is the terminal result of one batch slot.
type Outcome struct {
	Nonce     uint64
	Hash      common.Hash
	Confirmed bool
	Attempts  int
	Err       error
}

var errReverted = errors.New("transaction reverted")

// DispatchConfig tunes the submission phase.
type DispatchConfig struct {
	// MaxConcurrent caps in-flight submissions.
	MaxConcurrent int
	// MaxRetry is the per-transaction attempt bound.
	MaxRetry int
	// RetryDelay is the fixed pause between attempts on one slot.
	RetryDelay time.Duration
	// SendTimeout bounds a single submission (and its confirmation
	// wait) so one stalled RPC call cannot hang the batch.
	SendTimeout time.Duration
	// WaitForReceipt selects the stricter variant: wait for inclusion
	// and retry on reverted status instead of reporting the broadcast
	// hash alone.
	WaitForReceipt bool
}

func (c DispatchConfig) withDefaults() DispatchConfig {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 10
	}
	if c.MaxRetry <= 0 {
		c.MaxRetry = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 300 * time.Millisecond
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 15 * time.Second
	}
	return c
}

// Dispatcher submits a prepared batch with bounded fan-out and
// per-slot retry. Slots fail independently; partial success is an
// expected outcome under competitive mint conditions.
type Dispatcher struct {
	client ChainClient
	cfg    DispatchConfig
	log    zerolog.Logger
}

func NewDispatcher(client ChainClient, cfg DispatchConfig, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		client: client,
		cfg:    cfg.withDefaults(),
		log:    log.With().Str("component", "dispatch").Logger(),
	}
}

// Dispatch runs the batch to completion and returns one outcome per
// slot, in batch order. It never returns early: every slot resolves as
// confirmed or permanently failed.
func (d *Dispatcher) Dispatch(ctx context.Context, batch []*TransactionRequest) []Outcome {
	outcomes := make([]Outcome, len(batch))

	var g errgroup.Group
	g.SetLimit(d.cfg.MaxConcurrent)
	for i, req := range batch {
		i, req := i, req
		g.Go(func() error {
			outcomes[i] = d.dispatchOne(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (d *Dispatcher) dispatchOne(ctx context.Context, req *TransactionRequest) Outcome {
	out := Outcome{Nonce: req.Nonce, Hash: req.Tx.Hash()}
	log := d.log.With().Uint64("nonce", req.Nonce).Str("hash", out.Hash.Hex()).Logger()

	for attempt := 1; attempt <= d.cfg.MaxRetry; attempt++ {
		out.Attempts = attempt
		err := d.submit(ctx, req)
		if err == nil {
			out.Confirmed = true
			out.Err = nil
			log.Info().Int("attempt", attempt).Msg("transaction confirmed")
			return out
		}
		out.Err = err
		log.Warn().Int("attempt", attempt).Err(err).Msg("submission failed")

		if attempt < d.cfg.MaxRetry {
			// Same nonce, same payload: changing either mid-retry
			// would break the batch's contiguous-nonce invariant.
			select {
			case <-time.After(d.cfg.RetryDelay):
			case <-ctx.Done():
				out.Err = ctx.Err()
				return out
			}
		}
	}
	log.Error().Int("attempts", out.Attempts).Err(out.Err).Msg("permanently failed")
	return out
}

func (d *Dispatcher) submit(ctx context.Context, req *TransactionRequest) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	if err := d.client.SendTransaction(sendCtx, req.Tx); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if !d.cfg.WaitForReceipt {
		return nil
	}
	rcpt, err := waitReceipt(sendCtx, d.client, req.Tx.Hash(), 0)
	if err != nil {
		return fmt.Errorf("receipt: %w", err)
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		return errReverted
	}
	return nil
}
