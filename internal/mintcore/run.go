package mintcore

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// RunParams collects everything one mint run needs.
type RunParams struct {
	Offer    *MintOffer
	Stages   []Stage
	Contract common.Address

	MintCount int
	Choose    StageChooser

	ChainID       *big.Int
	PrivateKeyHex string

	GasMultiplier float64
	SafetyMargin  time.Duration
	Dispatch      DispatchConfig

	Log zerolog.Logger

	// Test seams; nil means real clock.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run is the top-level orchestration: validate, resolve the stage,
// then hand off to the scheduler. Validation and resolution failures
// come back as an Aborted report plus the sentinel error, without any
// transaction having been built.
func Run(ctx context.Context, client ChainClient, p RunParams) (*Report, error) {
	log := p.Log

	abort := func(err error) (*Report, error) {
		log.Warn().Err(err).Str("collection", collectionName(p.Offer)).Msg("run aborted")
		return &Report{State: StateAborted, Reason: err.Error()}, err
	}

	if p.Offer == nil {
		return abort(ErrNoOffer)
	}
	if !p.Offer.IsMinting {
		return abort(fmt.Errorf("%w: %s is not minting", ErrNoOffer, p.Offer.CollectionName))
	}
	if p.Offer.Protocol != ERC721 && p.Offer.Protocol != ERC1155 {
		return abort(fmt.Errorf("%w: %s", ErrUnsupportedProtocol, p.Offer.Protocol))
	}
	if p.MintCount < 1 {
		return abort(fmt.Errorf("%w: %d", ErrBadMintCount, p.MintCount))
	}
	// launchpad ids are not always addresses; a zero contract would
	// broadcast value-carrying mints into the void
	if p.Contract == (common.Address{}) {
		return abort(fmt.Errorf("%w for %s", ErrNoContract, p.Offer.CollectionName))
	}

	builder, err := NewBatchBuilder(p.ChainID, p.PrivateKeyHex, p.Contract)
	if err != nil {
		return abort(err)
	}

	sched := &Scheduler{
		Client:       client,
		Estimator:    NewFeeEstimator(client, p.GasMultiplier),
		Builder:      builder,
		Dispatcher:   NewDispatcher(client, p.Dispatch, log),
		SafetyMargin: p.SafetyMargin,
		Log:          log,
		Sleep:        p.Sleep,
	}

	sched.setState(StateResolving)
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	decision, err := ResolveStage(p.Stages, now(), p.Choose)
	if err != nil {
		sched.setState(StateAborted)
		return abort(err)
	}

	target := &MintTarget{
		CollectionID:   p.Offer.CollectionID,
		CollectionName: p.Offer.CollectionName,
		Protocol:       p.Offer.Protocol,
		TokenID:        p.Offer.TokenID,
		PriceWei:       decision.Stage.PriceWei,
		MintCount:      p.MintCount,
		StageIndex:     decision.Stage.Index,
	}
	log.Info().
		Str("collection", target.CollectionName).
		Int("stage", target.StageIndex).
		Str("price", fmtETH(target.PriceWei)).
		Int("count", target.MintCount).
		Bool("immediate", decision.Immediate).
		Msg("stage resolved")

	return sched.Execute(ctx, target, decision)
}

func collectionName(o *MintOffer) string {
	if o == nil {
		return ""
	}
	return o.CollectionName
}
