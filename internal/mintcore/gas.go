package mintcore

import (
	"context"
	"math"
	"math/big"
	"sync"
)

// FeeEstimator reads fee data from the chain and scales it by a fixed
// multiplier to outbid competing submissions. Results are cached so
// multiple call sites inside one decision window share a single RPC
// round trip; callers on the critical path pass forceRefresh.
type FeeEstimator struct {
	client ChainClient
	pct    int64 // floor(multiplier*100)

	mu     sync.Mutex
	cached *GasParams
}

// NewFeeEstimator builds an estimator with the given multiplier
// (> 1.0, e.g. 2.5). The multiplier is fixed to two decimal places so
// all wei math stays on integers.
func NewFeeEstimator(client ChainClient, multiplier float64) *FeeEstimator {
	pct := int64(math.Floor(multiplier * 100))
	if pct < 100 {
		pct = 100
	}
	return &FeeEstimator{client: client, pct: pct}
}

// Estimate returns scaled gas params, from cache unless forceRefresh.
// A refresh replaces the cached value wholesale; readers never see a
// partially updated struct.
func (e *FeeEstimator) Estimate(ctx context.Context, forceRefresh bool) (GasParams, error) {
	e.mu.Lock()
	if !forceRefresh && e.cached != nil {
		p := *e.cached
		e.mu.Unlock()
		return p, nil
	}
	e.mu.Unlock()

	fd, err := e.client.FeeData(ctx)
	if err != nil {
		return GasParams{}, err
	}
	p := GasParams{
		MaxFeePerGas:         scaleByPct(fd.MaxFeePerGas, e.pct),
		MaxPriorityFeePerGas: scaleByPct(fd.MaxPriorityFeePerGas, e.pct),
	}

	e.mu.Lock()
	e.cached = &p
	e.mu.Unlock()
	return p, nil
}

// scaleByPct computes floor(v * pct / 100) without touching floats.
func scaleByPct(v *big.Int, pct int64) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(v, big.NewInt(pct))
	return out.Div(out, big.NewInt(100))
}
