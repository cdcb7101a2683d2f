package mintcore

import (
	"context"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// testKey is the first well-known hardhat dev key.
const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var testContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

// fakeClient implements ChainClient with per-test hooks. Nil hooks get
// sane defaults so most tests only override what they exercise.
type fakeClient struct {
	feeFn     func() (*FeeData, error)
	nonceFn   func() (uint64, error)
	balanceFn func() (*big.Int, error)
	sendFn    func(tx *types.Transaction) error
	receiptFn func(h common.Hash) (*types.Receipt, error)

	feeCalls   atomic.Int32
	nonceCalls atomic.Int32
	sendCalls  atomic.Int32
}

func (f *fakeClient) FeeData(ctx context.Context) (*FeeData, error) {
	f.feeCalls.Add(1)
	if f.feeFn != nil {
		return f.feeFn()
	}
	return &FeeData{
		MaxFeePerGas:         big.NewInt(100_000_000_000),
		MaxPriorityFeePerGas: big.NewInt(2_000_000_000),
	}, nil
}

func (f *fakeClient) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	f.nonceCalls.Add(1)
	if f.nonceFn != nil {
		return f.nonceFn()
	}
	return 7, nil
}

func (f *fakeClient) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	if f.balanceFn != nil {
		return f.balanceFn()
	}
	// comfortably funded
	return new(big.Int).Mul(big.NewInt(1000), big.NewInt(1_000_000_000_000_000_000)), nil
}

func (f *fakeClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.sendCalls.Add(1)
	if f.sendFn != nil {
		return f.sendFn(tx)
	}
	return nil
}

func (f *fakeClient) TransactionReceipt(ctx context.Context, h common.Hash) (*types.Receipt, error) {
	if f.receiptFn != nil {
		return f.receiptFn(h)
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func (f *fakeClient) totalCalls() int32 {
	return f.feeCalls.Load() + f.nonceCalls.Load() + f.sendCalls.Load()
}
