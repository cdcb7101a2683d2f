package mintcore

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// FeeData is the current fee-market reading used to price a batch.
type FeeData struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// ChainClient is the RPC surface the engine needs. *EthClient adapts
// ethclient; tests substitute a fake.
type ChainClient interface {
	FeeData(ctx context.Context) (*FeeData, error)
	PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error)
	BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, h common.Hash) (*types.Receipt, error)
}

// EthClient adapts *ethclient.Client to ChainClient.
type EthClient struct {
	ec *ethclient.Client
}

func NewEthClient(ec *ethclient.Client) *EthClient {
	return &EthClient{ec: ec}
}

// FeeData derives maxFeePerGas from the head base fee plus the
// suggested tip, the usual 2*baseFee headroom included.
func (c *EthClient) FeeData(ctx context.Context) (*FeeData, error) {
	head, err := c.ec.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	if head.BaseFee == nil {
		return nil, errors.New("no baseFee (pre-1559?)")
	}
	tip, err := c.ec.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, err
	}
	maxFee := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
	maxFee.Add(maxFee, tip)
	return &FeeData{MaxFeePerGas: maxFee, MaxPriorityFeePerGas: tip}, nil
}

func (c *EthClient) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	return c.ec.PendingNonceAt(ctx, addr)
}

func (c *EthClient) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	return c.ec.BalanceAt(ctx, addr, nil)
}

func (c *EthClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return c.ec.SendTransaction(ctx, tx)
}

func (c *EthClient) TransactionReceipt(ctx context.Context, h common.Hash) (*types.Receipt, error) {
	return c.ec.TransactionReceipt(ctx, h)
}

// waitReceipt polls for the receipt of h until ctx expires.
func waitReceipt(ctx context.Context, client ChainClient, h common.Hash, interval time.Duration) (*types.Receipt, error) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		rcpt, err := client.TransactionReceipt(ctx, h)
		if err == nil && rcpt != nil {
			return rcpt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
