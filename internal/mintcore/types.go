package mintcore

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Token protocol of the mint contract.
type Protocol string

const (
	ERC721      Protocol = "ERC721"
	ERC1155     Protocol = "ERC1155"
	Unsupported Protocol = "UNSUPPORTED"
)

// ParseProtocol maps an API protocol string to a known kind.
func ParseProtocol(s string) Protocol {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERC721":
		return ERC721
	case "ERC1155":
		return ERC1155
	default:
		return Unsupported
	}
}

var (
	ErrNoOffer             = errors.New("no mint offer available")
	ErrNoContract          = errors.New("no mint contract address")
	ErrNoStages            = errors.New("collection has no mint stages")
	ErrUnsupportedProtocol = errors.New("unsupported token protocol")
	ErrBadMintCount        = errors.New("mint count must be a positive integer")
	ErrBadStageChoice      = errors.New("stage choice out of range")
)

// MintOffer is the discovery result for one collection. Immutable after
// the fetch that produced it.
type MintOffer struct {
	CollectionID   string
	CollectionName string
	IsMinting      bool
	Protocol       Protocol
	TokenID        string
}

// Stage is one pricing/eligibility tier. StartTime is a Unix timestamp
// in seconds and may carry sub-second precision.
type Stage struct {
	Index     int
	StartTime float64
	PriceWei  *big.Int
}

// MintTarget is the resolved execution plan for a single run.
type MintTarget struct {
	CollectionID   string
	CollectionName string
	Protocol       Protocol
	TokenID        string
	PriceWei       *big.Int
	MintCount      int
	StageIndex     int
}

// GasParams are the EIP-1559 bid fields shared by a batch.
type GasParams struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// TransactionRequest is one prepared, signed batch member.
type TransactionRequest struct {
	To       common.Address
	Value    *big.Int
	GasLimit uint64
	Data     []byte
	Nonce    uint64
	Gas      GasParams

	// Tx is the signed transaction ready for broadcast.
	Tx *types.Transaction
}

// ParseMintCount validates user input before anything touches the chain.
func ParseMintCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadMintCount, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d", ErrBadMintCount, n)
	}
	return n, nil
}
