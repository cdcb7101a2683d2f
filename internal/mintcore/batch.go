package mintcore

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// MintGasLimit is a fixed conservative gas limit. Simulating each mint
// would cost a round trip on the critical timing path.
const MintGasLimit = 500000

var (
	selectorMint1155 = common.FromHex("0x9b4f3af5")
	selectorMint721  = common.FromHex("0x9f93f779")
)

// BatchBuilder constructs and signs the per-run transaction batch.
type BatchBuilder struct {
	chainID  *big.Int
	key      *ecdsa.PrivateKey
	wallet   common.Address
	contract common.Address
}

// NewBatchBuilder parses the hex private key (with or without 0x) and
// derives the minting wallet from it.
func NewBatchBuilder(chainID *big.Int, pkHex string, contract common.Address) (*BatchBuilder, error) {
	key, err := gethcrypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(pkHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("private key parse: %w", err)
	}
	return &BatchBuilder{
		chainID:  chainID,
		key:      key,
		wallet:   gethcrypto.PubkeyToAddress(key.PublicKey),
		contract: contract,
	}, nil
}

func (b *BatchBuilder) Wallet() common.Address { return b.wallet }

// Build produces target.MintCount requests sharing calldata, value and
// gas params, each with nonce baseNonce+i. Every request is signed and
// ready for broadcast.
func (b *BatchBuilder) Build(target *MintTarget, baseNonce uint64, gas GasParams) ([]*TransactionRequest, error) {
	if target.MintCount < 1 {
		return nil, fmt.Errorf("%w: %d", ErrBadMintCount, target.MintCount)
	}
	data, err := EncodeMintCalldata(target.Protocol, b.wallet, target.TokenID)
	if err != nil {
		return nil, err
	}

	batch := make([]*TransactionRequest, 0, target.MintCount)
	for i := 0; i < target.MintCount; i++ {
		req := &TransactionRequest{
			To:       b.contract,
			Value:    new(big.Int).Set(target.PriceWei),
			GasLimit: MintGasLimit,
			Data:     data,
			Nonce:    baseNonce + uint64(i),
			Gas:      gas,
		}
		tx := types.NewTx(&types.DynamicFeeTx{
			ChainID:   b.chainID,
			Nonce:     req.Nonce,
			GasTipCap: new(big.Int).Set(gas.MaxPriorityFeePerGas),
			GasFeeCap: new(big.Int).Set(gas.MaxFeePerGas),
			Gas:       req.GasLimit,
			To:        &req.To,
			Value:     req.Value,
			Data:      data,
		})
		signed, err := types.SignTx(tx, types.LatestSignerForChainID(b.chainID), b.key)
		if err != nil {
			return nil, fmt.Errorf("sign nonce %d: %w", req.Nonce, err)
		}
		req.Tx = signed
		batch = append(batch, req)
	}
	return batch, nil
}

// EncodeMintCalldata builds the protocol-specific mint call. Arguments
// are 32-byte left-padded per ABI convention.
//
//	erc1155: mint(to, id, amount=1, data=empty)
//	erc721:  mint(to, amount=1)
func EncodeMintCalldata(p Protocol, to common.Address, tokenID string) ([]byte, error) {
	switch p {
	case ERC1155:
		id, err := parseTokenID(tokenID)
		if err != nil {
			return nil, err
		}
		data := make([]byte, 0, 4+5*32)
		data = append(data, selectorMint1155...)
		data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
		data = append(data, common.LeftPadBytes(id.Bytes(), 32)...)
		data = append(data, common.LeftPadBytes(big.NewInt(1).Bytes(), 32)...)
		// offset of the empty bytes tail: 4 head words
		data = append(data, common.LeftPadBytes(big.NewInt(128).Bytes(), 32)...)
		data = append(data, common.LeftPadBytes(nil, 32)...)
		return data, nil
	case ERC721:
		data := make([]byte, 0, 4+2*32)
		data = append(data, selectorMint721...)
		data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
		data = append(data, common.LeftPadBytes(big.NewInt(1).Bytes(), 32)...)
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, p)
	}
}

func parseTokenID(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return big.NewInt(0), nil
	}
	id := new(big.Int)
	var ok bool
	if strings.HasPrefix(s, "0x") {
		id, ok = id.SetString(s[2:], 16)
	} else {
		id, ok = id.SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("token id parse: %q", s)
	}
	return id, nil
}
