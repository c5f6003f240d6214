package provider

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"signer-core/internal/signer"
	"signer-core/internal/wallet"
	"signer-core/pkg/bip32"
	"signer-core/pkg/bip39"
	"signer-core/pkg/keystore"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrUnknownAccount = errors.New("account is not managed by this wallet")

// LocalInfo 本地开发钱包标识
var LocalInfo = wallet.ProviderInfo{ID: "local", Name: "Local dev wallet"}

// Backend 本地钱包依赖的链上接口，*ethclient.Client 满足该接口
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	ChainID(ctx context.Context) (*big.Int, error)
	NetworkID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// LocalProvider 持有私钥的开发钱包，账户始终处于解锁状态
type LocalProvider struct {
	backend Backend
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewLocalProvider(backend Backend, key *ecdsa.PrivateKey) *LocalProvider {
	return &LocalProvider{
		backend: backend,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// NewLocalProviderFromMnemonic 助记词 -> 种子 -> 按路径派生私钥
func NewLocalProviderFromMnemonic(backend Backend, mnemonic, path string) (*LocalProvider, error) {
	seed, err := bip39.NewMnemonicService().MnemonicToSeed(mnemonic, "")
	if err != nil {
		return nil, err
	}
	w, err := bip32.NewMasterKeyFromSeed(seed)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = bip32.DefaultEthPath
	}
	key, err := w.DerivePath(path)
	if err != nil {
		return nil, err
	}
	return NewLocalProvider(backend, key), nil
}

// OpenLocalProvider 解密 keystore 文件中的助记词并派生账户
func OpenLocalProvider(backend Backend, keystorePath, password, path string) (*LocalProvider, error) {
	mnemonic, err := keystore.Open(keystorePath, password)
	if err != nil {
		return nil, err
	}
	return NewLocalProviderFromMnemonic(backend, mnemonic, path)
}

func (p *LocalProvider) Address() common.Address {
	return p.address
}

func (p *LocalProvider) MainAccount(ctx context.Context) (common.Address, error) {
	return p.address, nil
}

func (p *LocalProvider) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	return p.backend.BalanceAt(ctx, account, nil)
}

func (p *LocalProvider) IsContract(ctx context.Context, account common.Address) (bool, error) {
	code, err := p.backend.CodeAt(ctx, account, nil)
	if err != nil {
		return false, err
	}
	return len(code) > 0, nil
}

func (p *LocalProvider) ChainID(ctx context.Context) (int64, error) {
	id, err := p.backend.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	return id.Int64(), nil
}

func (p *LocalProvider) NetworkType(ctx context.Context) (string, error) {
	id, err := p.backend.NetworkID(ctx)
	if err != nil {
		return "", err
	}
	return wallet.NetworkType(id.Int64()), nil
}

// SendTransaction 构造 EIP-1559 交易，本地签名后广播
func (p *LocalProvider) SendTransaction(ctx context.Context, payload signer.TransactionPayload) (string, error) {
	if payload.From != (common.Address{}) && payload.From != p.address {
		return "", ErrUnknownAccount
	}

	chainID, err := p.backend.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("获取 chainId 失败: %w", err)
	}
	nonce, err := p.backend.PendingNonceAt(ctx, p.address)
	if err != nil {
		return "", fmt.Errorf("获取 nonce 失败: %w", err)
	}
	tip, err := p.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return "", fmt.Errorf("获取 gas tip 失败: %w", err)
	}
	head, err := p.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("获取最新区块失败: %w", err)
	}

	// maxFee = 2 * baseFee + tip
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	value := new(big.Int)
	if payload.Value != nil {
		value = payload.Value.ToInt()
	}
	to := payload.To

	gas := uint64(payload.Gas)
	if gas == 0 {
		gas, err = p.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:  p.address,
			To:    &to,
			Value: value,
			Data:  payload.Data,
		})
		if err != nil {
			return "", fmt.Errorf("估算 gas 失败: %w", err)
		}
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      payload.Data,
	})
	signed, err := types.SignTx(tx, types.NewLondonSigner(chainID), p.key)
	if err != nil {
		return "", fmt.Errorf("签名失败: %w", err)
	}
	if err := p.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("广播失败: %w", err)
	}
	return signed.Hash().Hex(), nil
}

// PersonalSign EIP-191 签名，v 取 27/28
func (p *LocalProvider) PersonalSign(ctx context.Context, message string, account common.Address) (string, error) {
	if account != p.address {
		return "", ErrUnknownAccount
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), p.key)
	if err != nil {
		return "", err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}
