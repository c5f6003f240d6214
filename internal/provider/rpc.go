// Package provider 钱包提供方实现: JSON-RPC 注入式钱包与本地开发钱包
package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"signer-core/internal/signer"
	"signer-core/internal/wallet"
	"signer-core/pkg/web3util"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// JSON-RPC method not found
const codeMethodNotFound = -32601

// RPCProvider 通过 JSON-RPC 桥接注入式钱包 (如浏览器扩展或节点的 personal 接口)
type RPCProvider struct {
	rpc    *rpc.Client
	client *ethclient.Client
}

// DialRPC 连接钱包的 JSON-RPC 端点
func DialRPC(ctx context.Context, url string) (*RPCProvider, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("连接钱包 RPC 失败: %w", err)
	}
	return NewRPCProvider(c), nil
}

func NewRPCProvider(c *rpc.Client) *RPCProvider {
	return &RPCProvider{rpc: c, client: ethclient.NewClient(c)}
}

func (p *RPCProvider) Close() {
	p.rpc.Close()
}

// Info 根据 web3_clientVersion 识别钱包
func (p *RPCProvider) Info(ctx context.Context) wallet.ProviderInfo {
	var version string
	if err := p.rpc.CallContext(ctx, &version, "web3_clientVersion"); err != nil {
		return wallet.ProviderInfo{ID: "unknown", Name: "Unknown"}
	}
	return wallet.ProviderInfo{ID: web3util.IdentifyProvider(version), Name: version}
}

func (p *RPCProvider) MainAccount(ctx context.Context) (common.Address, error) {
	var accounts []common.Address
	if err := p.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return common.Address{}, err
	}
	if len(accounts) == 0 {
		return common.Address{}, wallet.ErrNoAccount
	}
	return accounts[0], nil
}

func (p *RPCProvider) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	return p.client.BalanceAt(ctx, account, nil)
}

// IsContract 地址上有代码即视为合约账户
func (p *RPCProvider) IsContract(ctx context.Context, account common.Address) (bool, error) {
	code, err := p.client.CodeAt(ctx, account, nil)
	if err != nil {
		return false, err
	}
	return len(code) > 0, nil
}

func (p *RPCProvider) ChainID(ctx context.Context) (int64, error) {
	id, err := p.client.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	if !id.IsInt64() {
		return 0, fmt.Errorf("chain id out of range: %s", id)
	}
	return id.Int64(), nil
}

// NetworkType net_version 对应的网络名称
func (p *RPCProvider) NetworkType(ctx context.Context) (string, error) {
	id, err := p.client.NetworkID(ctx)
	if err != nil {
		return "", err
	}
	if !id.IsInt64() {
		return web3util.NetworkPrivate, nil
	}
	return wallet.NetworkType(id.Int64()), nil
}

// Enable 请求账户授权，钱包不支持 eth_requestAccounts 时视为已授权
func (p *RPCProvider) Enable(ctx context.Context) error {
	var accounts []common.Address
	err := p.rpc.CallContext(ctx, &accounts, "eth_requestAccounts")
	if isMethodNotFound(err) {
		return nil
	}
	return err
}

type sendTxArgs struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Gas   *hexutil.Uint64 `json:"gas,omitempty"`
}

func toSendTxArgs(tx signer.TransactionPayload) sendTxArgs {
	args := sendTxArgs{From: tx.From, Data: tx.Data, Value: tx.Value}
	if tx.To != (common.Address{}) {
		to := tx.To
		args.To = &to
	}
	if tx.Gas != 0 {
		gas := tx.Gas
		args.Gas = &gas
	}
	return args
}

// SendTransaction eth_sendTransaction，返回交易哈希
func (p *RPCProvider) SendTransaction(ctx context.Context, tx signer.TransactionPayload) (string, error) {
	var hash common.Hash
	if err := p.rpc.CallContext(ctx, &hash, "eth_sendTransaction", toSendTxArgs(tx)); err != nil {
		return "", err
	}
	return hash.Hex(), nil
}

// PersonalSign personal_sign，消息以 UTF-8 字节的十六进制传入
func (p *RPCProvider) PersonalSign(ctx context.Context, message string, account common.Address) (string, error) {
	var sig hexutil.Bytes
	if err := p.rpc.CallContext(ctx, &sig, "personal_sign", hexutil.Encode([]byte(message)), account); err != nil {
		return "", err
	}
	return sig.String(), nil
}

func isMethodNotFound(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode() == codeMethodNotFound
	}
	return strings.Contains(err.Error(), "does not exist")
}
