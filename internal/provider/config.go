package provider

import (
	"context"
	"fmt"

	"signer-core/internal/signer"
	"signer-core/internal/wallet"
	"signer-core/pkg/config"

	"github.com/ethereum/go-ethereum/ethclient"
)

// 钱包提供方类型
const (
	KindRPC   = "rpc"
	KindLocal = "local"
	KindNone  = "none"
)

// Web3 已连接的钱包提供方。Signer 为 nil 表示没有可用的 Web3。
type Web3 struct {
	Provider wallet.Provider
	Signer   signer.Signer
	Info     wallet.ProviderInfo
	// Chain 节点客户端 (日志扫描等)，未配置提供方时为 nil
	Chain    *ethclient.Client
	close    func()
}

func (w *Web3) Close() {
	if w.close != nil {
		w.close()
	}
}

// FromConfig 按 wallet.provider 创建提供方
func FromConfig(ctx context.Context, c config.WalletConfig) (*Web3, error) {
	switch c.Provider {
	case KindRPC:
		p, err := DialRPC(ctx, c.RpcUrl)
		if err != nil {
			return nil, err
		}
		return &Web3{Provider: p, Signer: p, Info: p.Info(ctx), Chain: p.client, close: p.Close}, nil

	case KindLocal:
		client, err := ethclient.DialContext(ctx, c.RpcUrl)
		if err != nil {
			return nil, fmt.Errorf("连接节点失败: %w", err)
		}
		var p *LocalProvider
		if c.Mnemonic != "" {
			p, err = NewLocalProviderFromMnemonic(client, c.Mnemonic, c.DerivationPath)
		} else {
			p, err = OpenLocalProvider(client, c.KeystorePath, c.Password, c.DerivationPath)
		}
		if err != nil {
			client.Close()
			return nil, err
		}
		return &Web3{Provider: p, Signer: p, Info: LocalInfo, Chain: client, close: client.Close}, nil

	case KindNone, "":
		return &Web3{Info: wallet.ProviderInfo{ID: "unknown", Name: "Unknown"}}, nil
	}
	return nil, fmt.Errorf("unknown wallet provider %q", c.Provider)
}
