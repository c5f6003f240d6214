package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var ErrNoAccount = errors.New("no account")

// Provider 钱包提供方的只读查询接口
type Provider interface {
	// MainAccount 第一个账户；没有账户 (未解锁/未授权) 时返回 ErrNoAccount
	MainAccount(ctx context.Context) (common.Address, error)
	Balance(ctx context.Context, account common.Address) (*big.Int, error)
	IsContract(ctx context.Context, account common.Address) (bool, error)
	ChainID(ctx context.Context) (int64, error)
	NetworkType(ctx context.Context) (string, error)
}

// Enabler 请求钱包授权账户 (EIP-1102 enable / eth_requestAccounts)
type Enabler interface {
	Enable(ctx context.Context) error
}

// Enable 对支持授权的提供方发起授权请求，不支持时直接返回
func Enable(ctx context.Context, p Provider) error {
	e, ok := p.(Enabler)
	if !ok {
		return nil
	}
	return e.Enable(ctx)
}
