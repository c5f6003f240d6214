package wallet

import (
	"math/big"

	"signer-core/pkg/web3util"

	"github.com/ethereum/go-ethereum/common"
)

// ProviderInfo 钱包提供方标识 (不参与快照比较)
type ProviderInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot 某一时刻的钱包连接状态。
// 快照是不可变值，只能整体替换；IsConnected 恒等于 Account != nil。
type Snapshot struct {
	Account      *common.Address `json:"account"`
	Balance      *big.Int        `json:"balance"`
	ChainID      int64           `json:"chainId"`
	IsConnected  bool            `json:"isConnected"`
	IsContract   bool            `json:"isContract"`
	NetworkType  string          `json:"networkType"`
	ProviderInfo ProviderInfo    `json:"providerInfo"`
}

// Base 断开状态的快照: 无账户、余额未知、chainId -1、私有网络
func Base(info ProviderInfo) Snapshot {
	return Snapshot{
		Balance:      web3util.UnknownBalance(),
		ChainID:      -1,
		NetworkType:  web3util.NetworkPrivate,
		ProviderInfo: info,
	}
}

// Connected 构造已连接的快照
func Connected(info ProviderInfo, account common.Address, balance *big.Int, chainID int64, isContract bool, networkType string) Snapshot {
	return Snapshot{
		Account:      &account,
		Balance:      new(big.Int).Set(balance),
		ChainID:      chainID,
		IsConnected:  true,
		IsContract:   isContract,
		NetworkType:  networkType,
		ProviderInfo: info,
	}
}

// AccountHex 当前账户地址，未连接时为空串
func (s Snapshot) AccountHex() string {
	if s.Account == nil {
		return ""
	}
	return s.Account.Hex()
}

// BalanceOrUnknown 返回余额副本
func (s Snapshot) BalanceOrUnknown() *big.Int {
	if s.Balance == nil {
		return web3util.UnknownBalance()
	}
	return new(big.Int).Set(s.Balance)
}

// Equal 比较 account、balance (按数值)、chainId、isConnected、isContract、networkType
func Equal(a, b Snapshot) bool {
	return sameAccount(a.Account, b.Account) &&
		a.BalanceOrUnknown().Cmp(b.BalanceOrUnknown()) == 0 &&
		a.ChainID == b.ChainID &&
		a.IsConnected == b.IsConnected &&
		a.IsContract == b.IsContract &&
		a.NetworkType == b.NetworkType
}

func sameAccount(a, b *common.Address) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
