package wallet

import (
	"time"

	"signer-core/pkg/web3util"
)

// 各网络的平均出块时间
var blockTimes = map[string]time.Duration{
	"main":    13500 * time.Millisecond,
	"kovan":   4 * time.Second,
	"rinkeby": 14500 * time.Millisecond,
	"ropsten": 11500 * time.Millisecond,
	"goerli":  15 * time.Second,
	"private": 8 * time.Second,
}

// NetworkType chainId 对应的网络名称
func NetworkType(chainID int64) string {
	return web3util.NetworkTypeName(chainID)
}

// BlockTime 网络的平均出块时间，未知网络按 private 处理
func BlockTime(network string) time.Duration {
	if d, ok := blockTimes[network]; ok {
		return d
	}
	return blockTimes[web3util.NetworkPrivate]
}

// HasNetworkMismatch 钱包所在网络与应用期望的网络不一致
func HasNetworkMismatch(s Snapshot, expected string) bool {
	return s.NetworkType != expected
}
