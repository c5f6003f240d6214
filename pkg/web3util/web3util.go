// Package web3util 地址与余额相关的常用工具函数
package web3util

import (
	"context"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

// EmptyAddress 零地址
var EmptyAddress = common.Address{}

var (
	ensNameRegex   = regexp.MustCompile(`^([\w-]+\.)+eth$`)
	websocketRegex = regexp.MustCompile(`^wss?://.+`)
)

// 已知网络 ID -> 网络名称
var networkTypes = map[int64]string{
	1:  "main",
	3:  "ropsten",
	4:  "rinkeby",
	5:  "goerli",
	42: "kovan",
}

// NetworkPrivate 未知网络统一视为私有网络
const NetworkPrivate = "private"

// UnknownBalance 余额未知时的哨兵值 (-1)
func UnknownBalance() *big.Int {
	return big.NewInt(-1)
}

// IsUnknownBalance 判断是否为未知余额
func IsUnknownBalance(b *big.Int) bool {
	return b == nil || b.Sign() < 0
}

// AddressesEqual 忽略大小写 (checksum) 比较两个地址字符串
func AddressesEqual(first, second string) bool {
	return strings.EqualFold(first, second)
}

// IsEmptyAddress 是否为零地址
func IsEmptyAddress(address string) bool {
	return AddressesEqual(address, EmptyAddress.Hex())
}

// ShortenAddress 缩短地址显示，如 0x19731977931271 -> 0x1973…1271。
// 地址长度不足时原样返回。
func ShortenAddress(address string, charsLength int) string {
	const prefixLength = 2 // "0x"
	if address == "" {
		return ""
	}
	if len(address) < charsLength*2+prefixLength {
		return address
	}
	return address[:charsLength+prefixLength] + "…" + address[len(address)-charsLength:]
}

// FormatBalance 将最小单位的金额按 decimals 换算并截断到 precision 位小数，
// 末尾的 0 会被去掉，如 1.50 -> 1.5，1.00 -> 1
func FormatBalance(amount *big.Int, decimals int32, precision int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).Truncate(precision).String()
}

// IsValidEnsName 是否为 .eth 结尾的 ENS 名称
func IsValidEnsName(name string) bool {
	return ensNameRegex.MatchString(name)
}

// NetworkTypeName 网络 ID 对应的名称，未知网络返回 private
func NetworkTypeName(id int64) string {
	if name, ok := networkTypes[id]; ok {
		return name
	}
	return NetworkPrivate
}

// IsValidEthNode 检查 websocket 节点是否可用且处于期望的网络
func IsValidEthNode(ctx context.Context, uri string, expectedNetworkType string) bool {
	if !websocketRegex.MatchString(uri) {
		return false
	}

	client, err := ethclient.DialContext(ctx, uri)
	if err != nil {
		return false
	}
	defer client.Close()

	id, err := client.NetworkID(ctx)
	if err != nil || !id.IsInt64() {
		return false
	}
	return NetworkTypeName(id.Int64()) == expectedNetworkType
}

// IdentifyProvider 根据 web3_clientVersion 识别钱包类型
func IdentifyProvider(clientVersion string) string {
	if strings.Contains(strings.ToLower(clientVersion), "metamask") {
		return "metamask"
	}
	return "unknown"
}
