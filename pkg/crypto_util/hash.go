package crypto_util

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// fieldSeparator 用于拼接多段输入，避免 ("ab","c") 与 ("a","bc") 产生相同摘要
const fieldSeparator = 0x1f

// CalculateSHA256 计算输入的 SHA256 哈希值。
func CalculateSHA256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// CalculateKeccak256 计算输入的 Keccak256 哈希值 (以太坊使用的哈希算法)。
func CalculateKeccak256(data []byte) string {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	return hex.EncodeToString(hash.Sum(nil))
}

// CalculateBlake3 计算输入的 Blake3 哈希值。
func CalculateBlake3(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Fingerprint 对多段字段计算 Blake3 指纹，用于活动记录去重
func Fingerprint(fields ...string) string {
	h := blake3.New(32, nil)
	for i, f := range fields {
		if i > 0 {
			h.Write([]byte{fieldSeparator})
		}
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}
