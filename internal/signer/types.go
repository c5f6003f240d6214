package signer

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DescriptionPart 带注解的描述片段 (如 address、role、app 等类型)
type DescriptionPart struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// TransactionPayload 待发送的交易，原样转发给钱包
type TransactionPayload struct {
	From                 common.Address      `json:"from"`
	To                   common.Address      `json:"to"`
	Data                 hexutil.Bytes       `json:"data,omitempty"`
	Value                *hexutil.Big        `json:"value,omitempty"`
	Gas                  hexutil.Uint64      `json:"gas,omitempty"`
	Description          string              `json:"description,omitempty"`
	AnnotatedDescription []DescriptionPart   `json:"annotatedDescription,omitempty"`
	Pretransaction       *TransactionPayload `json:"pretransaction,omitempty"`
}

// PathNode 转发路径上的一个节点，最后一个节点是最终目标应用
type PathNode struct {
	Description          string              `json:"description,omitempty"`
	Name                 string              `json:"name,omitempty"`
	To                   common.Address      `json:"to"`
	AnnotatedDescription []DescriptionPart   `json:"annotatedDescription,omitempty"`
	Transaction          *TransactionPayload `json:"transaction,omitempty"`
}
