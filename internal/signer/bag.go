package signer

import (
	"sync"

	"signer-core/internal/apps"
)

type BagKind int

const (
	KindTransaction BagKind = iota
	KindSignature
)

func (k BagKind) String() string {
	switch k {
	case KindTransaction:
		return "transaction"
	case KindSignature:
		return "message"
	default:
		return "unknown"
	}
}

// Bag 签名请求，只有 *TransactionBag 和 *SignatureBag 两种实现。
// 每个 Bag 最多结算一次；被新请求替换的 Bag 永远不会结算。
type Bag interface {
	Kind() BagKind
	isBag()
}

// Result 请求方收到的结算结果
type Result struct {
	Value string
	Err   error
}

// TransactionBag 交易签名请求。PathErr 为查找转发路径时发生的错误。
type TransactionBag struct {
	Path        []PathNode
	Transaction *TransactionPayload
	PathErr     error
	Accept      func(result string)
	Reject      func(err error)

	once sync.Once
}

func (b *TransactionBag) Kind() BagKind { return KindTransaction }
func (b *TransactionBag) isBag()        {}

func (b *TransactionBag) accept(result string) {
	b.once.Do(func() {
		if b.Accept != nil {
			b.Accept(result)
		}
	})
}

func (b *TransactionBag) reject(err error) {
	b.once.Do(func() {
		if b.Reject != nil {
			b.Reject(err)
		}
	})
}

// SignatureBag 消息签名请求
type SignatureBag struct {
	RequestingApp apps.Instance
	Message       string
	Resolve       func(signature string)
	Reject        func(err error)

	once sync.Once
}

func (b *SignatureBag) Kind() BagKind { return KindSignature }
func (b *SignatureBag) isBag()        {}

func (b *SignatureBag) resolve(signature string) {
	b.once.Do(func() {
		if b.Resolve != nil {
			b.Resolve(signature)
		}
	})
}

func (b *SignatureBag) reject(err error) {
	b.once.Do(func() {
		if b.Reject != nil {
			b.Reject(err)
		}
	})
}

// NewTransactionBag 构造交易请求，结算结果写入返回的 channel (缓冲 1)
func NewTransactionBag(path []PathNode, tx *TransactionPayload) (*TransactionBag, <-chan Result) {
	ch := make(chan Result, 1)
	return &TransactionBag{
		Path:        path,
		Transaction: tx,
		Accept:      func(result string) { ch <- Result{Value: result} },
		Reject:      func(err error) { ch <- Result{Err: err} },
	}, ch
}

// NewSignatureBag 构造消息签名请求，结算结果写入返回的 channel (缓冲 1)
func NewSignatureBag(app apps.Instance, message string) (*SignatureBag, <-chan Result) {
	ch := make(chan Result, 1)
	return &SignatureBag{
		RequestingApp: app,
		Message:       message,
		Resolve:       func(signature string) { ch <- Result{Value: signature} },
		Reject:        func(err error) { ch <- Result{Err: err} },
	}, ch
}
