package signer

import (
	"signer-core/internal/apps"

	"github.com/ethereum/go-ethereum/common"
)

const msgSignDescription = "You are about to sign this message with the connected account"

// AppLookup 按地址查找应用实例
type AppLookup interface {
	FindByAddress(addr common.Address) (apps.Instance, bool)
}

// Intent 展示给用户的操作意图
type Intent struct {
	Description          string              `json:"description,omitempty"`
	Name                 string              `json:"name,omitempty"`
	To                   *common.Address     `json:"to,omitempty"`
	AnnotatedDescription []DescriptionPart   `json:"annotatedDescription,omitempty"`
	Transaction          *TransactionPayload `json:"transaction,omitempty"`

	Message       string         `json:"message,omitempty"`
	RequestingApp *apps.Instance `json:"requestingApp,omitempty"`
}

// txState 由 TransactionBag 推导出的面板状态
type txState struct {
	intent         Intent
	direct         bool
	actionPaths    [][]PathNode
	pretransaction *TransactionPayload
}

func stateFromTransactionBag(b *TransactionBag, lookup AppLookup) txState {
	st := txState{direct: len(b.Path) == 1}
	if len(b.Path) > 0 {
		st.actionPaths = [][]PathNode{b.Path}
	}
	if b.Transaction != nil {
		st.intent = transactionIntent(b.Path, b.Transaction, lookup)
		st.pretransaction = b.Transaction.Pretransaction
	}
	return st
}

// transactionIntent 经过转发器时取最后一个节点作为意图；
// 直接调用时按 to 地址在应用实例中查找名称，找不到则为空。
func transactionIntent(path []PathNode, tx *TransactionPayload, lookup AppLookup) Intent {
	if len(path) > 1 {
		last := path[len(path)-1]
		to := last.To
		return Intent{
			Description:          last.Description,
			Name:                 last.Name,
			To:                   &to,
			AnnotatedDescription: last.AnnotatedDescription,
			Transaction:          tx,
		}
	}

	name := ""
	if lookup != nil {
		if app, ok := lookup.FindByAddress(tx.To); ok {
			name = app.Name
		}
	}
	to := tx.To
	return Intent{
		Description:          tx.Description,
		Name:                 name,
		To:                   &to,
		AnnotatedDescription: tx.AnnotatedDescription,
		Transaction:          tx,
	}
}

// transactionToSend 实际发送的是路径第一个节点的交易 (转发器入口)，
// 没有路径时发送请求中的交易
func transactionToSend(path []PathNode, tx *TransactionPayload) *TransactionPayload {
	if len(path) > 0 && path[0].Transaction != nil {
		return path[0].Transaction
	}
	return tx
}

func messageIntent(b *SignatureBag) Intent {
	app := b.RequestingApp
	return Intent{
		Description:   msgSignDescription,
		Message:       b.Message,
		RequestingApp: &app,
	}
}
