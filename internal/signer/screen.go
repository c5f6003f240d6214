package signer

import (
	"fmt"

	"signer-core/pkg/errno"
)

type ScreenKind string

const (
	ScreenIdle         ScreenKind = "idle"
	ScreenNoWeb3       ScreenKind = "no_web3"
	ScreenLocked       ScreenKind = "locked"
	ScreenWrongNetwork ScreenKind = "wrong_network"
	ScreenConfirm      ScreenKind = "confirm"
	ScreenImpossible   ScreenKind = "impossible"
	ScreenStatus       ScreenKind = "status"
)

// ImpossibleReason 无法执行的原因
type ImpossibleReason string

const (
	ReasonNone       ImpossibleReason = ""
	ReasonError      ImpossibleReason = "error"
	ReasonPermission ImpossibleReason = "permission"
)

// Screen 当前应展示的界面
type Screen struct {
	Kind           ScreenKind       `json:"kind"`
	Reason         ImpossibleReason `json:"reason,omitempty"`
	CanEnable      bool             `json:"canEnable,omitempty"`
	SigningEnabled bool             `json:"signingEnabled"`
	Title          string           `json:"title"`
	Message        string           `json:"message,omitempty"`
}

// screenInput 计算界面所需的全部输入
type screenInput struct {
	hasBag          bool
	hasWeb3         bool
	hasAccount      bool
	walletNetwork   string
	expectedNetwork string
	status          Status
	direct          bool
	paths           int
	signError       error
	intent          Intent
}

// selectScreen 按顺序检查: 钱包是否存在、账户是否解锁、网络是否匹配，
// 之后根据路径决定是确认页还是无法执行页
func selectScreen(in screenInput) Screen {
	title := "Sign Message"
	if IsTxSignRequest(in.status) {
		title = "Create transaction"
	}

	if !in.hasBag {
		return Screen{Kind: ScreenIdle, Title: title}
	}
	if !ConfirmingSignature(in.status) {
		return Screen{Kind: ScreenStatus, Title: title, Message: statusMessage(in.status, in.signError)}
	}

	action := "this action"
	if in.intent.Description != "" {
		action = fmt.Sprintf("%q", in.intent.Description)
	}

	if !in.hasWeb3 {
		return Screen{
			Kind:    ScreenNoWeb3,
			Title:   "You can't perform any action",
			Message: fmt.Sprintf("%s in order to perform %s.", errno.ErrNoWeb3.Message, action),
		}
	}
	if !in.hasAccount {
		return Screen{
			Kind:      ScreenLocked,
			Title:     "You can't perform any action",
			CanEnable: true,
			Message:   fmt.Sprintf("%s in order to perform %s.", errno.ErrAccountLocked.Message, action),
		}
	}
	if in.expectedNetwork != "" && in.walletNetwork != in.expectedNetwork {
		return Screen{
			Kind:  ScreenWrongNetwork,
			Title: "You can't perform any action",
			Message: fmt.Sprintf("Please select the %s network in your Ethereum provider (currently on %s).",
				in.expectedNetwork, in.walletNetwork),
		}
	}

	if in.status == StatusConfirmingMsgSign {
		return Screen{Kind: ScreenConfirm, Title: title, SigningEnabled: true}
	}

	possible := (in.direct || in.paths > 0) && in.signError == nil
	if possible {
		return Screen{Kind: ScreenConfirm, Title: title, SigningEnabled: true}
	}

	s := Screen{Kind: ScreenImpossible, Title: "Action impossible"}
	if in.signError != nil {
		s.Reason = ReasonError
		s.Message = fmt.Sprintf("The action %s failed to execute on %s. An error occurred when we tried to find a path or send a transaction for this action.",
			action, in.intent.Name)
	} else {
		s.Reason = ReasonPermission
		s.Message = fmt.Sprintf("The action %s failed to execute on %s. You might not have the necessary permissions.",
			action, in.intent.Name)
	}
	return s
}

// screenError 非确认页对应的错误码
func screenError(s Screen) error {
	switch s.Kind {
	case ScreenConfirm:
		return nil
	case ScreenIdle:
		return errno.ErrNoActiveRequest
	case ScreenNoWeb3:
		return errno.ErrNoWeb3
	case ScreenLocked:
		return errno.ErrAccountLocked
	case ScreenWrongNetwork:
		return errno.ErrWrongNetwork
	case ScreenImpossible:
		return errno.ErrActionImpossible
	default:
		return errno.ErrSigningDisabled
	}
}

func statusMessage(s Status, signErr error) string {
	switch s {
	case StatusSigning, StatusSigningMessage:
		return "Waiting for signature..."
	case StatusSigned:
		return "Transaction signed!"
	case StatusMessageSigned:
		return "Message signed!"
	case StatusError, StatusErrorSigningMsg:
		if signErr != nil {
			return "Error signing: " + signErr.Error()
		}
		return "Error signing"
	}
	return ""
}
