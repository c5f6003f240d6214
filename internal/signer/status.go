package signer

// Status 签名面板状态
type Status int

const (
	StatusConfirming Status = iota
	StatusSigning
	StatusSigned
	StatusError
	StatusConfirmingMsgSign
	StatusSigningMessage
	StatusMessageSigned
	StatusErrorSigningMsg
)

var statusNames = map[Status]string{
	StatusConfirming:        "CONFIRMING",
	StatusSigning:           "SIGNING",
	StatusSigned:            "SIGNED",
	StatusError:             "ERROR",
	StatusConfirmingMsgSign: "CONFIRMING_MSG_SIGN",
	StatusSigningMessage:    "SIGNING_MESSAGE",
	StatusMessageSigned:     "MESSAGE_SIGNED",
	StatusErrorSigningMsg:   "ERROR_SIGNING_MSG",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTxSignRequest 是否属于交易签名流程
func IsTxSignRequest(s Status) bool {
	switch s {
	case StatusConfirming, StatusSigning, StatusSigned, StatusError:
		return true
	}
	return false
}

// ConfirmingSignature 是否处于等待用户确认
func ConfirmingSignature(s Status) bool {
	return s == StatusConfirming || s == StatusConfirmingMsgSign
}

// SignatureSuccess 是否签名成功 (会自动关闭面板)
func SignatureSuccess(s Status) bool {
	return s == StatusSigned || s == StatusMessageSigned
}
