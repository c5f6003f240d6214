package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// WithMessage 返回同错误码、替换提示信息的副本
func (e Errno) WithMessage(msg string) Errno {
	e.Message = msg
	return e
}

// Decode tries to convert an error to Errno
// 被 %w 包装过的 Errno 也能被识别
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var typed Errno
	if errors.As(err, &typed) {
		return typed.Code, typed.Message
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, ptr.Message
	}
	return InternalServerError.Code, err.Error()
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
	ErrNotFound         = Errno{Code: 10005, Message: "Resource not found"}
)

// Wallet connectivity errors (20100+)
var (
	ErrNoWeb3        = Errno{Code: 20101, Message: "You need to be connected to a Web3 instance"}
	ErrAccountLocked = Errno{Code: 20102, Message: "You need to unlock your account"}
	ErrWrongNetwork  = Errno{Code: 20103, Message: "Wrong network"}
)

// Signer errors (20200+)
var (
	ErrNoActiveRequest  = Errno{Code: 20201, Message: "No active sign request"}
	ErrSigningDisabled  = Errno{Code: 20202, Message: "Signing is not enabled in the current state"}
	ErrActionImpossible = Errno{Code: 20203, Message: "Action impossible"}
	ErrSignFailed       = Errno{Code: 20204, Message: "Signing failed"}
	ErrRequestTimeout   = Errno{Code: 20205, Message: "Sign request was not settled in time"}
)

// Worker errors (20300+)
var (
	ErrWorkerNotFound = Errno{Code: 20301, Message: "Worker not found"}
)
