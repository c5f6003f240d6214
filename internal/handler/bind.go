package handler

import (
	"signer-core/pkg/errno"
	"signer-core/pkg/validator"
)

// bindError 把参数绑定/校验错误翻译为 ErrBind
func bindError(err error) error {
	return errno.ErrBind.WithMessage(validator.GetErrorMsg(err))
}
