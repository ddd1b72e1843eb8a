// Package internal 提供 dao/mysql 各实现共用的错误包装助手
package internal

import (
	"coach_chat_server/pkg/errorx"
)

// WrapDBError 将底层数据库错误包装为带 CodeDBError 的业务错误
func WrapDBError(err error, msg string) error {
	return errorx.Wrap(err, errorx.CodeDBError, msg)
}

// WrapDBErrorf 同 WrapDBError，支持格式化消息
func WrapDBErrorf(err error, format string, args ...any) error {
	return errorx.Wrapf(err, errorx.CodeDBError, format, args...)
}
