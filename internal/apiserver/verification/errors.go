package verification

import "errors"

var (
	// ErrUnauthorized 操作者没有所需权限
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound 商家不存在
	ErrNotFound = errors.New("business not found")

	// ErrInvalidArgument 决定取值非法
	ErrInvalidArgument = errors.New("invalid argument")
)
