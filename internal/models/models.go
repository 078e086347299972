package models

import (
	"context"
	"errors"
)

// 定義常見錯誤
var (
	ErrUnknownKind = errors.New("unknown data kind")
	ErrNotFound    = errors.New("record not found")
	ErrClosed      = errors.New("broker is closed")
)

// IsCanceled reports whether err comes from a caller giving up rather than
// from a store failing.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
