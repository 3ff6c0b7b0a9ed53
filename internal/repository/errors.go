package repository

import "errors"

var ErrNotFound = errors.New("not found")

// ユニーク制約違反（冪等キー・注文番号・content_hashの競合）
var ErrDuplicate = errors.New("duplicate")
