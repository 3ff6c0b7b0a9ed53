package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	repo "ordercore/internal/repository"
)

func orderNumberPrefix(now time.Time) string {
	return "ORD-" + now.Format("20060102") + "-"
}

func formatOrderNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}

// nextOrderNumberは ORD-YYYYMMDD-NNN を採番する。
// 日ごとのカウンタ行をロックするので、同じ日の注文作成はここで直列になる
func nextOrderNumber(ctx context.Context, r repo.TxRepos, now time.Time) (string, error) {
	day := now.Format("20060102")
	prefix := orderNumberPrefix(now)

	last, err := r.OrderSequences().LockDay(ctx, day)
	if err != nil {
		return "", err
	}

	//カウンタが未使用ならその日の既存注文の続きから
	if last == 0 {
		n, found, err := r.Orders().LastOrderNumberWithPrefix(ctx, prefix)
		if err != nil {
			return "", err
		}
		if found {
			seq, err := strconv.ParseInt(strings.TrimPrefix(n, prefix), 10, 64)
			if err != nil {
				return "", fmt.Errorf("parse order number %q: %w", n, err)
			}
			last = seq
		}
	}

	next := last + 1
	if err := r.OrderSequences().SetLast(ctx, day, next); err != nil {
		return "", err
	}
	return formatOrderNumber(prefix, next), nil
}
