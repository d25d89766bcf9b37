package validator

import (
	"context"

	"telegram-faceswap-bot/internal/domain/ports/adapter"
)

var _ adapter.ImageValidator = Chain(nil)

// Chain accepts an image only when every validator does. Evaluation stops at the
// first rejection or error, so cheap checks belong first.
type Chain []adapter.ImageValidator

func (c Chain) IsAcceptable(ctx context.Context, imagePath string) (bool, error) {
	for _, v := range c {
		ok, err := v.IsAcceptable(ctx, imagePath)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
