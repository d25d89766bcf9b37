package validator

import (
	"context"
	"fmt"

	"github.com/disintegration/imaging"

	"telegram-faceswap-bot/internal/domain/ports/adapter"
)

var _ adapter.ImageValidator = (*DecodeValidator)(nil)

// DecodeValidator accepts files that decode as an image of at least the
// configured size. Undecodable files are rejected, not reported as errors.
type DecodeValidator struct {
	minWidth  int
	minHeight int
}

func NewDecodeValidator(minWidth, minHeight int) *DecodeValidator {
	return &DecodeValidator{minWidth: minWidth, minHeight: minHeight}
}

func (v *DecodeValidator) IsAcceptable(ctx context.Context, imagePath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	img, err := imaging.Open(imagePath)
	if err != nil {
		return false, nil
	}
	b := img.Bounds()
	if b.Dx() < v.minWidth || b.Dy() < v.minHeight {
		return false, nil
	}
	return true, nil
}

func (v *DecodeValidator) String() string {
	return fmt.Sprintf("decode(min %dx%d)", v.minWidth, v.minHeight)
}
