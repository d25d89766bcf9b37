package validator

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"telegram-faceswap-bot/internal/domain/ports/adapter"
)

var commandContext = exec.CommandContext

var _ adapter.ImageValidator = (*CommandValidator)(nil)

// CommandValidator asks an external face detector about the image. The image path
// is appended as the last argument. Exit 0 means a face was found, exit 1 means
// none; any other outcome is an error.
type CommandValidator struct {
	binary string
	args   []string
}

func NewCommandValidator(binary string, args []string) *CommandValidator {
	return &CommandValidator{binary: binary, args: append([]string(nil), args...)}
}

func (v *CommandValidator) IsAcceptable(ctx context.Context, imagePath string) (bool, error) {
	args := append(append([]string(nil), v.args...), imagePath)
	cmd := commandContext(ctx, v.binary, args...) //nolint:gosec
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("face detector %s: %w", v.binary, err)
}
