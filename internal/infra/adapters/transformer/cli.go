package transformer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"telegram-faceswap-bot/internal/config"
	"telegram-faceswap-bot/internal/domain"
	"telegram-faceswap-bot/internal/domain/ports/adapter"
)

var commandContext = exec.CommandContext

var _ adapter.Transformer = (*CLI)(nil)

// maxStderr bounds how much of the program's stderr ends up in the error.
const maxStderr = 2048

// CLI runs the face-swap program directly (no shell), e.g.
//
//	python run.py --target t.jpg --source s.jpg -o out.jpg --frame-processor face_swapper
type CLI struct {
	binary         string
	args           []string
	frameProcessor string
	workDir        string
}

func NewCLI(cfg config.TransformerConfig) *CLI {
	return &CLI{
		binary:         cfg.Binary,
		args:           append([]string(nil), cfg.Args...),
		frameProcessor: cfg.FrameProcessor,
		workDir:        cfg.WorkDir,
	}
}

// Args builds the argument vector passed to the binary.
func (c *CLI) Args(sourcePath, referencePath, outputPath string) []string {
	args := append([]string(nil), c.args...)
	args = append(args,
		"--target", referencePath,
		"--source", sourcePath,
		"-o", outputPath,
	)
	if c.frameProcessor != "" {
		args = append(args, "--frame-processor", c.frameProcessor)
	}
	return args
}

func (c *CLI) Run(ctx context.Context, sourcePath, referencePath, outputPath string) error {
	if sourcePath == "" || referencePath == "" || outputPath == "" {
		return domain.ErrInvalidArgument
	}

	cmd := commandContext(ctx, c.binary, c.Args(sourcePath, referencePath, outputPath)...) //nolint:gosec
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[len(msg)-maxStderr:]
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: exit %d: %s", domain.ErrTransformFailed, exitErr.ExitCode(), msg)
		}
		return fmt.Errorf("%w: %v", domain.ErrTransformFailed, err)
	}
	return nil
}
