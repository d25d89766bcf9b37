package storage

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"telegram-faceswap-bot/internal/domain"
	"telegram-faceswap-bot/internal/domain/ports/adapter"
)

var _ adapter.ReferencePool = (*ReferencePool)(nil)

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// ReferencePool is the fixed set of target images loaded at startup.
type ReferencePool struct {
	paths []string
	pick  func(n int) int
}

// LoadReferencePool scans dir for image files. An empty pool is a configuration
// error and must stop the process before it accepts traffic.
func LoadReferencePool(dir string) (*ReferencePool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read reference dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, ok := imageExts[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return NewReferencePool(paths)
}

func NewReferencePool(paths []string) (*ReferencePool, error) {
	if len(paths) == 0 {
		return nil, domain.ErrEmptyReferencePool
	}
	cp := append([]string(nil), paths...)
	sort.Strings(cp)
	return &ReferencePool{paths: cp, pick: rand.Intn}, nil
}

// Pick returns a uniformly random reference image.
func (p *ReferencePool) Pick() string {
	return p.paths[p.pick(len(p.paths))]
}

func (p *ReferencePool) Len() int { return len(p.paths) }
