// Package uploads resolves uploaded video files by name inside one
// directory.
package uploads

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/capsync/internal/ports"
	"github.com/forPelevin/capsync/internal/types"
)

type FileSupplier struct {
	dir string
}

var _ ports.VideoSupplier = (*FileSupplier)(nil)

func New(dir string) *FileSupplier {
	return &FileSupplier{dir: dir}
}

// Path maps a bare filename to its location. Names with directory parts,
// traversal, or absolute paths are rejected as invalid input.
func (s *FileSupplier) Path(name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" || clean == "." || clean != name || !filepath.IsLocal(clean) || filepath.Base(clean) != clean {
		return "", types.InvalidInputError("resolve video", fmt.Sprintf("rejected filename %q", name), errors.New("invalid filename"))
	}
	return filepath.Join(s.dir, clean), nil
}

func (s *FileSupplier) Exists(name string) bool {
	p, err := s.Path(name)
	if err != nil {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}
