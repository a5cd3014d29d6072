package taskrun

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-errors"
)

// CopyFiles copies every source into every destination directory. A
// destination that is not an existing directory is reported and skipped,
// the remaining pairs are still copied.
func (s *Shell) CopyFiles(sources, destinations []string) error {
	for _, src := range sources {
		for _, dest := range destinations {
			absSrc, err := filepath.Abs(src)
			if err != nil {
				return copyError(err, "failed to resolve source", src, dest)
			}
			absDest, err := filepath.Abs(dest)
			if err != nil {
				return copyError(err, "failed to resolve destination", src, dest)
			}

			s.Emitf("cp %s -> %s", absSrc, absDest)

			if !isDir(absDest) {
				s.Emit("Directory not found", absDest)
				continue
			}

			if err := copyFile(absSrc, filepath.Join(absDest, filepath.Base(absSrc))); err != nil {
				return err
			}
		}
	}
	return nil
}

// FileExists reports whether path names an existing file or directory.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// copyFile refuses to copy a file onto itself, opening dst would truncate it.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return copyError(err, "failed to open source", src, dst)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return copyError(err, "failed to stat source", src, dst)
	}

	if existing, err := os.Stat(dst); err == nil && os.SameFile(info, existing) {
		return errors.New("source and destination are the same file", errors.CategoryBadInput).
			WithTextCode("COPY_SAME_FILE").
			WithMetadata(map[string]any{
				"source":      src,
				"destination": dst,
			})
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return copyError(err, "failed to create destination", src, dst)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return copyError(err, "failed to copy", src, dst)
	}

	if err := out.Close(); err != nil {
		return copyError(err, "failed to close destination", src, dst)
	}
	return nil
}

func copyError(err error, message, src, dst string) error {
	return errors.Wrap(err, errors.CategoryInternal, message).
		WithTextCode("COPY_FAILED").
		WithMetadata(map[string]any{
			"source":      src,
			"destination": dst,
		})
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
