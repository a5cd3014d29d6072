package taskrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var _ SourceProvider = &FileSystemSourceProvider{}

// DefaultScriptsDir is the directory the taskrun binary scans for script tasks.
const DefaultScriptsDir = "tasks.d"

// FileSystemSourceProvider lists task scripts below a root directory.
type FileSystemSourceProvider struct {
	rootDir        string
	fs             fs.FS
	extensions     []string
	maxFileSize    int64
	ignoreMatchers []func(string, fs.DirEntry) bool
}

func NewFileSystemSourceProvider(rootDir string, fss ...fs.FS) *FileSystemSourceProvider {
	var fsys fs.FS
	if len(fss) > 0 && fss[0] != nil {
		fsys = fss[0]
	} else {
		fsys = os.DirFS(rootDir)
	}
	return &FileSystemSourceProvider{
		rootDir:    rootDir,
		fs:         fsys,
		extensions: []string{".sh"},
	}
}

var ErrScriptTooLarge = errors.New("script exceeds maximum size limit")

func (p *FileSystemSourceProvider) WithMaxFileSize(limit int64) *FileSystemSourceProvider {
	p.maxFileSize = limit
	return p
}

// WithExtensions replaces the script extensions that are listed, ".sh" by default.
func (p *FileSystemSourceProvider) WithExtensions(exts ...string) *FileSystemSourceProvider {
	p.extensions = p.extensions[:0]
	for _, ext := range exts {
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		p.extensions = append(p.extensions, strings.ToLower(ext))
	}
	return p
}

// WithIgnoreGlobs skips files or directories matching any glob pattern (filepath.Match semantics).
// Patterns are matched against paths relative to rootDir, using "/" separators.
func (p *FileSystemSourceProvider) WithIgnoreGlobs(patterns ...string) *FileSystemSourceProvider {
	for _, pat := range patterns {
		if pat == "" {
			continue
		}
		p.ignoreMatchers = append(p.ignoreMatchers, func(path string, _ fs.DirEntry) bool {
			matched, _ := filepath.Match(pat, path)
			return matched
		})
	}
	return p
}

func (p *FileSystemSourceProvider) GetScript(path string) ([]byte, error) {
	rel := filepath.ToSlash(filepath.Clean(path))
	if p.rootDir != "" {
		if r, err := filepath.Rel(p.rootDir, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = filepath.ToSlash(r)
		}
	}
	return p.readFile(rel)
}

// ListScripts walks the root directory in lexical order and returns every
// file with a script extension.
func (p *FileSystemSourceProvider) ListScripts(ctx context.Context) ([]ScriptInfo, error) {
	var scripts []ScriptInfo

	err := fs.WalkDir(p.fs, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if p.shouldIgnore(path, d) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() || !p.hasScriptExtension(path) {
			return nil
		}

		content, err := p.readFile(path)
		if err != nil {
			return err
		}

		fullPath := path
		if p.rootDir != "" {
			fullPath = filepath.Join(p.rootDir, path)
		}
		scripts = append(scripts, ScriptInfo{
			ID:      DefaultTaskIDProvider(path),
			Path:    fullPath,
			Content: content,
		})

		return nil
	})

	if err != nil {
		return nil, err
	}

	return scripts, nil
}

func (p *FileSystemSourceProvider) readFile(path string) ([]byte, error) {
	file, err := p.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if p.maxFileSize > 0 {
		if info, err := file.Stat(); err == nil && info.Size() > p.maxFileSize {
			return nil, fmt.Errorf("%w: script %s has size %d bytes (limit %d)", ErrScriptTooLarge, path, info.Size(), p.maxFileSize)
		}
		reader = io.LimitReader(file, p.maxFileSize+1)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if p.maxFileSize > 0 && int64(buf.Len()) > p.maxFileSize {
		return nil, fmt.Errorf("%w: script %s exceeded limit %d bytes", ErrScriptTooLarge, path, p.maxFileSize)
	}

	return buf.Bytes(), nil
}

func (p *FileSystemSourceProvider) hasScriptExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range p.extensions {
		if ext == supported {
			return true
		}
	}
	return false
}

func (p *FileSystemSourceProvider) shouldIgnore(path string, d fs.DirEntry) bool {
	for _, matcher := range p.ignoreMatchers {
		if matcher != nil && matcher(path, d) {
			return true
		}
	}
	return false
}
