package site

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	siteerrors "github.com/conneroisu/bookshelf/internal/errors"
)

// copyResult counts what a passthrough copy did.
type copyResult struct {
	copied  int
	skipped int
}

// destination maps a project-relative passthrough path into the output
// directory, dropping the input directory prefix so src/style.css lands at
// dist/style.css.
func destination(rel, input, output string) string {
	rel = filepath.ToSlash(filepath.Clean(rel))
	input = filepath.ToSlash(filepath.Clean(input))
	if input != "." {
		rel = strings.TrimPrefix(rel, input+"/")
	}
	return filepath.Join(output, filepath.FromSlash(rel))
}

// copyTree copies src, a file or a directory, to dst. Files whose content
// already matches are left alone.
func (b *Builder) copyTree(ctx context.Context, src, dst string) (copyResult, error) {
	var res copyResult

	info, err := os.Stat(src)
	if err != nil {
		return res, err
	}
	if !info.IsDir() {
		copied, err := b.copyFile(src, dst)
		if err != nil {
			return res, err
		}
		res.add(copied)
		return res, nil
	}

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		copied, err := b.copyFile(path, filepath.Join(dst, rel))
		if err != nil {
			return err
		}
		res.add(copied)
		return nil
	})
	return res, err
}

func (r *copyResult) add(copied bool) {
	if copied {
		r.copied++
	} else {
		r.skipped++
	}
}

// copyFile reports whether it wrote dst.
func (b *Builder) copyFile(src, dst string) (bool, error) {
	same, err := sameContent(src, dst)
	if err != nil {
		return false, siteerrors.NewIOError(siteerrors.ErrCodeCopy, "cannot compare files", err).WithLocation(src, 0)
	}
	if same {
		return false, b.ensureGzip(dst)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return false, siteerrors.NewIOError(siteerrors.ErrCodeCopy, "cannot read file", err).WithLocation(src, 0)
	}
	if err := writeFile(dst, data, b.cfg.Build.Precompress); err != nil {
		return false, siteerrors.NewIOError(siteerrors.ErrCodeWrite, "cannot write file", err).WithLocation(dst, 0)
	}
	return true, nil
}

// ensureGzip brings the .gz sibling of an unchanged file in line with
// build.precompress: written when missing, removed when disabled.
func (b *Builder) ensureGzip(dst string) error {
	if !b.cfg.Build.Precompress {
		if err := removeGzip(dst); err != nil {
			return siteerrors.NewIOError(siteerrors.ErrCodeWrite, "cannot remove file", err).WithLocation(dst+".gz", 0)
		}
		return nil
	}
	if !compressible[filepath.Ext(dst)] {
		return nil
	}
	if _, err := os.Stat(dst + ".gz"); err == nil {
		return nil
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		return siteerrors.NewIOError(siteerrors.ErrCodeCopy, "cannot read file", err).WithLocation(dst, 0)
	}
	if err := writeGzip(dst+".gz", data); err != nil {
		return siteerrors.NewIOError(siteerrors.ErrCodeWrite, "cannot write file", err).WithLocation(dst+".gz", 0)
	}
	return nil
}
