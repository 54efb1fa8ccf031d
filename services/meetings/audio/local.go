package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xilidan/meetings/services/meetings/entity"
)

// Local keeps recordings as plain files under one directory.
type Local struct {
	dir string
}

func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

func (l *Local) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name != filepath.Base(name) {
		return "", entity.NewValidationError("invalid audio object name %q", name)
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", entity.NewStorageError("create audio directory", err)
	}

	ref := filepath.Join(l.dir, name)
	f, err := os.OpenFile(ref, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", entity.NewStorageError("create audio file", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(ref)
		return "", entity.NewStorageError("write audio file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(ref)
		return "", entity.NewStorageError("close audio file", err)
	}
	return ref, nil
}

func (l *Local) Load(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ref)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, entity.NewContentMissing(ref, err)
	}
	if err != nil {
		return nil, entity.NewStorageError(fmt.Sprintf("read audio %s", ref), err)
	}
	return data, nil
}
