package filekv

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/orrlabs/prefstore/lib/kv/engines/memkv"
)

type fileImpl struct {
	kv.Area
	path string
}

// Open creates a file-backed area at the given path. If the file exists its
// snapshot is loaded, otherwise the area starts empty and the file is created
// on the first Flush or Close.
//
// Thread-safety: Open itself is not thread-safe and should only be called
// once per path during initialization. The returned Area is safe for
// concurrent use.
func Open(path string, name kv.AreaName, quotaBytes int) (kv.Area, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	area := memkv.New(name, quotaBytes)

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := area.Load(f); err != nil {
			return nil, fmt.Errorf("loading snapshot %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fresh store
	default:
		return nil, err
	}

	return &fileImpl{Area: area, path: path}, nil
}

// Flush writes the current state back to the snapshot file. The snapshot is
// written to a temporary file first and renamed into place so a crash during
// Flush never truncates the previous snapshot.
func Flush(area kv.Area) error {
	f, ok := area.(*fileImpl)
	if !ok {
		return kv.NewError(kv.RetCInvalidOperation, "area is not file-backed")
	}
	return f.flush()
}

func (f *fileImpl) flush() error {
	// same directory as the target, a cross-filesystem rename is not atomic
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".prefkv-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := f.Area.Save(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, f.path)
}

// Save delegates to the in-memory snapshot writer.
func (f *fileImpl) Save(w io.Writer) error { return f.Area.Save(w) }

// GetInfo reports the in-memory state with the file engine identifier.
func (f *fileImpl) GetInfo() kv.AreaInfo {
	info := f.Area.GetInfo()
	info.Engine = kv.ImplFile
	info.Metadata = map[string]string{"path": f.path}
	return info
}

// Close flushes the snapshot file before releasing the in-memory state.
func (f *fileImpl) Close() error {
	if err := f.flush(); err != nil {
		return err
	}
	return f.Area.Close()
}
