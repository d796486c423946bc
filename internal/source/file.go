package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

func openFile(path string, noMmap bool) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("source: stat %s: %w", path, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("source: %s is a directory", path)
	}

	if !noMmap && st.Size() > 0 {
		if data, unmap, err := mapFile(f, int(st.Size())); err == nil {
			return &Data{Bytes: data, Mapped: true, release: func() error { return unmap(data) }}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}
	return &Data{Bytes: data}, nil
}
