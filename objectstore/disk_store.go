package objectstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type (
	DiskStore struct {
		rootPath string
	}
)

func NewDiskStore(rootPath string) (*DiskStore, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("error in os.MkdirAll: %w", err)
	}
	return &DiskStore{rootPath: rootPath}, nil
}

// keyPath resolves a key below the root, rejecting keys that would escape it.
func (ds *DiskStore) keyPath(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("key '%s': %w", key, ErrInvalidKey)
	}
	clean := filepath.Clean(key)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key '%s' escapes the store root: %w", key, ErrInvalidKey)
	}
	return filepath.Join(ds.rootPath, clean), nil
}

func (ds *DiskStore) WriteBytes(_ context.Context, key string, data []byte) error {
	path, err := ds.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error in os.MkdirAll: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error in os.WriteFile: %w", err)
	}
	return nil
}

func (ds *DiskStore) WriteText(ctx context.Context, key, content string) error {
	return ds.WriteBytes(ctx, key, []byte(content))
}

func (ds *DiskStore) WriteJSON(ctx context.Context, key string, v any) error {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error in json.Marshal: %w", err)
	}
	return ds.WriteBytes(ctx, key, jsonBytes)
}

func (ds *DiskStore) ReadBytes(_ context.Context, key string) ([]byte, error) {
	path, err := ds.keyPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error in os.ReadFile: %w", err)
	}
	return data, nil
}

func (ds *DiskStore) ReadText(ctx context.Context, key string) (string, error) {
	data, err := ds.ReadBytes(ctx, key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (ds *DiskStore) ReadJSON(ctx context.Context, key string, out any) error {
	data, err := ds.ReadBytes(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error in json.Unmarshal: %w", err)
	}
	return nil
}

func (ds *DiskStore) Delete(_ context.Context, key string, missingOK bool) error {
	path, err := ds.keyPath(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && !(missingOK && os.IsNotExist(err)) {
		return fmt.Errorf("error in os.Remove: %w", err)
	}
	return nil
}

func (ds *DiskStore) Exists(_ context.Context, key string) (bool, error) {
	path, err := ds.keyPath(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error in os.Stat: %w", err)
	}
	return true, nil
}

func (ds *DiskStore) List(_ context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	err := filepath.WalkDir(ds.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(ds.rootPath, path)
		if err != nil {
			return fmt.Errorf("error in filepath.Rel: %w", err)
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error in filepath.WalkDir: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (ds *DiskStore) Shutdown(_ context.Context) error {
	return nil
}
