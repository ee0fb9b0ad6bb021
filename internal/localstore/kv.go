// Package localstore はTodo一覧を1つのキーにJSON配列として保存するストレージアダプターを提供する。
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// KV は文字列のキーと値を保持するスロット型のバックエンド。
type KV interface {
	// GetItem はキーの値を返す。キーが存在しない場合はokがfalseになる。
	GetItem(key string) (value string, ok bool, err error)
	// SetItem はキーに値を書き込む。
	SetItem(key, value string) error
}

// MemoryKV はプロセス内のmapに値を保持するKV。
type MemoryKV struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryKV は空のMemoryKVを生成する。
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: make(map[string]string)}
}

// GetItem はKVを実装する。
func (m *MemoryKV) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

// SetItem はKVを実装する。
func (m *MemoryKV) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

// FileKV はキーと値の組をJSONオブジェクトとして1つのファイルに保存するKV。
// 書き込みは一時ファイルへの書き出しとrenameで置き換える。
type FileKV struct {
	mu   sync.Mutex
	path string
}

// NewFileKV はpathのファイルを使うFileKVを生成する。ファイルは最初の書き込みで作られる。
func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

// GetItem はKVを実装する。
func (f *FileKV) GetItem(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := items[key]
	return v, ok, nil
}

// SetItem はKVを実装する。
func (f *FileKV) SetItem(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return err
	}
	items[key] = value
	return f.write(items)
}

func (f *FileKV) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	items := make(map[string]string)
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.path, err)
	}
	return items, nil
}

func (f *FileKV) write(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store file: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".localstore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}

var (
	_ KV = (*MemoryKV)(nil)
	_ KV = (*FileKV)(nil)
)
