package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/newthinker/klineprompt/internal/core"
)

// PersistOptions control projection and date normalization.
type PersistOptions struct {
	// KeepColumns, when set, restricts output to these columns in this order.
	KeepColumns []string
	// DateColumns are reformatted to YYYY-MM-DD when present.
	DateColumns []string
}

// Persist writes the table to path as one JSON object per line, replacing
// any existing file. Nothing is written if projection or normalization fails.
func Persist(t *Table, path string, opts PersistOptions) error {
	if t == nil {
		t = &Table{}
	}

	data := t.clone()
	if len(opts.KeepColumns) > 0 {
		projected, err := data.Project(opts.KeepColumns)
		if err != nil {
			return err
		}
		data = projected
	}

	for _, col := range opts.DateColumns {
		j := data.Index(col)
		if j < 0 {
			continue
		}
		for _, row := range data.Rows {
			v, err := NormalizeDate(row[j])
			if err != nil {
				return fmt.Errorf("column %s: %w", col, err)
			}
			row[j] = v
		}
	}

	body, err := Encode(data)
	if err != nil {
		return err
	}
	return WriteFile(path, body)
}

// Encode renders rows as JSON lines with keys in column order. Non-ASCII and
// HTML characters are emitted literally.
func Encode(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	keys := make([][]byte, len(t.Columns))
	for i, c := range t.Columns {
		k, err := marshal(c)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}

	for _, row := range t.Rows {
		buf.WriteByte('{')
		for i, v := range row {
			if i > 0 {
				buf.WriteByte(',')
			}
			val, err := marshal(v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", t.Columns[i], err)
			}
			buf.Write(keys[i])
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteString("}\n")
	}
	return buf.Bytes(), nil
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, core.WrapError(core.ErrSchema, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Load reads a whole UTF-8 file and trims surrounding whitespace.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", core.WrapError(core.ErrNotFound, fmt.Errorf("文件不存在: %s", path))
		}
		return "", core.WrapError(core.ErrIO, fmt.Errorf("读取文件时出错: %w", err))
	}
	if !utf8.Valid(data) {
		return "", core.WrapError(core.ErrIO, fmt.Errorf("读取文件时出错: %s is not valid UTF-8", path))
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteText writes content to path, creating parent directories.
func WriteText(path, content string) error {
	return WriteFile(path, []byte(content))
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return core.WrapError(core.ErrIO, fmt.Errorf("写入文件时出错: %w", err))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return core.WrapError(core.ErrIO, fmt.Errorf("写入文件时出错: %w", err))
	}
	return nil
}
