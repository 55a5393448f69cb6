package record

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/klineprompt/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderTable() *Table {
	t := NewTable("code", "stock_name", "trd_side", "order_type", "order_status", "qty", "price", "create_time")
	t.Append("HK.00700", "腾讯控股", "BUY", "NORMAL", "FILLED_ALL", 100.0, 385.2, "2024-03-05 10:31:02.123")
	t.Append("HK.00700", "腾讯控股", "SELL", "NORMAL", "CANCELLED_ALL", 200.0, 390.0, "2024-03-06 14:00:00")
	t.Append("HK.00700", "腾讯控股", "BUY", "NORMAL", "FILLED_PART", 300.0, 377.8, "2024-03-07")
	return t
}

// orderedKeys returns the keys of a JSON object in document order.
func orderedKeys(t *testing.T, line string) []string {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(line))
	tok, err := dec.Token()
	require.NoError(t, err)
	require.Equal(t, json.Delim('{'), tok)

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		require.NoError(t, dec.Decode(&skip))
	}
	return keys
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	text, err := Load(path)
	require.NoError(t, err)
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestPersist_ProjectionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders", "HK", "202403", "HK.00700_order.jsonl")
	src := orderTable()

	err := Persist(src, path, PersistOptions{KeepColumns: []string{"price", "code"}})
	require.NoError(t, err)

	lines := readLines(t, path)
	require.Len(t, lines, src.Len())
	for _, line := range lines {
		assert.Equal(t, []string{"price", "code"}, orderedKeys(t, line))
	}
}

func TestPersist_OrdersSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HK.00700_order.jsonl")

	err := Persist(orderTable(), path, PersistOptions{
		KeepColumns: []string{"create_time", "code", "trd_side", "price", "qty", "order_status"},
		DateColumns: []string{"create_time"},
	})
	require.NoError(t, err)

	lines := readLines(t, path)
	require.Len(t, lines, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "2024-03-05", first["create_time"])
	assert.Equal(t, "FILLED_ALL", first["order_status"])
	assert.Equal(t, []string{"create_time", "code", "trd_side", "price", "qty", "order_status"}, orderedKeys(t, lines[0]))

	var third map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &third))
	assert.Equal(t, "2024-03-07", third["create_time"])
}

func TestPersist_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	err := Persist(orderTable(), path, PersistOptions{KeepColumns: []string{"code", "dealt_qty"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSchema)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file should be written on schema error")
}

func TestPersist_MissingColumnKeepsPreviousFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0644))

	err := Persist(orderTable(), path, PersistOptions{KeepColumns: []string{"nope"}})
	require.Error(t, err)

	got, _ := os.ReadFile(path)
	assert.Equal(t, "previous\n", string(got))
}

func TestPersist_NonASCIILiteral(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.jsonl")
	tbl := NewTable("name", "note")
	tbl.Append("阿里巴巴-W", "<a&b>")

	require.NoError(t, Persist(tbl, path, PersistOptions{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"name\":\"阿里巴巴-W\",\"note\":\"<a&b>\"}\n", string(raw))
	assert.False(t, bytes.Contains(raw, []byte(`\u`)), "non-ASCII must not be escaped")
}

func TestPersist_EmptyTableStillWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "HK.09988_order.jsonl")
	empty := NewTable("create_time", "code", "trd_side", "price", "qty", "order_status")

	err := Persist(empty, path, PersistOptions{
		KeepColumns: []string{"create_time", "code", "trd_side", "price", "qty", "order_status"},
		DateColumns: []string{"create_time"},
	})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestPersist_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.jsonl")
	require.NoError(t, Persist(orderTable(), path, PersistOptions{}))

	one := NewTable("code")
	one.Append("HK.00700")
	require.NoError(t, Persist(one, path, PersistOptions{}))

	assert.Len(t, readLines(t, path), 1)
}

func TestPersist_DoesNotMutateSource(t *testing.T) {
	src := orderTable()
	path := filepath.Join(t.TempDir(), "out.jsonl")

	require.NoError(t, Persist(src, path, PersistOptions{DateColumns: []string{"create_time"}}))
	assert.Equal(t, "2024-03-05 10:31:02.123", src.Rows[0][7])
}

func TestPersist_UnparseableDate(t *testing.T) {
	tbl := NewTable("create_time")
	tbl.Append("yesterday")

	err := Persist(tbl, filepath.Join(t.TempDir(), "x.jsonl"), PersistOptions{DateColumns: []string{"create_time"}})
	assert.ErrorIs(t, err, core.ErrSchema)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{"2024-03-05", "2024-03-05"},
		{"2024-03-05 10:31:02", "2024-03-05"},
		{"2024-03-05 10:31:02.123456", "2024-03-05"},
		{"2024-03-05T23:59:59+08:00", "2024-03-05"},
		{time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC), "2024-12-31"},
		{nil, nil},
		{"", nil},
	}

	for _, tt := range tests {
		got, err := NormalizeDate(tt.in)
		require.NoError(t, err, "input %v", tt.in)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}

func TestNormalizeDate_Idempotent(t *testing.T) {
	once, err := NormalizeDate("2024-03-05 10:31:02")
	require.NoError(t, err)
	twice, err := NormalizeDate(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gt.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("\n  {\"a\":1}\n{\"a\":2}\n\n"), 0644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n{\"a\":2}", got)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLoad_Directory(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, core.ErrIO)
}

func TestLoad_InvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00}, 0644))

	_, err := Load(path)
	assert.ErrorIs(t, err, core.ErrIO)
}

func TestWriteText_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts", "deep", "HK.00700_prompt.txt")
	require.NoError(t, WriteText(path, "hello"))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}
