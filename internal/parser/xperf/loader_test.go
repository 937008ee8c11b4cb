package xperf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heaptrace/internal/parser"
	"github.com/heaptrace/internal/testutil"
	"github.com/heaptrace/pkg/compression"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "empty", input: nil, want: ""},
		{name: "ascii", input: []byte("EndHeader\n"), want: "EndHeader\n"},
		{name: "valid utf8", input: []byte("Stack, 1, 1, 1, 0x1, app!Grüße\n"), want: "Stack, 1, 1, 1, 0x1, app!Grüße\n"},
		{name: "single bad byte", input: []byte("a\xffb"), want: "a�b"},
		{name: "bad bytes each replaced", input: []byte("\xfe\xff"), want: "��"},
		{name: "truncated sequence replaced once", input: []byte("\xf0\x9f\x98a"), want: "�a"},
		{name: "truncated sequence at end", input: []byte("ab\xe2\x82"), want: "ab�"},
		{name: "lead byte then bad continuation", input: []byte("\xe2\x28\xa1"), want: "�(�"},
		{name: "surrogate half", input: []byte("\xed\xa0\x80"), want: "���"},
		{name: "overlong encoding", input: []byte("\xc0\xaf"), want: "��"},
		{name: "stray continuation bytes", input: []byte("\x80\x80x"), want: "��x"},
		{name: "literal replacement char kept", input: []byte("\xef\xbf\xbd\xff"), want: "��"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Compressed(t *testing.T) {
	raw := []byte("HeapCreate, 1\n\xff\n")

	for _, ct := range []compression.Type{compression.TypeGzip, compression.TypeZstd} {
		t.Run(ct.String(), func(t *testing.T) {
			data, err := compression.Compress(ct, raw)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, "HeapCreate, 1\n�\n", got)
		})
	}
}

func TestLoad(t *testing.T) {
	path := testutil.TempFileWithName(t, "trace.txt", []byte("BeginHeader\r\nEndHeader\r\n"))

	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "BeginHeader\r\nEndHeader\r\n", text)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir() + "/missing.txt")
	require.ErrorIs(t, err, parser.ErrIO)
}
