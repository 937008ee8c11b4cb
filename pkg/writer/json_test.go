package writer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heaptrace/pkg/compression"
	"github.com/heaptrace/pkg/model"
)

type testData struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func sampleEvents() []model.ParsedEvent {
	return []model.ParsedEvent{
		{Action: model.Create{Heap: 0x10}, Stack: model.Stack{"ntdll.dll!RtlCreateHeap"}},
		{Action: model.Alloc{Heap: 0x10, Address: 0x2000, Size: 0x40}, Stack: model.Stack{"a!f", "a!g"}},
		{Action: model.Free{Heap: 0x10, Address: 0x2000}, Stack: model.Stack{"a!h"}},
	}
}

func TestJSONWriter_Write(t *testing.T) {
	data := testData{Name: "test", Value: 42}

	t.Run("compact output", func(t *testing.T) {
		w := NewJSONWriter[testData]()
		var buf bytes.Buffer
		if err := w.Write(data, &buf); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		expected := `{"name":"test","value":42}` + "\n"
		if buf.String() != expected {
			t.Errorf("got %q, want %q", buf.String(), expected)
		}
	})

	t.Run("pretty output", func(t *testing.T) {
		w := NewPrettyJSONWriter[testData]()
		var buf bytes.Buffer
		if err := w.Write(data, &buf); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  \"name\"") {
			t.Errorf("output is not indented: %q", buf.String())
		}
		var decoded testData
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode output: %v", err)
		}
		if decoded != data {
			t.Errorf("decoded data mismatch: got %+v, want %+v", decoded, data)
		}
	})
}

func TestJSONWriter_WriteToFile(t *testing.T) {
	data := testData{Name: "test", Value: 42}
	filePath := filepath.Join(t.TempDir(), "test.json")

	w := NewJSONWriter[testData]()
	if err := w.WriteToFile(data, filePath); err != nil {
		t.Fatalf("WriteToFile failed: %v", err)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	var decoded testData
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("Failed to decode file: %v", err)
	}
	if decoded != data {
		t.Errorf("decoded data mismatch: got %+v, want %+v", decoded, data)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"jsonl", FormatJSONL, false},
		{"ndjson", FormatJSONL, false},
		{"csv", FormatJSON, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEventWriter_FileName(t *testing.T) {
	tests := []struct {
		format Format
		ct     compression.Type
		want   string
	}{
		{FormatJSON, compression.TypeNone, "events.json"},
		{FormatJSONL, compression.TypeNone, "events.jsonl"},
		{FormatJSON, compression.TypeGzip, "events.json.gz"},
		{FormatJSONL, compression.TypeZstd, "events.jsonl.zst"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := NewEventWriter(tt.format, tt.ct).FileName("events"); got != tt.want {
				t.Errorf("FileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewEventWriter(FormatJSON, compression.TypeNone).Write(sampleEvents(), &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("got %d events, want 3", len(decoded))
	}
	if decoded[1]["kind"] != "alloc" || decoded[1]["size"] != float64(0x40) {
		t.Errorf("unexpected alloc event: %v", decoded[1])
	}
}

func TestEventWriter_JSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewEventWriter(FormatJSON, compression.TypeNone).Write(nil, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := buf.String(); got != "[]\n" {
		t.Errorf("got %q, want %q", got, "[]\n")
	}
}

func TestEventWriter_JSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := NewEventWriter(FormatJSONL, compression.TypeNone).Write(sampleEvents(), &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	scanner := bufio.NewScanner(&buf)
	var kinds []string
	for scanner.Scan() {
		var e struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line %q is not JSON: %v", scanner.Text(), err)
		}
		kinds = append(kinds, e.Kind)
	}

	want := []string{"create", "alloc", "free"}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
}

func TestEventWriter_EventWithoutAction(t *testing.T) {
	var buf bytes.Buffer
	err := NewEventWriter(FormatJSONL, compression.TypeNone).Write([]model.ParsedEvent{{}}, &buf)
	if err == nil {
		t.Fatal("expected error for event without action")
	}
}

func TestEventWriter_Compressed(t *testing.T) {
	for _, ct := range []compression.Type{compression.TypeGzip, compression.TypeZstd} {
		t.Run(ct.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewEventWriter(FormatJSON, ct).Write(sampleEvents(), &buf); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			if got := compression.DetectType(buf.Bytes()); got != ct {
				t.Fatalf("DetectType = %v, want %v", got, ct)
			}

			raw, err := compression.Decompress(buf.Bytes())
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			var decoded []map[string]any
			if err := json.Unmarshal(raw, &decoded); err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if len(decoded) != 3 {
				t.Errorf("got %d events, want 3", len(decoded))
			}
		})
	}
}

func TestEventWriter_WriteToFile(t *testing.T) {
	w := NewEventWriter(FormatJSONL, compression.TypeGzip)
	path := filepath.Join(t.TempDir(), w.FileName("events"))

	result, err := w.WriteToFile(sampleEvents(), path)
	if err != nil {
		t.Fatalf("WriteToFile failed: %v", err)
	}

	if result.Events != 3 {
		t.Errorf("Events = %d, want 3", result.Events)
	}
	if result.JSONSize <= 0 || result.CompressedSize <= 0 || result.CompressionPct <= 0 {
		t.Errorf("unexpected stats: %+v", result)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != result.CompressedSize {
		t.Errorf("CompressedSize = %d, file size = %d", result.CompressedSize, info.Size())
	}

	content, _ := os.ReadFile(path)
	raw, err := compression.Decompress(content)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if int64(len(raw)) != result.JSONSize {
		t.Errorf("JSONSize = %d, decompressed size = %d", result.JSONSize, len(raw))
	}
	if lines := strings.Count(string(raw), "\n"); lines != 3 {
		t.Errorf("got %d lines, want 3", lines)
	}
}

func TestEventWriter_WriteToFile_BadPath(t *testing.T) {
	w := NewEventWriter(FormatJSON, compression.TypeNone)
	if _, err := w.WriteToFile(sampleEvents(), filepath.Join(t.TempDir(), "missing", "events.json")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
