package source

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const payload = "actual,predicted\n1,1.1\n2,1.8\n"

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return p
}

func TestReadFilePlain(t *testing.T) {
	got, err := ReadFile(writeFile(t, "rows.csv", []byte(payload)))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != payload {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestReadFileGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(payload))
	zw.Close()

	got, err := ReadFile(writeFile(t, "rows.csv.gz", buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != payload {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestReadFileZstd(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	compressed := enc.EncodeAll([]byte(payload), nil)
	enc.Close()

	// No suffix: detection relies on the frame magic.
	got, err := ReadFile(writeFile(t, "rows.bin", compressed))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != payload {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestReadFileShort(t *testing.T) {
	got, err := ReadFile(writeFile(t, "tiny.txt", []byte("a")))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "a" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestExt(t *testing.T) {
	cases := map[string]string{
		"lcz.json":          ".json",
		"lcz.JSON.zst":      ".json",
		"style.qml.gz":      ".qml",
		"/tmp/colormap.txt": ".txt",
		"noext":             "",
	}
	for in, want := range cases {
		if got := Ext(in); got != want {
			t.Errorf("Ext(%q) = %q, want %q", in, got, want)
		}
	}
}
