package hexdump

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseReaderPlainTokens(t *testing.T) {
	input := "FF\n00\nA5\n"
	dump, err := ParseReader(strings.NewReader(input), "test.hex", 24)
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}
	want := []byte{0xFF, 0x00, 0xA5}
	if len(dump.Data) != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(dump.Data))
	}
	for i, b := range want {
		if dump.Data[i] != b {
			t.Fatalf("byte %d: expected %#02x, got %#02x", i, b, dump.Data[i])
		}
	}
}

func TestParseReaderMultiByteTokens(t *testing.T) {
	dump, err := ParseReader(strings.NewReader("DEADBEEF\n"), "test.hex", 32)
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}
	if dump.Bits() != 32 {
		t.Fatalf("expected 32 bits, got %d", dump.Bits())
	}
}

func TestBitOrderMSBFirst(t *testing.T) {
	dump, err := ParseReader(strings.NewReader("80\n01\n"), "test.hex", 16)
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}
	if dump.Bit(0) != 1 {
		t.Fatalf("bit 0 of 0x80 should be 1")
	}
	for i := 1; i < 8; i++ {
		if dump.Bit(i) != 0 {
			t.Fatalf("bit %d of 0x80 should be 0", i)
		}
	}
	if dump.Bit(15) != 1 {
		t.Fatalf("bit 15 of 0x01 should be 1")
	}
}

func TestParseReaderIntelHexRecords(t *testing.T) {
	input := ":10000000000102030405060708090A0B0C0D0E0F78\n:00000001FF\n"
	dump, err := ParseReader(strings.NewReader(input), "test.hex", 128)
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}
	if len(dump.Data) != 16 {
		t.Fatalf("expected 16 data bytes, got %d", len(dump.Data))
	}
	for i := 0; i < 16; i++ {
		if dump.Data[i] != byte(i) {
			t.Fatalf("byte %d: expected %#02x, got %#02x", i, i, dump.Data[i])
		}
	}
}

func TestParseReaderRecordChecksumMismatch(t *testing.T) {
	input := ":10000000000102030405060708090A0B0C0D0E0F00\n"
	_, err := ParseReader(strings.NewReader(input), "test.hex", 128)
	var malformed *MalformedLineError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedLineError, got %v", err)
	}
}

func TestParseReaderMalformedLine(t *testing.T) {
	input := "FF\nZZ\nA5\n"
	_, err := ParseReader(strings.NewReader(input), "bad.hex", 24)
	var malformed *MalformedLineError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedLineError, got %v", err)
	}
	if malformed.Path != "bad.hex" || malformed.Line != 2 {
		t.Fatalf("expected bad.hex line 2, got %s line %d", malformed.Path, malformed.Line)
	}
}

func TestParseReaderLengthMismatch(t *testing.T) {
	_, err := ParseReader(strings.NewReader("FF\n00\n"), "short.hex", 24)
	var mismatch *LengthMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected LengthMismatchError, got %v", err)
	}
	if mismatch.GotBits != 16 || mismatch.WantBits != 24 {
		t.Fatalf("unexpected bit counts: got %d, want %d", mismatch.GotBits, mismatch.WantBits)
	}
}

func TestParseFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.hex")
	_, err := ParseFile(path, 8)
	var missing *MissingFileError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFileError, got %v", err)
	}
	if missing.Path != path {
		t.Fatalf("expected path %s, got %s", path, missing.Path)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.hex")
	if err := os.WriteFile(path, []byte("FF\n0F\n"), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	dump, err := ParseFile(path, 16)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if dump.Path != path {
		t.Fatalf("expected path %s, got %s", path, dump.Path)
	}
	if dump.Bits() != 16 {
		t.Fatalf("expected 16 bits, got %d", dump.Bits())
	}
}

func TestParseReaderSkipsBlankLines(t *testing.T) {
	dump, err := ParseReader(strings.NewReader("FF\n\n  \n00\n"), "test.hex", 16)
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}
	if len(dump.Data) != 2 {
		t.Fatalf("expected 2 bytes, got %d", len(dump.Data))
	}
}
