// Package hexdump parses raw SRAM power-cycle dump files.
//
// Two line formats are accepted and may be mixed within one file: a plain
// hexadecimal token per line (one or more bytes), and Intel HEX data records
// as produced by debug-probe memory exports. Bytes are accumulated in file
// order; bit 0 of the resulting dump is the most significant bit of the
// first byte.
package hexdump

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

const intelHexOverhead = 5 // length(1) + address(2) + type(1) + checksum(1)

// recordTypeData marks Intel HEX records that carry memory content; all
// other record types (EOF, segment markers) are skipped.
const recordTypeData = 0x00

// Dump is one parsed power-cycle capture.
type Dump struct {
	Path string
	Data []byte
}

// Bits reports the number of bits in the dump.
func (d Dump) Bits() int {
	return len(d.Data) * 8
}

// Bit returns bit i, most significant bit of each byte first.
func (d Dump) Bit(i int) byte {
	return (d.Data[i/8] >> (7 - uint(i)%8)) & 1
}

// ParseFile reads and parses one dump file. When wantBits is positive, the
// parsed dump must hold exactly that many bits.
func ParseFile(path string, wantBits int) (Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Dump{}, &MissingFileError{Path: path}
		}
		return Dump{}, fmt.Errorf("failed to open dump: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for read-only dump.
			_ = cerr
		}
	}()
	return ParseReader(f, path, wantBits)
}

// ParseReader parses dump content from any io.Reader. The path is used only
// for error reporting.
func ParseReader(r io.Reader, path string, wantBits int) (Dump, error) {
	scanner := bufio.NewScanner(r)
	var data []byte
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var (
			payload []byte
			err     error
		)
		if line[0] == ':' {
			payload, err = parseRecord(line)
		} else {
			payload, err = hex.DecodeString(line)
		}
		if err != nil {
			return Dump{}, &MalformedLineError{Path: path, Line: lineNum, Text: line, Err: err}
		}
		data = append(data, payload...)
	}
	if err := scanner.Err(); err != nil {
		return Dump{}, fmt.Errorf("failed to read dump: %w", err)
	}
	if wantBits > 0 && len(data)*8 != wantBits {
		return Dump{}, &LengthMismatchError{Path: path, GotBits: len(data) * 8, WantBits: wantBits}
	}
	return Dump{Path: path, Data: data}, nil
}

// parseRecord decodes one Intel HEX record and returns its data payload.
// Records that carry no memory content (EOF, segment markers) yield nil.
func parseRecord(line string) ([]byte, error) {
	raw, err := hex.DecodeString(line[1:])
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	if len(raw) < intelHexOverhead {
		return nil, fmt.Errorf("record too short: %d bytes", len(raw))
	}
	dataLen := int(raw[0])
	if len(raw) != intelHexOverhead+dataLen {
		return nil, fmt.Errorf("record length mismatch: got %d data bytes, header declares %d",
			len(raw)-intelHexOverhead, dataLen)
	}
	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0 {
		return nil, fmt.Errorf("record checksum mismatch")
	}
	if raw[3] != recordTypeData {
		return nil, nil
	}
	return raw[4 : 4+dataLen], nil
}
