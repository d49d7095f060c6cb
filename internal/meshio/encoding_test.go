package meshio

import (
	"strings"
	"testing"
)

func TestDetectTextEncodingASCII(t *testing.T) {
	result := DetectTextEncoding([]byte("v 0 0 0\nf 1 2 3\n"))
	if result.Encoding != "ascii" {
		t.Errorf("expected ascii, got %s", result.Encoding)
	}
	if result.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %f", result.Confidence)
	}
}

func TestDetectTextEncodingBOM(t *testing.T) {
	utf8BOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte("v 0 0 0\n")...)
	result := DetectTextEncoding(utf8BOM)
	if result.Encoding != "utf-8" || !result.HasBOM {
		t.Errorf("expected utf-8 with BOM, got %s (bom=%v)", result.Encoding, result.HasBOM)
	}

	normalized := NormalizeToUTF8(utf8BOM, result)
	if !strings.HasPrefix(normalized, "v 0 0 0") {
		t.Errorf("expected BOM stripped, got %q", normalized)
	}
}

func TestDetectTextEncodingUTF16(t *testing.T) {
	le := []byte{0xFF, 0xFE, 'v', 0, ' ', 0, '0', 0}
	result := DetectTextEncoding(le)
	if result.Encoding != "utf-16le" {
		t.Errorf("expected utf-16le, got %s", result.Encoding)
	}

	normalized := NormalizeToUTF8(le, result)
	if normalized != "v 0" {
		t.Errorf("expected 'v 0', got %q", normalized)
	}
}

func TestDetectTextEncodingUTF16WithoutBOM(t *testing.T) {
	le := []byte{'v', 0, ' ', 0, '0', 0, ' ', 0}
	result := DetectTextEncoding(le)
	if result.Encoding != "utf-16le" {
		t.Errorf("expected utf-16le, got %s", result.Encoding)
	}
}

func TestDetectTextEncodingLegacy(t *testing.T) {
	// 0x93 is a smart quote in windows-1252 but undefined in latin-1
	cp1252 := append([]byte("# exported by "), 0x93, 'M', 0x94, '\n')
	result := DetectTextEncoding(cp1252)
	if result.Encoding != "windows-1252" {
		t.Errorf("expected windows-1252, got %s", result.Encoding)
	}

	latin1 := append([]byte("# caf"), 0xE9, '\n')
	result = DetectTextEncoding(latin1)
	if result.Encoding != "iso-8859-1" {
		t.Errorf("expected iso-8859-1, got %s", result.Encoding)
	}

	normalized := NormalizeToUTF8(latin1, result)
	if !strings.Contains(normalized, "café") {
		t.Errorf("expected decoded accent, got %q", normalized)
	}
}

func TestNormalizeToUTF8Invalid(t *testing.T) {
	bad := []byte{'v', ' ', 0xFF, 0xFF, 0xFF}
	normalized := NormalizeToUTF8(bad, EncodingResult{Encoding: "utf-8"})
	if !strings.Contains(normalized, "�") {
		t.Error("expected replacement rune for invalid bytes")
	}
}
