package meshio

import (
	"bytes"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// EncodingResult describes what a text mesh file appears to be encoded
// in. OBJ exporters on Windows still emit BOMs, UTF-16, or legacy
// codepages in comments and material names.
type EncodingResult struct {
	Encoding   string
	Confidence float64
	HasBOM     bool
}

func DetectTextEncoding(data []byte) EncodingResult {
	if len(data) == 0 {
		return EncodingResult{Encoding: "utf-8", Confidence: 1.0}
	}

	if result := detectBOM(data); result.Confidence == 1.0 {
		return result
	}

	// NUL bytes never appear in single-byte text encodings
	if bytes.IndexByte(data, 0) >= 0 {
		if score := scoreUTF16(data, 1); score > 0 {
			return EncodingResult{Encoding: "utf-16le", Confidence: score}
		}
		if score := scoreUTF16(data, 0); score > 0 {
			return EncodingResult{Encoding: "utf-16be", Confidence: score}
		}
		return EncodingResult{Encoding: "utf-8", Confidence: 0.3}
	}

	if isASCII(data) {
		return EncodingResult{Encoding: "ascii", Confidence: 1.0}
	}

	if utf8.Valid(data) {
		return EncodingResult{Encoding: "utf-8", Confidence: 0.95}
	}

	// bytes in 0x80-0x9F rule out iso-8859-1; windows-1252 defines them
	for _, b := range data {
		if b >= 0x80 && b <= 0x9F {
			return EncodingResult{Encoding: "windows-1252", Confidence: 0.7}
		}
	}
	return EncodingResult{Encoding: "iso-8859-1", Confidence: 0.6}
}

func detectBOM(data []byte) EncodingResult {
	if len(data) >= 3 && bytes.Equal(data[:3], []byte{0xEF, 0xBB, 0xBF}) {
		return EncodingResult{Encoding: "utf-8", Confidence: 1.0, HasBOM: true}
	}
	if len(data) >= 2 {
		if bytes.Equal(data[:2], []byte{0xFF, 0xFE}) {
			return EncodingResult{Encoding: "utf-16le", Confidence: 1.0, HasBOM: true}
		}
		if bytes.Equal(data[:2], []byte{0xFE, 0xFF}) {
			return EncodingResult{Encoding: "utf-16be", Confidence: 1.0, HasBOM: true}
		}
	}
	return EncodingResult{}
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b > 127 {
			return false
		}
	}
	return true
}

// scoreUTF16 checks the null-byte ratio at either the odd (LE) or even
// (BE) byte positions.
func scoreUTF16(data []byte, offset int) float64 {
	if len(data) < 2 || len(data)%2 != 0 {
		return 0
	}
	nulls := 0
	for i := offset; i < len(data); i += 2 {
		if data[i] == 0 {
			nulls++
		}
	}
	if float64(nulls)/float64(len(data)/2) > 0.75 {
		return 0.8
	}
	return 0
}

// NormalizeToUTF8 converts the raw bytes to a UTF-8 string, replacing
// anything undecodable with the replacement rune.
func NormalizeToUTF8(data []byte, detected EncodingResult) string {
	data = stripBOM(data, detected)

	switch detected.Encoding {
	case "ascii":
		return string(data)
	case "utf-8":
		return string(bytes.ToValidUTF8(data, []byte("�")))
	case "utf-16le":
		return decodeWithFallback(data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
	case "utf-16be":
		return decodeWithFallback(data, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder())
	case "windows-1252":
		return decodeWithFallback(data, charmap.Windows1252.NewDecoder())
	case "iso-8859-1":
		return decodeWithFallback(data, charmap.ISO8859_1.NewDecoder())
	default:
		return string(bytes.ToValidUTF8(data, []byte("�")))
	}
}

func stripBOM(data []byte, detected EncodingResult) []byte {
	if !detected.HasBOM {
		return data
	}
	switch detected.Encoding {
	case "utf-8":
		return data[3:]
	case "utf-16le", "utf-16be":
		return data[2:]
	}
	return data
}

func decodeWithFallback(data []byte, decoder *encoding.Decoder) string {
	if len(data) == 0 {
		return ""
	}
	reader := transform.NewReader(bytes.NewReader(data), decoder)
	result, err := io.ReadAll(reader)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("�")))
	}
	return string(bytes.ToValidUTF8(result, []byte("�")))
}

// ReadTextFile loads path and normalizes its content to UTF-8.
func ReadTextFile(path string) (string, EncodingResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", EncodingResult{}, err
	}
	detected := DetectTextEncoding(data)
	return NormalizeToUTF8(data, detected), detected, nil
}
