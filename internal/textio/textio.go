// Package textio reads text files with automatic character encoding
// detection, returning their content as UTF-8.
package textio

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"pdf-translator/internal/logger"
)

// Detected encodings.
const (
	EncodingUTF8    = "UTF-8"
	EncodingUTF8BOM = "UTF-8-BOM"
	EncodingGBK     = "GBK"
	EncodingUTF16LE = "UTF-16LE"
	EncodingUTF16BE = "UTF-16BE"
	EncodingUnknown = "UNKNOWN"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding detects the character encoding of raw file data.
func DetectEncoding(data []byte) string {
	// Check for BOM markers
	if len(data) >= 3 && bytes.Equal(data[:3], utf8BOM) {
		return EncodingUTF8BOM
	}
	if len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFF, 0xFE}) {
		return EncodingUTF16LE
	}
	if len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFE, 0xFF}) {
		return EncodingUTF16BE
	}

	if utf8.Valid(data) {
		return EncodingUTF8
	}

	if isValidGBK(data) {
		return EncodingGBK
	}

	return EncodingUnknown
}

// isValidGBK checks if data is valid GBK encoding.
func isValidGBK(data []byte) bool {
	decoder := simplifiedchinese.GBK.NewDecoder()
	decoded, err := decoder.Bytes(data)
	if err != nil {
		return false
	}
	return utf8.Valid(decoded)
}

// Decode converts raw file data from the given encoding to a UTF-8 string.
func Decode(data []byte, encoding string) (string, error) {
	var decoded []byte
	var err error

	switch encoding {
	case EncodingUTF8:
		decoded = data
	case EncodingUTF8BOM:
		if len(data) >= 3 {
			decoded = data[3:]
		} else {
			decoded = data
		}
	case EncodingGBK:
		decoder := simplifiedchinese.GBK.NewDecoder()
		decoded, err = decoder.Bytes(data)
		if err != nil {
			return "", fmt.Errorf("failed to decode GBK: %w", err)
		}
	case EncodingUTF16LE:
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		decoded, err = decoder.Bytes(data)
		if err != nil {
			return "", fmt.Errorf("failed to decode UTF-16LE: %w", err)
		}
	case EncodingUTF16BE:
		decoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		decoded, err = decoder.Bytes(data)
		if err != nil {
			return "", fmt.Errorf("failed to decode UTF-16BE: %w", err)
		}
	default:
		return "", fmt.Errorf("unsupported encoding: %s", encoding)
	}

	return string(decoded), nil
}

// ReadFile reads a text file and returns its content as a UTF-8 string,
// converting from the detected encoding when necessary.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	encoding := DetectEncoding(data)
	if encoding != EncodingUTF8 {
		logger.Debug("detected non-UTF-8 text file",
			logger.String("path", path),
			logger.String("encoding", encoding))
	}

	return Decode(data, encoding)
}
