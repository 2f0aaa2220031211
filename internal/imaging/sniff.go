package imaging

import (
	"bytes"
	"encoding/binary"
	"net/http"
	"strings"
)

const sniffLen = 32

// Sniff reports the image media type of content from its leading bytes.
// The second result is false when the content is not a recognized image.
func Sniff(content []byte) (string, bool) {
	head := content
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if mediaType, ok := sniffMagic(head, len(content)); ok {
		return mediaType, true
	}
	detected := http.DetectContentType(content)
	// BMP and TIFF signatures were already checked strictly above.
	if detected == "image/bmp" || detected == "image/tiff" {
		return "", false
	}
	if strings.HasPrefix(detected, "image/") {
		return detected, true
	}
	return "", false
}

func sniffMagic(buf []byte, size int) (string, bool) {
	switch {
	case len(buf) < 4:
		return "", false
	case buf[0] == 0xFF && buf[1] == 0xD8 && buf[2] == 0xFF:
		return "image/jpeg", true
	case bytes.HasPrefix(buf, []byte("\x89PNG")):
		return "image/png", true
	case bytes.HasPrefix(buf, []byte("GIF8")):
		return "image/gif", true
	case len(buf) >= 12 && bytes.HasPrefix(buf, []byte("RIFF")) && string(buf[8:12]) == "WEBP":
		return "image/webp", true
	case buf[0] == 'B' && buf[1] == 'M':
		if isBMPHeader(buf) {
			return "image/bmp", true
		}
	case bytes.HasPrefix(buf, []byte("II*\x00")):
		if len(buf) >= 8 && validIFDOffset(binary.LittleEndian.Uint32(buf[4:8]), size) {
			return "image/tiff", true
		}
	case bytes.HasPrefix(buf, []byte("MM\x00*")):
		if len(buf) >= 8 && validIFDOffset(binary.BigEndian.Uint32(buf[4:8]), size) {
			return "image/tiff", true
		}
	case len(buf) >= 12 && string(buf[4:8]) == "ftyp":
		switch string(buf[8:12]) {
		case "heic", "heix", "mif1":
			return "image/heic", true
		case "avif", "avis":
			return "image/avif", true
		}
	case bytes.HasPrefix(buf, []byte{0xFF, 0x0A}) || bytes.HasPrefix(buf, []byte("\x00\x00\x00\x0cJXL ")):
		return "image/jxl", true
	}
	return "", false
}

// isBMPHeader checks the DIB header size that follows the 14-byte file
// header.
func isBMPHeader(buf []byte) bool {
	if len(buf) < 18 {
		return false
	}
	switch binary.LittleEndian.Uint32(buf[14:18]) {
	case 12, 40, 56, 108, 124:
		return true
	}
	return false
}

// validIFDOffset reports whether the first IFD and its entry count fit
// inside content of the given size.
func validIFDOffset(offset uint32, size int) bool {
	return offset >= 8 && uint64(offset)+2 <= uint64(size)
}

// IsImageMediaType reports whether a declared media type names an image.
func IsImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}
