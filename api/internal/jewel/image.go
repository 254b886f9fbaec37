package jewel

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// MaxImageSize is the largest upload accepted for analysis.
const MaxImageSize = 20 * 1024 * 1024

// AcceptedTypes is what the file picker offers; validation itself only checks the image/ prefix.
var AcceptedTypes = []string{"image/jpeg", "image/png", "image/jpg", "image/webp"}

// ImageData is an in-memory image ready to be embedded in a page or sent to a model.
type ImageData struct {
	MIME string
	Data []byte
}

// NewImageData wraps raw bytes, taking the MIME type from the hint or sniffing the bytes.
func NewImageData(data []byte, mimeHint string) ImageData {
	return ImageData{MIME: PickMIME(mimeHint, data), Data: data}
}

func (img ImageData) IsZero() bool { return len(img.Data) == 0 }

func (img ImageData) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// DataURL returns data:<mime>;base64,<payload>.
func (img ImageData) DataURL() string {
	if img.IsZero() {
		return ""
	}
	return MakeDataURL(img.MIME, img.Base64())
}

func MakeDataURL(mime, b64 string) string {
	return "data:" + mime + ";base64," + b64
}

// ParseDataURL decodes a data URI or bare base64 payload. MIME from the prefix wins over sniffing.
func ParseDataURL(s string) (ImageData, error) {
	s = strings.TrimSpace(s)
	var hint string
	if strings.HasPrefix(strings.ToLower(s), "data:") {
		idx := strings.IndexByte(s, ',')
		if idx < 0 {
			return ImageData{}, errors.New("data url without payload")
		}
		meta := s[len("data:"):idx]
		if semi := strings.IndexByte(meta, ';'); semi >= 0 {
			hint = meta[:semi]
		} else {
			hint = meta
		}
		s = s[idx+1:]
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		b2, err2 := base64.URLEncoding.DecodeString(s)
		if err2 != nil {
			return ImageData{}, err
		}
		b = b2
	}
	if len(b) == 0 {
		return ImageData{}, errors.New("empty image payload")
	}
	return NewImageData(b, hint), nil
}

// PickMIME prefers an explicit type (parameters stripped), then content sniffing.
func PickMIME(explicit string, data []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" {
		if semi := strings.IndexByte(exp, ';'); semi >= 0 {
			exp = strings.TrimSpace(exp[:semi])
		}
		if exp != "" && exp != "application/octet-stream" {
			return strings.ToLower(exp)
		}
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return "image/jpeg"
}

// IsImageType reports whether a declared MIME type is in the image category.
func IsImageType(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}
