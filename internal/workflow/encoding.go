package workflow

import (
	"bytes"
	"unicode/utf8"

	"sales-forecast-client/internal/apperror"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// EncodeForUpload returns CSV content in the Shift-JIS encoding the backend
// decodes. Content that is not valid UTF-8 is assumed to be Shift-JIS
// already and passes through untouched.
func EncodeForUpload(content []byte) ([]byte, error) {
	hadBOM := bytes.HasPrefix(content, utf8BOM)
	content = bytes.TrimPrefix(content, utf8BOM)

	if !hadBOM && !utf8.Valid(content) {
		return content, nil
	}
	if isASCII(content) {
		return content, nil
	}

	out, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), content)
	if err != nil {
		return nil, apperror.Validation("the file contains characters that cannot be converted to Shift-JIS")
	}
	return out, nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
