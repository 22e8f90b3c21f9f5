package ir

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON.
// CRITICAL: This is the ONLY serialization used for digests and golden
// traces. Object keys are sorted, insignificant whitespace is removed and
// HTML characters are not escaped.
//
// Callers must keep integers that may exceed 2^53 out of v (encode them as
// strings); RFC 8785 numbers are IEEE 754 doubles.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canonical: marshal: %w", err)
	}
	out, err := jcs.Transform(bytes.TrimRight(buf.Bytes(), "\n"))
	if err != nil {
		return nil, fmt.Errorf("canonical: transform: %w", err)
	}
	return out, nil
}

// NormalizeText returns the NFC form of s. Digests never normalize; it is
// used to detect identities that render identically but differ in bytes.
func NormalizeText(s string) string {
	return norm.NFC.String(s)
}
