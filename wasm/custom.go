package wasm

import (
	"bytes"

	"github.com/wippyai/wasm2map/wasm/internal/binary"
)

// EncodeCustomSection returns the full on-disk encoding of a custom
// section: the id byte, the payload size, the length-prefixed name and the
// contents.
func EncodeCustomSection(name string, contents []byte) []byte {
	payload := binary.NewWriter()
	payload.WriteName(name)
	payload.WriteBytes(contents)

	w := binary.NewWriter()
	w.WriteSection(SectionCustom, payload.Bytes())
	return w.Bytes()
}

// EncodeSourceMappingURL returns a sourceMappingURL custom section whose
// contents are the length-prefixed url.
func EncodeSourceMappingURL(url string) []byte {
	contents := binary.NewWriter()
	contents.WriteName(url)
	return EncodeCustomSection(SourceMappingURLSectionName, contents.Bytes())
}

// DecodeSourceMappingURL reads the url from sourceMappingURL section
// contents.
func DecodeSourceMappingURL(contents []byte) (string, error) {
	r := binary.NewReader(bytes.NewReader(contents))
	url, err := r.ReadName()
	if err != nil {
		return "", r.WrapError(SourceMappingURLSectionName, err)
	}
	return url, nil
}
