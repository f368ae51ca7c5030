package source

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// lookupEncoding resolves an IANA charset name. Empty names and UTF-8
// aliases resolve to nil, meaning the content is used as is.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}
	return enc, nil
}

// decode converts content in the named charset to UTF-8.
func decode(content []byte, name string) ([]byte, bool, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, false, err
	}
	if enc == nil {
		return content, false, nil
	}
	out, err := enc.NewDecoder().Bytes(content)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode %s content: %w", name, err)
	}
	return out, true, nil
}

// ValidEncoding reports whether name can be used as a document encoding.
func ValidEncoding(name string) error {
	_, err := lookupEncoding(name)
	return err
}
