package vqa

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyImage = errors.New("empty image payload")

// DecodeBase64Image decodes a client-supplied image. Browsers send canvas
// captures as data URLs ("data:image/png;base64,...."), so anything up to the
// first comma is stripped before decoding.
func DecodeBase64Image(s string) ([]byte, error) {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}

	if s == "" {
		return nil, ErrEmptyImage
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	return data, nil
}
