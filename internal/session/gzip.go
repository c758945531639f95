package session

import (
	"bytes"
	"compress/gzip"
	"io"
)

// gunzip decompresses a gzip_packed payload's inner bytes.
func gunzip(packed []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(packed))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
