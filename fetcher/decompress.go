package fetcher

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/andybalholm/brotli"
)

// DecompressBody detects gzip or Brotli compression on a response body and
// returns the decompressed bytes. Some CDNs send compressed bodies without a
// matching Content-Encoding header, so magic bytes are checked first.
//
// Returns the (possibly unchanged) body and whether decompression ran.
func DecompressBody(body []byte, contentEncoding string) ([]byte, bool, error) {
	if len(body) == 0 {
		return body, false, nil
	}

	// gzip magic bytes
	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, false, err
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, false, err
		}
		return decompressed, true, nil
	}

	// Brotli has no magic bytes; trust the header, then fall back to a
	// first-byte heuristic and treat failure as uncompressed content.
	if contentEncoding == "br" || (len(body) >= 1 && body[0] >= 0x80 && body[0] <= 0x8f) {
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			if contentEncoding == "br" {
				return nil, false, err
			}
			return body, false, nil
		}
		return decompressed, true, nil
	}

	return body, false, nil
}
