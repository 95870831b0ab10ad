package domain

import (
	"bytes"
	"io"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"golang.org/x/text/encoding/unicode"
)

// FormatFromFilename returns FormatBzip2 for a ".bz2" suffix and FormatPlain
// for anything else.
func FormatFromFilename(name string) Format {
	if strings.HasSuffix(strings.ToLower(name), ".bz2") {
		return FormatBzip2
	}
	return FormatPlain
}

// Decompress turns a blob into text. Plain blobs never fail; invalid UTF-8
// is replaced with U+FFFD. A bzip2 blob that is empty, truncated, or corrupt
// returns a *DecodeError matching ErrCorrupt. Bytes after the last complete
// bzip2 stream that do not start another stream are ignored.
func Decompress(blob RawBlob) (string, error) {
	switch blob.Format {
	case FormatPlain, "":
		return decodeUTF8(blob.Data), nil
	case FormatBzip2:
		if len(blob.Data) == 0 {
			return "", &DecodeError{Kind: DecodeCorrupt, Format: blob.Format, Err: io.ErrUnexpectedEOF}
		}
		out, err := decodeBzip2(blob.Data)
		if err != nil {
			return "", &DecodeError{Kind: DecodeCorrupt, Format: blob.Format, Err: err}
		}
		return decodeUTF8(out), nil
	default:
		return "", &DecodeError{Kind: DecodeUnsupported, Format: blob.Format}
	}
}

// maxHeaderBytes bounds how far the reader can advance past a stream boundary
// before rejecting the next stream header or its first block magic.
const maxHeaderBytes = 16

// decodeBzip2 decodes every concatenated stream in data. When the reader
// fails after emitting output, the failure may be trailing garbage after the
// final stream footer. The prefix ending just before the rejected header is
// decoded again and accepted only if it is a sequence of complete streams.
func decodeBzip2(data []byte) ([]byte, error) {
	r, err := bzip2.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err == nil {
		return out, nil
	}
	if r.OutputOffset == 0 {
		return nil, err
	}
	for k := r.InputOffset; k > 0 && k >= r.InputOffset-maxHeaderBytes; k-- {
		if k >= int64(len(data)) {
			continue
		}
		if prefix, perr := decodeBzip2Strict(data[:k]); perr == nil && bytes.Equal(prefix, out) {
			return prefix, nil
		}
	}
	return nil, err
}

func decodeBzip2Strict(data []byte) ([]byte, error) {
	r, err := bzip2.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func decodeUTF8(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		// The replacing decoder does not fail; keep the bytes valid regardless.
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}
