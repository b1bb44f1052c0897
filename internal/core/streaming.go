package core

// streaming.go decodes source bytes on the fly.
//
// Inventory exports come from Excel, ERP tools and hand-edited files, so a
// source may start with a byte order mark, be saved as Windows-1252 or
// contain stray invalid UTF-8. The decoded stream is always valid UTF-8.

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Supported source encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16       = "utf-16"
	EncodingLatin1      = "latin1"
	EncodingWindows1252 = "windows-1252"
)

// sourceEncoding returns the decoder for name. The UTF-8 decoder strips a
// leading BOM and replaces ill-formed bytes with U+FFFD.
func sourceEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingUTF8, "utf8":
		return unicode.UTF8BOM, nil
	case EncodingUTF16, "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case EncodingLatin1, "iso-8859-1":
		return charmap.ISO8859_1, nil
	case EncodingWindows1252, "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// CountingReader tracks bytes read for progress reporting.
type CountingReader struct {
	reader io.Reader
	n      int64
}

func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.n += int64(n)
	return n, err
}

// BytesRead returns the number of raw bytes consumed so far.
func (r *CountingReader) BytesRead() int64 { return r.n }

// WrapForStreaming counts raw bytes and decodes them from the named
// encoding into UTF-8.
func WrapForStreaming(r io.Reader, enc string) (io.Reader, *CountingReader, error) {
	e, err := sourceEncoding(enc)
	if err != nil {
		return nil, nil, err
	}
	counter := &CountingReader{reader: r}
	return transform.NewReader(counter, e.NewDecoder()), counter, nil
}
