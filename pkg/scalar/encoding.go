package scalar

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// StringEncoding names a byte<->text codec a String primitive may declare,
// defaulting to UTF-8 when a schema is silent on the point — the lineage
// this engine draws from treats the encoding as implicit; here it is a
// first-class, named parameter.
type StringEncoding string

const (
	UTF8      StringEncoding = "UTF-8"
	UTF16BE   StringEncoding = "UTF-16BE"
	UTF16LE   StringEncoding = "UTF-16LE"
	ShiftJIS  StringEncoding = "SHIFT-JIS"
	CP437     StringEncoding = "IBM437"
	ISO8859_1 StringEncoding = "ISO-8859-1"
)

// Codec resolves a StringEncoding to its golang.org/x/text/encoding.Encoding,
// or reports an error for an unrecognized name.
func (e StringEncoding) Codec() (encoding.Encoding, error) {
	switch e {
	case "", UTF8:
		return encoding.Nop, nil
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case ShiftJIS:
		return japanese.ShiftJIS, nil
	case CP437:
		return charmap.CodePage437, nil
	case ISO8859_1:
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("scalar: unknown string encoding %q", e)
	}
}

// Decode converts raw bytes in e's encoding to a Go string (always UTF-8
// once decoded, per Go convention).
func (e StringEncoding) Decode(raw []byte) (string, error) {
	codec, err := e.Codec()
	if err != nil {
		return "", err
	}
	out, err := codec.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("scalar: decoding %s string: %w", e, err)
	}
	return string(out), nil
}

// Encode converts a Go string to raw bytes in e's encoding.
func (e StringEncoding) Encode(s string) ([]byte, error) {
	codec, err := e.Codec()
	if err != nil {
		return nil, err
	}
	out, err := codec.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("scalar: encoding %s string: %w", e, err)
	}
	return out, nil
}
