package importer

import (
	"bytes"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// candidate is one entry of the ordered encoding list.
type candidate struct {
	name string
	enc  encoding.Encoding
	post transform.Transformer
	utf8 bool
	bom  bool
}

// jisMapping rewrites the code points where the Windows-31J table differs
// from JIS X 0208, so 0x817C reads as U+2212 as it does in bank exports
// decoded with plain Shift_JIS.
var jisMapping = runes.Map(func(r rune) rune {
	switch r {
	case '－':
		return '−'
	case '～':
		return '〜'
	case '∥':
		return '‖'
	case '￠':
		return '¢'
	case '￡':
		return '£'
	case '￢':
		return '¬'
	}
	return r
})

// x/text's ShiftJIS is the Windows-31J table, so shift_jis is that table
// plus jisMapping, and cp932 is the table as is.
var candidates = []candidate{
	{name: "shift_jis", enc: japanese.ShiftJIS, post: jisMapping},
	{name: "cp932", enc: japanese.ShiftJIS},
	{name: "utf-8-sig", enc: xunicode.UTF8BOM, utf8: true, bom: true},
	{name: "utf-8", enc: xunicode.UTF8, utf8: true},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts raw CSV bytes to text using the first candidate encoding
// that decodes cleanly. It returns the text and the encoding name.
func Decode(raw []byte) (string, string, error) {
	tried := make([]string, 0, len(candidates))
	for _, c := range candidates {
		tried = append(tried, c.name)
		if c.bom && !bytes.HasPrefix(raw, utf8BOM) {
			continue
		}
		if c.utf8 && !utf8.Valid(raw) {
			continue
		}
		var t transform.Transformer = c.enc.NewDecoder()
		if c.post != nil {
			t = transform.Chain(t, c.post)
		}
		out, _, err := transform.Bytes(t, raw)
		if err != nil || !clean(out) {
			continue
		}
		return string(out), c.name, nil
	}
	return "", "", &EncodingError{Tried: tried}
}

// clean rejects decoder output containing replacement, C1 control or
// private-use characters. The x/text decoders substitute U+FFFD instead of
// failing, and a lone 0x80 byte decodes to a C1 control.
func clean(b []byte) bool {
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		switch {
		case r == utf8.RuneError:
			return false
		case r >= 0x80 && r <= 0x9F:
			return false
		case unicode.Is(unicode.Co, r):
			return false
		}
		b = b[size:]
	}
	return true
}
