package engine

import (
	"strings"
	"unicode/utf8"
)

// DecodedHTML is the result of turning raw response bytes into text,
// along with the encoding label actually used.
type DecodedHTML struct {
	HTML     string
	Encoding string
}

// decodeHTML chooses an encoding in the same priority order as the
// original engine: a byte-order mark, then a Content-Type charset
// parameter, then a lightweight heuristic fallback. The example pack
// carries no Go port of chardetng, so the fallback here is a simpler
// valid-UTF-8 check with a Windows-1252 assumption otherwise - a
// deliberate simplification, noted in DESIGN.md.
func decodeHTML(body []byte, contentType string) (*DecodedHTML, *StageError) {
	if label, text, ok := decodeByBOM(body); ok {
		return &DecodedHTML{HTML: text, Encoding: label}, nil
	}

	if charset, ok := charsetFromContentType(contentType); ok {
		text, err := decodeWith(body, charset)
		if err != nil {
			return nil, errOf(FailureDecodeFailure, err.Error())
		}
		return &DecodedHTML{HTML: text, Encoding: charset}, nil
	}

	if utf8.Valid(body) {
		return &DecodedHTML{HTML: string(body), Encoding: "utf-8"}, nil
	}

	return &DecodedHTML{HTML: decodeWindows1252(body), Encoding: "windows-1252"}, nil
}

func decodeByBOM(body []byte) (label, text string, ok bool) {
	switch {
	case len(body) >= 3 && body[0] == 0xEF && body[1] == 0xBB && body[2] == 0xBF:
		return "utf-8", string(body[3:]), true
	case len(body) >= 2 && body[0] == 0xFF && body[1] == 0xFE:
		return "utf-16le", decodeUTF16LE(body[2:]), true
	case len(body) >= 2 && body[0] == 0xFE && body[1] == 0xFF:
		return "utf-16be", decodeUTF16BE(body[2:]), true
	default:
		return "", "", false
	}
}

func charsetFromContentType(contentType string) (string, bool) {
	lower := strings.ToLower(contentType)
	idx := strings.Index(lower, "charset=")
	if idx < 0 {
		return "", false
	}
	rest := contentType[idx+len("charset="):]
	rest = strings.TrimSpace(rest)
	if semi := strings.IndexByte(rest, ';'); semi >= 0 {
		rest = rest[:semi]
	}
	rest = strings.Trim(rest, `"' `)
	if rest == "" {
		return "", false
	}
	return strings.ToLower(rest), true
}

func decodeWith(body []byte, charset string) (string, error) {
	switch charset {
	case "utf-8", "utf8":
		if !utf8.Valid(body) {
			return "", errOf(FailureDecodeFailure, "invalid utf-8 bytes")
		}
		return string(body), nil
	case "windows-1252", "iso-8859-1", "latin1":
		return decodeWindows1252(body), nil
	default:
		// Unknown declared charset: fall back to a best-effort UTF-8
		// interpretation rather than failing the whole job.
		return string(body), nil
	}
}

func decodeWindows1252(body []byte) string {
	var b strings.Builder
	b.Grow(len(body))
	for _, c := range body {
		b.WriteRune(rune(c))
	}
	return b.String()
}

func decodeUTF16LE(body []byte) string {
	return decodeUTF16(body, true)
}

func decodeUTF16BE(body []byte) string {
	return decodeUTF16(body, false)
}

func decodeUTF16(body []byte, little bool) string {
	var b strings.Builder
	for i := 0; i+1 < len(body); i += 2 {
		var u uint16
		if little {
			u = uint16(body[i]) | uint16(body[i+1])<<8
		} else {
			u = uint16(body[i])<<8 | uint16(body[i+1])
		}
		b.WriteRune(rune(u))
	}
	return b.String()
}
