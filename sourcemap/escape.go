package sourcemap

const hexDigits = "0123456789abcdef"

// AppendEscaped appends s to dst as a quoted JSON string. Control bytes
// below 0x20 use the short escapes \b \t \n \f \r where they exist and
// \u00XX otherwise; '"' and '\' are backslash-escaped. Every other byte is
// copied unchanged.
func AppendEscaped(dst []byte, s string) []byte {
	dst = append(dst, '"')
	dst = appendEscapedBody(dst, s)
	return append(dst, '"')
}

// Escape returns the escaped body of s without surrounding quotes.
func Escape(s string) string {
	return string(appendEscapedBody(make([]byte, 0, len(s)), s))
}

func appendEscapedBody(dst []byte, s string) []byte {
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}

		dst = append(dst, s[start:i]...)
		switch c {
		case '"', '\\':
			dst = append(dst, '\\', c)
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\r':
			dst = append(dst, '\\', 'r')
		default:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0x0f])
		}
		start = i + 1
	}
	return append(dst, s[start:]...)
}
