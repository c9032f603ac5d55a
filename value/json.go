package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf8"
)

// ErrTrailingData is returned by DecodeJSON when the input holds more than
// one JSON value.
var ErrTrailingData = errors.New("trailing data after JSON value")

// MarshalJSON renders v as compact JSON, keeping map key order.
func (v Value) MarshalJSON() ([]byte, error) {
	return AppendJSON(nil, v), nil
}

// UnmarshalJSON decodes JSON into v, keeping map key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeJSON(data)
	if err != nil {
		return err
	}

	*v = decoded

	return nil
}

// AppendJSON appends the compact JSON encoding of v to dst. NaN and
// infinities, which JSON cannot express, are written as null.
func AppendJSON(dst []byte, v Value) []byte {
	switch v.kind {
	case KindNull:
		return append(dst, "null"...)
	case KindBool:
		return strconv.AppendBool(dst, v.b)
	case KindInt:
		return strconv.AppendInt(dst, v.i, 10)
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return append(dst, "null"...)
		}

		return append(dst, FormatFloat(v.f)...)
	case KindString:
		return appendJSONString(dst, v.s)
	case KindSeq:
		dst = append(dst, '[')
		for i, e := range v.seq.Elems() {
			if i > 0 {
				dst = append(dst, ',')
			}

			dst = AppendJSON(dst, e)
		}

		return append(dst, ']')
	case KindMap:
		dst = append(dst, '{')
		first := true

		for k, e := range v.m.All() {
			if !first {
				dst = append(dst, ',')
			}

			first = false
			dst = appendJSONString(dst, k)
			dst = append(dst, ':')
			dst = AppendJSON(dst, e)
		}

		return append(dst, '}')
	default:
		return append(dst, "null"...)
	}
}

// IndentJSON renders v as JSON indented with two spaces.
func IndentJSON(v Value) []byte {
	var buf bytes.Buffer

	// AppendJSON always produces valid JSON.
	_ = json.Indent(&buf, AppendJSON(nil, v), "", "  ")

	return buf.Bytes()
}

const hexDigits = "0123456789abcdef"

func appendJSONString(dst []byte, s string) []byte {
	dst = append(dst, '"')

	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"' || c == '\\':
				dst = append(dst, '\\', c)
			case c == '\n':
				dst = append(dst, '\\', 'n')
			case c == '\r':
				dst = append(dst, '\\', 'r')
			case c == '\t':
				dst = append(dst, '\\', 't')
			case c < 0x20:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
			default:
				dst = append(dst, c)
			}

			i++

			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, `�`...)
		} else {
			dst = append(dst, s[i:i+size]...)
		}

		i += size
	}

	return append(dst, '"')
}

// DecodeJSON decodes a single JSON document. Object key order is kept,
// integral numbers become Int and everything else numeric becomes Float.
func DecodeJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return Null, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Null, ErrTrailingData
	}

	return v, nil
}

// JSONDecoder reads a stream of JSON values, such as newline-delimited
// JSON or concatenated documents.
type JSONDecoder struct {
	dec *json.Decoder
}

// NewJSONDecoder returns a decoder reading from r.
func NewJSONDecoder(r io.Reader) *JSONDecoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	return &JSONDecoder{dec: dec}
}

// More reports whether another value is available.
func (d *JSONDecoder) More() bool {
	return d.dec.More()
}

// Decode reads the next value. It returns io.EOF at the end of the stream.
func (d *JSONDecoder) Decode() (Value, error) {
	return decodeJSONValue(d.dec)
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null, err
	}

	switch t := tok.(type) {
	case nil:
		return Null, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return numberFromText(string(t)), nil
	case json.Delim:
		switch t {
		case '[':
			s := NewSeq()

			for dec.More() {
				e, err := decodeJSONValue(dec)
				if err != nil {
					return Null, err
				}

				s.Append(e)
			}

			if _, err := dec.Token(); err != nil {
				return Null, err
			}

			return FromSeq(s), nil
		case '{':
			m := NewMap()

			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Null, err
				}

				key, ok := kt.(string)
				if !ok {
					return Null, fmt.Errorf("unexpected object key %v", kt)
				}

				e, err := decodeJSONValue(dec)
				if err != nil {
					return Null, err
				}

				m.Set(key, e)
			}

			if _, err := dec.Token(); err != nil {
				return Null, err
			}

			return FromMap(m), nil
		}
	}

	return Null, fmt.Errorf("unexpected JSON token %v", tok)
}
