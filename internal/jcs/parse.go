package jcs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ParseError reports bytes that are not a single UTF-8 JSON value.
type ParseError struct {
	Offset int64 // byte offset where decoding stopped
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid UTF-8 JSON at offset %d: %s", e.Offset, e.Reason)
}

// Parse decodes exactly one JSON value from data.
//
// Numbers are read as doubles; a literal beyond the double range parses to
// ±Inf, which Encode refuses. A repeated object key keeps its last value.
// Whitespace is accepted anywhere JSON allows it; whether the input was
// canonical is a separate question answered by re-encoding.
func Parse(data []byte) (Value, error) {
	if !utf8.Valid(data) {
		return nil, &ParseError{Offset: int64(invalidUTF8Offset(data)), Reason: "invalid UTF-8"}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Offset: 0, Reason: "empty document"}
	}
	if err != nil {
		return nil, &ParseError{Offset: dec.InputOffset(), Reason: err.Error()}
	}
	v, err := parseValue(dec, tok)
	if err != nil {
		return nil, &ParseError{Offset: dec.InputOffset(), Reason: err.Error()}
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Offset: dec.InputOffset(), Reason: "trailing data after top-level value"}
	}
	return v, nil
}

// parseValue builds a Value from tok, consuming the rest of a composite
// value from dec.
func parseValue(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		n, err := numberFromLiteral(t.String())
		if err != nil {
			return nil, err
		}
		return n, nil
	case json.Delim:
		switch t {
		case '[':
			return parseArray(dec)
		case '{':
			return parseObject(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
	default:
		return nil, fmt.Errorf("unexpected token %T", tok)
	}
}

func parseArray(dec *json.Decoder) (Value, error) {
	arr := Array{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		elem, err := parseValue(dec, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, elem)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return nil, err
	}
	return arr, nil
}

func parseObject(dec *json.Decoder) (Value, error) {
	obj := Object{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %T", tok)
		}
		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		member, err := parseValue(dec, tok)
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", key, err)
		}
		obj[key] = member
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return obj, nil
}

func invalidUTF8Offset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}
