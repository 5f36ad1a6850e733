package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ParseJSON decodes a single JSON document, keeping object keys in source order.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return Value{}, malformedJSON(dec, err)
	}
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = fmt.Errorf("unexpected trailing token %v", tok)
		}
		return Value{}, malformedJSON(dec, err)
	}
	return v, nil
}

func malformedJSON(dec *json.Decoder, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: json at offset %d: %w", ErrMalformed, dec.InputOffset(), err)
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeJSONObject(dec)
		case '[':
			return decodeJSONArray(dec)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
	case nil:
		return Null(), nil
	case string:
		return Scalar(t), nil
	case json.Number:
		return Scalar(t.String()), nil
	case bool:
		return Scalar(strconv.FormatBool(t)), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func decodeJSONObject(dec *json.Decoder) (Value, error) {
	var obj mappingBuilder
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected object key, got %v", tok)
		}
		val, err := decodeJSONValue(dec)
		if err != nil {
			return Value{}, err
		}
		obj.set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return obj.value(), nil
}

func decodeJSONArray(dec *json.Decoder) (Value, error) {
	arr := Value{Kind: KindArray}
	for dec.More() {
		item, err := decodeJSONValue(dec)
		if err != nil {
			return Value{}, err
		}
		arr.Items = append(arr.Items, item)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return arr, nil
}
