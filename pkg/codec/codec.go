// Package codec is the serializer hubs use for invocation arguments and results.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/joeydtaylor/steeze-hub/pkg/config"
)

// KeyStrict switches the registered codec to JSONStrict.
const KeyStrict = "codec:strict"

type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	ContentType() string
}

var (
	// JSON tolerates unknown fields.
	JSON Codec = jsonCodec{}
	// JSONStrict rejects unknown fields and trailing content.
	JSONStrict Codec = jsonCodec{strict: true}
)

var errTrailing = errors.New("json trailing content")

type jsonCodec struct{ strict bool }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if c.strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	if !c.strict {
		return nil
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return errTrailing
	}
	return nil
}

func (jsonCodec) ContentType() string { return "application/json" }

// FromConfig returns JSONStrict when codec:strict is true, otherwise JSON.
func FromConfig(cfg config.Provider) (Codec, error) {
	strict, err := config.Bool(cfg, KeyStrict, false)
	if err != nil {
		return nil, err
	}
	if strict {
		return JSONStrict, nil
	}
	return JSON, nil
}

// DecodeArgs unmarshals a JSON array of arguments into targets, one element each. Extra
// elements are an error; missing ones leave their targets untouched.
func DecodeArgs(c Codec, data []byte, targets ...any) error {
	var raw []json.RawMessage
	if err := JSON.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) > len(targets) {
		return fmt.Errorf("got %d arguments, want at most %d", len(raw), len(targets))
	}
	for i, r := range raw {
		if err := c.Unmarshal(r, targets[i]); err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return nil
}
