package xjson

import (
	"bytes"
	stdjson "encoding/json"
	"io"

	gjson "github.com/goccy/go-json"
)

// Marshal/Unmarshal wrappers keep a single import site for the JSON codec.

type (
	RawMessage = stdjson.RawMessage
	Number     = stdjson.Number
)

func Marshal(v interface{}) ([]byte, error) {
	return gjson.Marshal(v)
}

func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gjson.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v interface{}) error {
	return gjson.Unmarshal(data, v)
}

// UnmarshalUseNumber decodes numbers into Number instead of float64 so
// that integers wider than 53 bits (seeds) survive a round trip.
func UnmarshalUseNumber(data []byte, v interface{}) error {
	dec := gjson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func NewDecoder(r io.Reader) *gjson.Decoder {
	return gjson.NewDecoder(r)
}

// Write encodes v to w, optionally indented with two spaces.
func Write(w io.Writer, v interface{}, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = MarshalIndent(v, "", "  ")
	} else {
		data, err = Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
