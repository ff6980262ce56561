package dataset

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/agentstation/mapmerge/pkg/constants"
	"github.com/agentstation/mapmerge/pkg/errors"
)

// Marshal renders the dataset as indented JSON. Members, item types and
// entry fields keep their order. Strings are written with non-ASCII
// characters literally, and a key repeated inside one object is written
// once, in its first position, with its last value.
func Marshal(d *Dataset) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, m := range d.Members() {
		if i > 0 {
			compact.WriteByte(',')
		}
		if err := writeKey(&compact, m.Key); err != nil {
			return nil, err
		}
		if m.Key == constants.ItemsKey {
			if err := writeItems(&compact, d.Items); err != nil {
				return nil, err
			}
			continue
		}
		if err := writeValue(&compact, gjson.ParseBytes(m.Raw)); err != nil {
			return nil, err
		}
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", constants.Indent); err != nil {
		return nil, errors.WrapParse("json", d.Source, err)
	}
	return out.Bytes(), nil
}

func writeItems(buf *bytes.Buffer, items *Items) error {
	buf.WriteByte('{')
	for i, itemType := range items.Types() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(buf, itemType); err != nil {
			return err
		}
		buf.WriteByte('[')
		for j, e := range items.Get(itemType) {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, gjson.ParseBytes(e.Raw)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return nil
}

// writeValue re-encodes a parsed value. Numbers, booleans and null keep
// their source spelling.
func writeValue(buf *bytes.Buffer, value gjson.Result) error {
	switch {
	case value.IsObject():
		return writeObject(buf, value)
	case value.IsArray():
		buf.WriteByte('[')
		for i, v := range value.Array() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, v); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case value.Type == gjson.String:
		return writeString(buf, value.String())
	default:
		buf.WriteString(value.Raw)
		return nil
	}
}

func writeObject(buf *bytes.Buffer, value gjson.Result) error {
	var keys []string
	values := make(map[string]gjson.Result)
	value.ForEach(func(key, v gjson.Result) bool {
		name := key.String()
		if _, ok := values[name]; !ok {
			keys = append(keys, name)
		}
		values[name] = v
		return true
	})

	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(buf, key); err != nil {
			return err
		}
		if err := writeValue(buf, values[key]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeKey writes a quoted object key followed by a colon.
func writeKey(buf *bytes.Buffer, key string) error {
	if err := writeString(buf, key); err != nil {
		return err
	}
	buf.WriteByte(':')
	return nil
}

// writeString writes s quoted, leaving non-ASCII and HTML characters unescaped.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
