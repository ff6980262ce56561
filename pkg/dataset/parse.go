package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agentstation/mapmerge/pkg/constants"
	"github.com/agentstation/mapmerge/pkg/errors"
)

// Parse decodes a mapping document. source names the document in errors.
//
// Only the shape this tool relies on is checked: the document is an object,
// items is an object of arrays, and every entry is an object with a string
// name and a numeric custom_model_data.
func Parse(source string, data []byte) (*Dataset, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.NewParseError("json", source, "invalid JSON document", nil)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, errors.NewFileValidationError(source, "$", "document must be a JSON object")
	}

	ds := &Dataset{Source: source}
	seen := make(map[string]int)
	var itemsRaw *gjson.Result

	doc.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		member := Member{Key: name, Raw: json.RawMessage(value.Raw)}
		if name == constants.ItemsKey {
			v := value
			itemsRaw = &v
			member.Raw = nil
		}
		if name == constants.FormatVersionKey {
			ds.FormatVersion = value.String()
		}
		// A repeated key keeps its first position and its last value.
		if idx, ok := seen[name]; ok {
			ds.members[idx] = member
			return true
		}
		seen[name] = len(ds.members)
		ds.members = append(ds.members, member)
		return true
	})

	if itemsRaw == nil {
		return nil, errors.NewFileValidationError(source, constants.ItemsKey, "missing required key")
	}

	items, err := parseItems(source, *itemsRaw)
	if err != nil {
		return nil, err
	}
	ds.Items = items
	return ds, nil
}

func parseItems(source string, value gjson.Result) (*Items, error) {
	if !value.IsObject() {
		return nil, errors.NewFileValidationError(source, constants.ItemsKey, "must be an object")
	}

	items := NewItems()
	var err error
	value.ForEach(func(key, list gjson.Result) bool {
		itemType := key.String()
		if !list.IsArray() {
			err = errors.NewFileValidationError(source, fmt.Sprintf("%s.%s", constants.ItemsKey, itemType), "must be an array")
			return false
		}
		var entries []Entry
		for idx, raw := range list.Array() {
			entry, entryErr := parseEntry(source, fmt.Sprintf("%s.%s[%d]", constants.ItemsKey, itemType, idx), raw)
			if entryErr != nil {
				err = entryErr
				return false
			}
			entries = append(entries, entry)
		}
		items.Set(itemType, entries)
		return true
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func parseEntry(source, field string, value gjson.Result) (Entry, error) {
	if !value.IsObject() {
		return Entry{}, errors.NewFileValidationError(source, field, "entry must be an object")
	}

	var name, id gjson.Result
	value.ForEach(func(key, v gjson.Result) bool {
		switch key.String() {
		case constants.NameKey:
			name = v
		case constants.ModelDataKey:
			id = v
		}
		return true
	})

	if !name.Exists() {
		return Entry{}, errors.NewFileValidationError(source, field+"."+constants.NameKey, "missing required key")
	}
	if name.Type != gjson.String {
		return Entry{}, errors.NewFileValidationError(source, field+"."+constants.NameKey, "must be a string")
	}
	if !id.Exists() {
		return Entry{}, errors.NewFileValidationError(source, field+"."+constants.ModelDataKey, "missing required key")
	}
	if id.Type != gjson.Number {
		return Entry{}, errors.NewFileValidationError(source, field+"."+constants.ModelDataKey, "must be a number")
	}
	if !exactID(id.Raw) {
		return Entry{}, errors.NewFileValidationError(source, field+"."+constants.ModelDataKey, "integer is too large to compare exactly")
	}

	return Entry{
		Name: name.String(),
		ID:   id.Num,
		Raw:  json.RawMessage(value.Raw),
	}, nil
}

// exactID reports whether an id spelled as raw compares exactly as a float64.
// Integer spellings beyond 2^53 would collapse onto their neighbours.
func exactID(raw string) bool {
	if strings.ContainsAny(raw, ".eE") {
		return true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return n >= -constants.MaxExactID && n <= constants.MaxExactID
}
