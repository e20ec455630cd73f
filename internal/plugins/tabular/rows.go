package tabular

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// rowSet holds parsed tabular data. Headers keep source column order;
// rows are header-keyed string maps.
type rowSet struct {
	headers []string
	rows    []map[string]string
}

func parseRows(content, ext string) (*rowSet, error) {
	switch ext {
	case ".csv":
		return parseDelimited(content, ',')
	case ".tsv":
		return parseDelimited(content, '\t')
	case ".json":
		return parseJSONRows(content)
	}
	return nil, fmt.Errorf("unsupported format %q", ext)
}

func parseDelimited(content string, delimiter rune) (*rowSet, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &rowSet{}, nil
	}

	headers := records[0]
	set := &rowSet{headers: headers}
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		set.rows = append(set.rows, row)
	}
	return set, nil
}

// parseJSONRows decodes a JSON array of flat objects. Decoding walks
// tokens instead of unmarshalling into maps so the first object's key
// order becomes the column order.
func parseJSONRows(content string) (*rowSet, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("expected a JSON array of objects, got %v", tok)
	}

	set := &rowSet{}
	seen := make(map[string]struct{})
	for dec.More() {
		row, keys, err := decodeObject(dec)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				set.headers = append(set.headers, k)
			}
		}
		set.rows = append(set.rows, row)
	}
	return set, nil
}

func decodeObject(dec *json.Decoder) (map[string]string, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected a JSON object row, got %v", tok)
	}

	row := make(map[string]string)
	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		row[key] = jsonValueString(value)
		keys = append(keys, key)
	}
	// consume the closing brace
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, nil, err
	}
	return row, keys, nil
}

func jsonValueString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
