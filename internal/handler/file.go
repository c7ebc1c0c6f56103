package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"sort"

	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// convertToFileHandler implements convert-to-file: serialises input into
// one of several formats and returns {data, format} (spec §4.3).
type convertToFileHandler struct{}

func (convertToFileHandler) Kind() string { return "convert-to-file" }

func (convertToFileHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	operation := configStringDefault(node.Config, "operation", "toJson")

	var data string
	switch operation {
	case "csv":
		encoded, err := encodeCSV(input)
		if err != nil {
			return value.Null(), engineerr.Config("csv encoding: " + err.Error())
		}
		data = encoded
	case "toJson":
		data = input.JSON()
	case "toText":
		data = input.RawString()
	case "toBinary":
		data = base64.StdEncoding.EncodeToString([]byte(input.RawString()))
	default:
		return value.Null(), engineerr.Config("unsupported convert-to-file operation " + operation)
	}

	out := value.NewObject()
	out.Set("data", value.String(data))
	out.Set("format", value.String(operation))
	return out, nil
}

func encodeCSV(input value.Value) (string, error) {
	rows := input.Items()
	if input.IsObject() {
		rows = []value.Value{input}
	}

	headerSet := map[string]bool{}
	var headers []string
	for _, row := range rows {
		if !row.IsObject() {
			continue
		}
		for _, k := range row.Keys() {
			if !headerSet[k] {
				headerSet[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return "", err
	}
	for _, row := range rows {
		record := make([]string, len(headers))
		for i, h := range headers {
			field, _ := row.Get(h)
			record[i] = field.RawString()
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractFromFileHandler implements extract-from-file: reads
// input[binaryPropertyName] (default "data") and decodes per operation
// (spec §4.3).
type extractFromFileHandler struct{}

func (extractFromFileHandler) Kind() string { return "extract-from-file" }

func (extractFromFileHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	propName := configStringDefault(node.Config, "binaryPropertyName", "data")
	field, ok := input.Get(propName)
	if !ok {
		return value.Null(), engineerr.Config("input missing property " + propName)
	}
	raw := field.RawString()

	operation := configStringDefault(node.Config, "operation", "fromJson")
	switch operation {
	case "csv":
		return decodeCSV(raw)
	case "fromJson":
		parsed, err := value.Parse([]byte(raw))
		if err != nil {
			return value.Null(), engineerr.Config("invalid JSON in " + propName)
		}
		return parsed, nil
	case "text":
		return value.String(raw), nil
	case "binaryToPropery":
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return value.Null(), engineerr.Config("invalid base64 in " + propName)
		}
		return value.String(string(decoded)), nil
	default:
		return value.Null(), engineerr.Config("unsupported extract-from-file operation " + operation)
	}
}

func decodeCSV(raw string) (value.Value, error) {
	r := csv.NewReader(bytes.NewBufferString(raw))
	records, err := r.ReadAll()
	if err != nil {
		return value.Null(), engineerr.Config("csv decoding: " + err.Error())
	}
	if len(records) == 0 {
		return value.Array(), nil
	}

	header := records[0]
	rows := make([]value.Value, 0, len(records)-1)
	for _, record := range records[1:] {
		row := value.NewObject()
		for i, h := range header {
			if i < len(record) {
				row.Set(h, value.String(record[i]))
			}
		}
		rows = append(rows, row)
	}
	return value.Array(rows...), nil
}

// readWriteFileHandler implements read-write-file (spec §4.3), delegating
// to the FileIO capability so tests can mock local disk access.
type readWriteFileHandler struct{}

func (readWriteFileHandler) Kind() string { return "read-write-file" }

func (readWriteFileHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	if ectx.Capabilities.FileIO == nil {
		return value.Null(), engineerr.Config("no FileIO capability configured")
	}

	operation := configStringDefault(node.Config, "operation", "read")
	switch operation {
	case "read":
		pattern, ok := configString(node.Config, "pattern")
		if !ok {
			return value.Null(), engineerr.MissingField("pattern")
		}
		entries, err := ectx.Capabilities.FileIO.ReadGlob(pattern)
		if err != nil {
			return value.Null(), engineerr.External("File Error", err.Error(), err)
		}
		items := make([]value.Value, 0, len(entries))
		for _, e := range entries {
			item := value.NewObject()
			item.Set("path", value.String(e.Path))
			item.Set("data", value.String(string(e.Data)))
			items = append(items, item)
		}
		return value.Array(items...), nil

	case "write":
		path, ok := configString(node.Config, "path")
		if !ok {
			return value.Null(), engineerr.MissingField("path")
		}
		propName := configStringDefault(node.Config, "dataPropertyName", "data")
		field, ok := input.Get(propName)
		if !ok {
			return value.Null(), engineerr.Config("input missing property " + propName)
		}
		appendMode := configBool(node.Config, "append")
		if err := ectx.Capabilities.FileIO.WriteFile(path, []byte(field.RawString()), appendMode); err != nil {
			return value.Null(), engineerr.External("File Error", err.Error(), err)
		}
		out := value.NewObject()
		out.Set("path", value.String(path))
		return out, nil

	default:
		return value.Null(), engineerr.Config("unsupported read-write-file operation " + operation)
	}
}
