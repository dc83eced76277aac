package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/jguan/model-catalog/pkg/gateway"
)

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputTable, OutputJSON, OutputYAML:
		return f, nil
	case "":
		return OutputTable, nil
	default:
		return "", fmt.Errorf("invalid output format %q (valid: table, json, yaml)", s)
	}
}

type OutputOptions struct {
	Format    OutputFormat
	Quiet     bool
	Writer    io.Writer
	ErrWriter io.Writer
}

func NewOutputOptions() *OutputOptions {
	return &OutputOptions{
		Format:    OutputTable,
		Quiet:     false,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
	}
}

func FormatOutput(data any, format OutputFormat) (string, error) {
	switch format {
	case OutputJSON:
		return formatJSON(data)
	case OutputYAML:
		return formatYAML(data)
	case OutputTable:
		return formatTable(data)
	default:
		return formatTable(data)
	}
}

func formatJSON(data any) (string, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal JSON: %w", err)
	}
	return string(b) + "\n", nil
}

// formatYAML goes through JSON first so field names follow the json tags
// of the domain types.
func formatYAML(data any) (string, error) {
	doc, err := normalize(data)
	if err != nil {
		return "", err
	}
	b, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal YAML: %w", err)
	}
	return string(b), nil
}

func formatTable(data any) (string, error) {
	if data == nil {
		return "", nil
	}

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return formatSliceTable(v)
	case reflect.Map:
		return formatMapTable(v)
	case reflect.Struct:
		return formatStructTable(v.Interface())
	default:
		return fmt.Sprintf("%v\n", data), nil
	}
}

func formatSliceTable(v reflect.Value) (string, error) {
	if v.Len() == 0 {
		return "No items\n", nil
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	headers := getFields(v.Index(0).Interface())

	fmt.Fprintln(w, strings.Join(upper(headers), "\t"))
	for i := 0; i < v.Len(); i++ {
		values := getFieldValues(v.Index(i).Interface(), headers)
		fmt.Fprintln(w, strings.Join(values, "\t"))
	}

	w.Flush()
	return sb.String(), nil
}

func formatMapTable(v reflect.Value) (string, error) {
	keys := make([]string, 0, v.Len())
	values := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key := fmt.Sprintf("%v", iter.Key())
		keys = append(keys, key)
		values[key] = iter.Value().Interface()
	}
	sort.Strings(keys)

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	for _, key := range keys {
		fmt.Fprintf(w, "%s\t%s\n", key, formatValue(values[key]))
	}
	w.Flush()
	return sb.String(), nil
}

func formatStructTable(data any) (string, error) {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	headers := getFields(data)
	values := getFieldValues(data, headers)

	for i, h := range headers {
		fmt.Fprintf(w, "%s\t%s\n", h, values[i])
	}

	w.Flush()
	return sb.String(), nil
}

func jsonName(field reflect.StructField) string {
	name := field.Tag.Get("json")
	if name == "" || name == "-" {
		return field.Name
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	return name
}

func getFields(data any) []string {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		var fields []string
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.PkgPath != "" {
				continue
			}
			fields = append(fields, jsonName(field))
		}
		return fields
	case reflect.Map:
		fields := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			fields = append(fields, fmt.Sprintf("%v", k))
		}
		sort.Strings(fields)
		return fields
	default:
		return []string{"value"}
	}
}

func getFieldValues(data any, fields []string) []string {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	values := make([]string, len(fields))
	switch v.Kind() {
	case reflect.Map:
		for i, field := range fields {
			if fv := v.MapIndex(reflect.ValueOf(field)); fv.IsValid() {
				values[i] = formatValue(fv.Interface())
			}
		}
	case reflect.Struct:
		t := v.Type()
		fieldMap := make(map[string]int, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			fieldMap[jsonName(t.Field(i))] = i
		}
		for i, field := range fields {
			if idx, ok := fieldMap[field]; ok {
				values[i] = formatValue(v.Field(idx).Interface())
			}
		}
	default:
		if len(values) > 0 {
			values[0] = formatValue(data)
		}
	}
	return values
}

// formatValue renders whole floats without decimals since numbers decoded
// from JSON are always float64.
func formatValue(v any) string {
	if v == nil {
		return ""
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ""
		}
		v = rv.Elem().Interface()
	}

	switch val := v.(type) {
	case string:
		return val
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32:
		return formatFloat(float64(val))
	case float64:
		return formatFloat(val)
	case bool:
		return fmt.Sprintf("%t", val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.2f", f)
}

func upper(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(v)
	}
	return out
}

// Column selects one cell of a table row by dotted JSON path, for example
// "recommended_gpu.gpu_type".
type Column struct {
	Header string
	Path   string
	Format func(any) string
}

// TableView describes how a unit result is laid out in table mode. Rows
// names the array field holding the rows; an empty Rows renders the whole
// result as key/value pairs.
type TableView struct {
	Rows    string
	Columns []Column
}

// Render prints data with view in table mode and falls back to the
// generic encoders otherwise.
func Render(data any, view TableView, opts *OutputOptions) error {
	if opts.Quiet {
		return nil
	}
	if opts.Format != OutputTable && opts.Format != "" {
		return PrintOutput(data, opts)
	}

	doc, err := normalize(data)
	if err != nil {
		return err
	}

	if view.Rows == "" || len(view.Columns) == 0 {
		return PrintOutput(doc, opts)
	}

	rows, _ := lookupPath(doc, view.Rows).([]any)
	if len(rows) == 0 {
		fmt.Fprintln(opts.Writer, "No items")
		return nil
	}

	w := tabwriter.NewWriter(opts.Writer, 0, 0, 2, ' ', 0)
	headers := make([]string, len(view.Columns))
	for i, col := range view.Columns {
		headers[i] = col.Header
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))

	for _, row := range rows {
		cells := make([]string, len(view.Columns))
		for i, col := range view.Columns {
			value := lookupPath(row, col.Path)
			if col.Format != nil {
				cells[i] = col.Format(value)
			} else {
				cells[i] = formatValue(value)
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

// normalize turns typed results into the map/slice shape they have on the
// wire.
func normalize(data any) (any, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal output: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	return doc, nil
}

func lookupPath(doc any, path string) any {
	if path == "" {
		return doc
	}
	current := doc
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}

// humanParams renders a parameter count as 8B or 1.5B.
func humanParams(v any) string {
	f, ok := v.(float64)
	if !ok || f <= 0 {
		return formatValue(v)
	}
	switch {
	case f >= 1e9:
		return trimZero(f/1e9) + "B"
	case f >= 1e6:
		return trimZero(f/1e6) + "M"
	default:
		return formatFloat(f)
	}
}

func trimZero(f float64) string {
	s := fmt.Sprintf("%.1f", f)
	return strings.TrimSuffix(s, ".0")
}

func PrintOutput(data any, opts *OutputOptions) error {
	if opts.Quiet {
		return nil
	}

	output, err := FormatOutput(data, opts.Format)
	if err != nil {
		return err
	}

	fmt.Fprint(opts.Writer, output)
	return nil
}

func errWriter(opts *OutputOptions) io.Writer {
	if opts.ErrWriter != nil {
		return opts.ErrWriter
	}
	return os.Stderr
}

// PrintError writes err in the selected format. Gateway errors keep their
// code.
func PrintError(err error, opts *OutputOptions) {
	out := errWriter(opts)

	errData := map[string]any{"message": err.Error()}
	var info *gateway.ErrorInfo
	if errors.As(err, &info) {
		errData = map[string]any{"code": info.Code, "message": info.Message}
		if info.Details != nil {
			errData["details"] = info.Details
		}
	}
	data := map[string]any{"success": false, "error": errData}

	switch opts.Format {
	case OutputJSON:
		b, _ := json.MarshalIndent(data, "", "  ")
		fmt.Fprintln(out, string(b))
	case OutputYAML:
		b, _ := yaml.Marshal(data)
		fmt.Fprint(out, string(b))
	default:
		if info != nil {
			fmt.Fprintf(out, "Error: %s (%s)\n", info.Message, info.Code)
			return
		}
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

func PrintSuccess(message string, opts *OutputOptions) {
	if opts.Quiet {
		return
	}

	data := map[string]any{
		"success": true,
		"message": message,
	}
	switch opts.Format {
	case OutputJSON:
		b, _ := json.MarshalIndent(data, "", "  ")
		fmt.Fprintln(opts.Writer, string(b))
	case OutputYAML:
		b, _ := yaml.Marshal(data)
		fmt.Fprint(opts.Writer, string(b))
	default:
		fmt.Fprintln(opts.Writer, message)
	}
}
