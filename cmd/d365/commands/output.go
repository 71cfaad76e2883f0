package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fivetwenty-io/d365-client/internal/constants"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// odataAnnotationPrefix marks metadata keys such as @odata.etag.
const odataAnnotationPrefix = "@"

func outputFormat() string {
	output := viper.GetString("output")
	if output == "" {
		return constants.FormatTable
	}

	return output
}

func encode(w io.Writer, format string, data interface{}) (bool, error) {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return true, encoder.Encode(data)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return true, encoder.Encode(data)
	default:
		return false, nil
	}
}

// renderRecords prints records as json, yaml or a table whose columns are
// the union of record fields, annotations excluded.
func renderRecords(w io.Writer, format string, records []d365.Record) error {
	if records == nil {
		records = []d365.Record{}
	}

	if handled, err := encode(w, format, records); handled {
		return err
	}

	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "No records found")

		return nil
	}

	columns := recordColumns(records)

	table := tablewriter.NewWriter(w)
	table.Header(columns)

	for _, record := range records {
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = cellValue(record[column])
		}

		_ = table.Append(row)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	_, _ = fmt.Fprintf(w, "\nTotal: %d record(s)\n", len(records))

	return nil
}

// renderProperties prints a flat result such as a new record id or a status.
func renderProperties(w io.Writer, format string, properties map[string]interface{}) error {
	if handled, err := encode(w, format, properties); handled {
		return err
	}

	keys := make([]string, 0, len(properties))
	for key := range properties {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	for _, key := range keys {
		_ = table.Append(key, cellValue(properties[key]))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderRaw prints a query response body, indented for json and converted
// for yaml. Tables print the "value" records when the body has them.
func renderRaw(w io.Writer, format, body string) error {
	var decoded interface{}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		_, _ = fmt.Fprintln(w, body)

		return nil //nolint:nilerr // non-JSON bodies are printed verbatim
	}

	if handled, err := encode(w, format, decoded); handled {
		return err
	}

	object, ok := decoded.(map[string]interface{})
	if !ok {
		_, _ = fmt.Fprintln(w, body)

		return nil
	}

	values, ok := object[constants.ODataValueKey].([]interface{})
	if !ok {
		return renderRecords(w, format, []d365.Record{object})
	}

	records := make([]d365.Record, 0, len(values))
	for _, value := range values {
		if record, ok := value.(map[string]interface{}); ok {
			records = append(records, record)
		}
	}

	return renderRecords(w, format, records)
}

func recordColumns(records []d365.Record) []string {
	seen := make(map[string]struct{})
	for _, record := range records {
		for key := range record {
			if !strings.HasPrefix(key, odataAnnotationPrefix) {
				seen[key] = struct{}{}
			}
		}
	}

	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}

	sort.Strings(columns)

	return columns
}

func cellValue(value interface{}) string {
	var text string

	switch v := value.(type) {
	case nil:
		return ""
	case string:
		text = v
	case map[string]interface{}, []interface{}:
		encoded, err := json.Marshal(v)
		if err != nil {
			return constants.NotAvailable
		}

		text = string(encoded)
	default:
		text = fmt.Sprint(v)
	}

	if runes := []rune(text); len(runes) > constants.StringTruncationLimit {
		return string(runes[:constants.StringTruncationLimit-3]) + "..."
	}

	return text
}
