package dashboardhttp

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

const csvBufferSize = 32 * 1024

type metricRow struct {
	Metric string
	Value  string
}

// flattenResult turns a result into dotted metric paths, e.g. "top_specialties.0.key".
// Object keys are sorted; array elements keep their order.
func flattenResult(res any) ([]metricRow, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("dashboardhttp: encode result: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("dashboardhttp: decode result: %w", err)
	}
	var rows []metricRow
	flatten("", tree, &rows)
	return rows, nil
}

func flatten(prefix string, node any, rows *[]metricRow) {
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flatten(join(k), v[k], rows)
		}
	case []any:
		for i, item := range v {
			flatten(join(strconv.Itoa(i)), item, rows)
		}
	case json.Number:
		*rows = append(*rows, metricRow{Metric: prefix, Value: v.String()})
	case string:
		*rows = append(*rows, metricRow{Metric: prefix, Value: v})
	case bool:
		*rows = append(*rows, metricRow{Metric: prefix, Value: strconv.FormatBool(v)})
	case nil:
		*rows = append(*rows, metricRow{Metric: prefix})
	}
}

func writeCSV(w io.Writer, module string, f filters, rows []metricRow) error {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true

	header := [][]string{
		{"# tenant", f.Tenant},
		{"# module", module},
		{"# period", string(f.Window.Period)},
		{"# ref", f.Window.Ref.Format("2006-01-02")},
		{"metric", "value"},
	}
	if err := writer.WriteAll(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{row.Metric, row.Value}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return buf.Flush()
}
