package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
)

const tablePadding = 2

func (c *cli) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(c.out, format, args...)
	return err
}

func (c *cli) writeJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) writeTable(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(c.out, 0, 0, tablePadding, ' ', 0)
	if len(headers) > 0 {
		fmt.Fprintln(w, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func scope(ownerID string) string {
	if ownerID == "" {
		return "global"
	}
	return "own"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
