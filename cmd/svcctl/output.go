package main

import (
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/fyrsmithlabs/svclocator/internal/services"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// printStatusTable prints one row per service in the order given.
func printStatusTable(w io.Writer, list []services.Status) {
	table := newTable(w)
	table.SetHeader([]string{"Name", "Priority", "State", "Host Managed", "Registered"})
	for _, st := range list {
		table.Append([]string{
			st.Name,
			st.Priority.String(),
			string(st.State),
			strconv.FormatBool(st.HostManaged),
			st.RegisteredAt.Local().Format(time.DateTime),
		})
	}
	table.Render()
}

// printStatusDetail prints a key-value table for one service.
func printStatusDetail(w io.Writer, st *services.Status) {
	table := newTable(w)
	table.SetAutoFormatHeaders(false)
	table.SetColumnSeparator(":")
	for _, row := range [][2]string{
		{"Name", st.Name},
		{"ID", st.ID},
		{"Type", st.Type},
		{"Priority", st.Priority.String()},
		{"State", string(st.State)},
		{"Running", strconv.FormatBool(st.Running)},
		{"Started", strconv.FormatBool(st.Started)},
		{"Stopped", strconv.FormatBool(st.Stopped)},
		{"Host Managed", strconv.FormatBool(st.HostManaged)},
		{"Registered", st.RegisteredAt.Format(time.RFC3339)},
	} {
		table.Append([]string{row[0], row[1]})
	}
	table.Render()
}
