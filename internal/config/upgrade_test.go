package config

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeTable(t *testing.T) {
	fragment := []byte(`
<table>
  <thead>
    <tr><th> Name </th><th>Region</th><th></th></tr>
  </thead>
  <tbody>
    <tr data-row-id="srv-1"><td>alpha</td><td> us-east-1 </td><td>ok</td></tr>
    <tr><td>beta</td><td>eu-west-1</td><td>ok</td></tr>
  </tbody>
</table>`)

	spec, err := UpgradeTable("fleet", fragment)
	require.NoError(t, err)

	t.Run("one column per header cell", func(t *testing.T) {
		require.Len(t, spec.Columns, 3)
		assert.Equal(t, "col1", spec.Columns[0].Key)
		assert.Equal(t, "Name", spec.Columns[0].Title) // trimmed
		assert.Equal(t, "Region", spec.Columns[1].Title)
		assert.Equal(t, "Col 3", spec.Columns[2].Title) // empty header gets a placeholder
	})

	t.Run("one row per body row with trimmed cells", func(t *testing.T) {
		require.NotNil(t, spec.Data.Snapshot)
		rows := spec.Data.Snapshot.Rows
		require.Len(t, rows, 2)
		assert.Equal(t, "alpha", rows[0].Cells["col1"])
		assert.Equal(t, "us-east-1", rows[0].Cells["col2"])
	})

	t.Run("row ids come from the attribute or are synthesized", func(t *testing.T) {
		rows := spec.Data.Snapshot.Rows
		assert.Equal(t, "srv-1", rows[0].ID)
		assert.Equal(t, "fleet__r2", rows[1].ID)
	})

	t.Run("result is a static data source", func(t *testing.T) {
		assert.Equal(t, "static", spec.Data.Kind)
		assert.Equal(t, "fleet", spec.ID)
	})
}

func TestUpgradeTableRoundTrip(t *testing.T) {
	// H header cells and R body rows must map 1:1 onto columns and rows.
	const headers, bodyRows = 4, 7

	var b strings.Builder
	b.WriteString("<table><tr>")
	for h := 0; h < headers; h++ {
		fmt.Fprintf(&b, "<th>H%d</th>", h)
	}
	b.WriteString("</tr>")
	for r := 0; r < bodyRows; r++ {
		b.WriteString("<tr>")
		for h := 0; h < headers; h++ {
			fmt.Fprintf(&b, "<td> v%d-%d </td>", r, h)
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")

	spec, err := UpgradeTable("grid", []byte(b.String()))
	require.NoError(t, err)

	require.Len(t, spec.Columns, headers)
	require.Len(t, spec.Data.Snapshot.Rows, bodyRows)
	for r, row := range spec.Data.Snapshot.Rows {
		for h, col := range spec.Columns {
			assert.Equal(t, fmt.Sprintf("v%d-%d", r, h), row.Cells[col.Key])
		}
	}
}

func TestUpgradeTableWithoutHeaderRow(t *testing.T) {
	fragment := []byte(`<table>
	  <tr><td>Name</td><td>Region</td></tr>
	  <tr><td>alpha</td><td>us-east-1</td></tr>
	</table>`)

	spec, err := UpgradeTable("g", fragment)
	require.NoError(t, err)

	// The first row is promoted to headers.
	require.Len(t, spec.Columns, 2)
	assert.Equal(t, "Name", spec.Columns[0].Title)
	require.Len(t, spec.Data.Snapshot.Rows, 1)
	assert.Equal(t, "alpha", spec.Data.Snapshot.Rows[0].Cells["col1"])
}

func TestUpgradeTableIDFromMarkup(t *testing.T) {
	fragment := []byte(`<table id="inventory"><tr><th>A</th></tr><tr><td>1</td></tr></table>`)
	spec, err := UpgradeTable("", fragment)
	require.NoError(t, err)
	assert.Equal(t, "inventory", spec.ID)
}

func TestUpgradeTableNoTable(t *testing.T) {
	_, err := UpgradeTable("g", []byte(`<div>not a table</div>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no table element")
}

func TestUpgradeTableExtraCellsIgnored(t *testing.T) {
	fragment := []byte(`<table>
	  <tr><th>A</th></tr>
	  <tr><td>1</td><td>overflow</td></tr>
	</table>`)

	spec, err := UpgradeTable("g", fragment)
	require.NoError(t, err)
	require.Len(t, spec.Data.Snapshot.Rows, 1)
	assert.Len(t, spec.Data.Snapshot.Rows[0].Cells, 1)
}
