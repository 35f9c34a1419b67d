package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID      string `json:"id" yaml:"id"`
	Country string `json:"country" yaml:"country"`
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "TABLE": FormatTable, "json": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestPrinter_Table(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable)

	err := p.Print(nil, Table{
		Headers: []string{"ID", "COUNTRY"},
		Rows:    [][]string{{"1", "PE"}, {"22", "MX"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ID  COUNTRY\n--  -------\n1   PE\n22  MX\n", buf.String())
}

func TestPrinter_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable).Print(nil, Table{Headers: []string{"ID"}}))
	assert.Equal(t, "No data found\n", buf.String())
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON).Print([]row{{ID: "1", Country: "PE"}}, Table{}))
	assert.JSONEq(t, `[{"id":"1","country":"PE"}]`, buf.String())
}

func TestPrinter_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatYAML).Print(row{ID: "1", Country: "PE"}, Table{}))
	assert.Equal(t, "id: \"1\"\ncountry: PE\n", buf.String())
}
