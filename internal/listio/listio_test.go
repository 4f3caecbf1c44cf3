package listio

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/dataforge/internal/model"
)

func TestReadCSV(t *testing.T) {
	in := "\ufeff First Name ,Email,Phone\n" +
		"ann,ANN@ACME.COM,5551234567\n" +
		"\n" +
		" , ,\n" +
		"\"Lee, Bob\",bob@gmail.com\n"

	table, err := ReadCSV(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"First Name", "Email", "Phone"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, map[string]string{"First Name": "ann", "Email": "ANN@ACME.COM", "Phone": "5551234567"}, table.Rows[0])
	assert.Equal(t, map[string]string{"First Name": "Lee, Bob", "Email": "bob@gmail.com"}, table.Rows[1])
}

func TestReadCSV_Empty(t *testing.T) {
	table, err := ReadCSV(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, table.Headers)
	assert.Empty(t, table.Rows)
}

func TestReadCSV_Malformed(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader("a,b\n\"x\"y,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: read row")
}

func TestReadCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadCSV(ctx, strings.NewReader("a,b\n1,2\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeHeaders(t *testing.T) {
	got := normalizeHeaders([]string{" email ", "email", "", "Email", "email"})
	assert.Equal(t, []string{"email", "email_1", "column_3", "Email", "email_2"}, got)
}

func TestBuildTable_ExtraCellsDropped(t *testing.T) {
	table := buildTable([][]string{{"a"}, {"1", "2", "3"}})
	assert.Equal(t, []map[string]string{{"a": "1"}}, table.Rows)
}

func exportRows() []model.Row {
	return []model.Row{
		{Data: map[string]string{"name": "Ann Lee", "email": "ann@acme.com"}},
		{Data: map[string]string{"name": "Ann Lee", "email": "ann@acme.com"}, IsDuplicate: true},
		{Data: map[string]string{"name": "Bob, Jr."}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []string{"name", "email"}, exportRows(), ExportOptions{SkipDuplicates: true}))
	assert.Equal(t, "name,email\nAnn Lee,ann@acme.com\n\"Bob, Jr.\",\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, []string{"name"}, exportRows(), ExportOptions{}))
	assert.Equal(t, "name\nAnn Lee\nAnn Lee\n\"Bob, Jr.\"\n", buf.String())
}

func TestCSVFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteFile(path, []string{"name", "email"}, exportRows(), ExportOptions{}))

	table, err := ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, table.Headers)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Bob, Jr.", table.Rows[2]["name"])
	assert.Equal(t, "", table.Rows[2]["email"])
}

func TestXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteFile(path, []string{"name", "email"}, exportRows(), ExportOptions{SkipDuplicates: true}))

	table, err := ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "ann@acme.com", table.Rows[0]["email"])
	assert.Equal(t, "Bob, Jr.", table.Rows[1]["name"])
}

func TestReadXLSX_FirstSheetOnly(t *testing.T) {
	f := xlsx.NewFile()
	first, err := f.AddSheet("Leads")
	require.NoError(t, err)
	addRow(first, []string{" Company ", "Website"})
	addRow(first, []string{"Acme Golf", "acmegolf.com"})
	second, err := f.AddSheet("Notes")
	require.NoError(t, err)
	addRow(second, []string{"ignored"})

	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, f.Save(path))

	table, err := ReadXLSX(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Company", "Website"}, table.Headers)
	assert.Equal(t, []map[string]string{{"Company": "Acme Golf", "Website": "acmegolf.com"}}, table.Rows)
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))
	_, err := ReadXLSX(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open file")
}

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("contacts.CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = DetectFormat("/tmp/contacts.xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = DetectFormat("contacts.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadFile(context.Background(), "contacts.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.ErrorIs(t, WriteFile("contacts.txt", nil, nil, ExportOptions{}), ErrUnsupportedFormat)
}
