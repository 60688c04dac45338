package tabular

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetlens/internal/core"
)

func TestReadPadsShortRowsAndTrimsHeader(t *testing.T) {
	tbl, err := Read(strings.NewReader(" account ,tags,amount\nCash,Food,10\nBank\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"account", "tags", "amount"}, tbl.Columns)
	assert.Equal(t, [][]string{{"Cash", "Food", "10"}, {"Bank", "", ""}}, tbl.Rows)
}

func TestReadStripsUTF8BOM(t *testing.T) {
	tbl, err := ReadBytes([]byte("\xef\xbb\xbfaccount,tags\nCash,Food\n"))
	require.NoError(t, err)
	assert.True(t, tbl.HasColumn(core.ColumnAccount))
}

func TestReadRejectsWideRows(t *testing.T) {
	_, err := Read(strings.NewReader("a,b\n1,2,3\n"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestReadHeaderOnly(t *testing.T) {
	tbl, err := Read(strings.NewReader("account,tags\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestReadQuotedUnicode(t *testing.T) {
	tbl, err := Read(strings.NewReader("account,tags\n\"Cash, wallet\",Café\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Cash, wallet", "Café"}, tbl.Rows[0])
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteRoundTripKeepsOrder(t *testing.T) {
	in := core.NewTable([]string{"account", "tags", "Predicted_Category"}, [][]string{
		{"Cash", "Food", "Food"},
		{"Bank, main", "Rent", "Housing"},
	})
	data, err := Bytes(in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "account,tags,Predicted_Category\n"))

	out, err := ReadBytes(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
