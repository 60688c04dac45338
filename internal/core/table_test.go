package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_RequireListsEveryMissingColumn(t *testing.T) {
	tbl := NewTable([]string{"note"}, nil)
	err := tbl.Require(ColumnAccount, ColumnTags)

	var mc *MissingColumnsError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, []string{"account", "tags"}, mc.Missing)
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.NoError(t, NewTable([]string{"tags", "account"}, nil).Require(ColumnAccount, ColumnTags))
}

func TestTable_ColumnNamesAreExact(t *testing.T) {
	tbl := NewTable([]string{"Account", "tags "}, nil)
	assert.Error(t, tbl.Require(ColumnAccount, ColumnTags))
}

func TestTable_WithColumnAppendsOrOverwrites(t *testing.T) {
	tbl := NewTable([]string{"a", "b"}, [][]string{{"1", "2"}, {"3"}})
	assert.Equal(t, []string{"3", ""}, tbl.Rows[1], "short rows are padded")

	appended := tbl.WithColumn("c", []string{"x", "y"})
	assert.Equal(t, []string{"a", "b", "c"}, appended.Columns)
	assert.Equal(t, []string{"1", "2", "x"}, appended.Rows[0])
	assert.Equal(t, []string{"a", "b"}, tbl.Columns, "original untouched")

	overwritten := appended.WithColumn("b", []string{"p", "q"})
	assert.Equal(t, []string{"a", "b", "c"}, overwritten.Columns)
	assert.Equal(t, []string{"3", "q", "y"}, overwritten.Rows[1])
}

func TestTable_JoinColumnsAndHead(t *testing.T) {
	tbl := NewTable([]string{"account", "tags"}, [][]string{{"acct_1", "tag_2"}, {"acct_3", ""}})
	assert.Equal(t, []string{"acct_1 tag_2", "acct_3 "}, tbl.JoinColumns("account", "tags"))
	assert.Equal(t, 1, tbl.Head(1).Len())
	assert.Equal(t, 2, tbl.Head(10).Len())

	without := tbl.WithColumn("text", []string{"a", "b"}).Without("text")
	assert.Equal(t, tbl.Columns, without.Columns)
}
