package collector

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStockList_SymbolColumn(t *testing.T) {
	in := "Company,Symbol\nInfosys,INFY.NS\nTCS,TCS.NS\n\nInfosys again,INFY.NS\n"
	symbols, err := ParseStockList(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY.NS", "TCS.NS"}, symbols)
}

func TestReadStockList_FirstColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v40.csv")
	require.NoError(t, os.WriteFile(path, []byte("# v40\nINFY.NS,\n HDFCBANK.NS\nTCS.NS\n"), 0o644))

	symbols, err := ReadStockList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY.NS", "HDFCBANK.NS", "TCS.NS"}, symbols)
}

func TestReadStockList_Missing(t *testing.T) {
	_, err := ReadStockList(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestDiffUniverse(t *testing.T) {
	in := "old_list,old,new_list\n" +
		"Infosys,INFY.NS,TCS\n" +
		"TCS,TCS.NS,Wipro\n" +
		"Reliance,RELIANCE.NS,Infosys,\n"

	d, err := DiffUniverse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS.NS", MissingSymbol, "INFY.NS"}, d.NewSymbols)
	assert.Equal(t, []string{"Reliance"}, d.Dropped)

	var buf bytes.Buffer
	require.NoError(t, d.Write(&buf))
	assert.Equal(t, "Symbols for new list:\nTCS.NS\nnan\nINFY.NS\n\nItems in old list but not in new list:\nReliance\n", buf.String())
}

func TestDiffUniverse_BadHeader(t *testing.T) {
	_, err := DiffUniverse(strings.NewReader("a,b\n1,2\n"))
	assert.Error(t, err)
}
