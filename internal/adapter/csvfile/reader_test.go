package csvfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/threat-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile_NotFound(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReadFile_Exists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	data, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("a,b\n1,2\n"), data)
}

func TestParse_CommaDelimited(t *testing.T) {
	header, rows, err := Parse([]byte(" Country ,Year\nUSA,2020\nJapan,2021\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"Country", "Year"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"USA", "2020"}, rows[0])
}

func TestParse_SemicolonDelimited(t *testing.T) {
	header, rows, err := Parse([]byte("Country;Year\nGermany;2018\n"), ';')
	require.NoError(t, err)
	assert.Equal(t, []string{"Country", "Year"}, header)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Germany", "2018"}, rows[0])
}

func TestParse_ShortRowAllowed(t *testing.T) {
	_, rows, err := Parse([]byte("a,b,c\n1,2\n"), ',')
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"1", "2"}, rows[0])
}

func TestParse_EmptyFile(t *testing.T) {
	_, _, err := Parse(nil, ',')
	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParse_MalformedQuoting(t *testing.T) {
	_, _, err := Parse([]byte("a,b\n\"broken,2\n"), ',')
	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
}
