package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	assert.Error(t, err)
}

func TestGetOptionalText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetOptionalText(rdr("\n"), "País", "AR", &out)
	require.NoError(t, err)
	assert.Equal(t, "AR", got)
	assert.Contains(t, out.String(), "País [AR]")

	got, err = GetOptionalText(rdr("UY\n"), "País", "AR", &out)
	require.NoError(t, err)
	assert.Equal(t, "UY", got)
}

func TestGetFloat_RetriesUntilValid(t *testing.T) {
	var out bytes.Buffer
	got, err := GetFloat(rdr("abc\n-34,6\n"), "Latitud", &out)
	require.NoError(t, err)
	assert.Equal(t, -34.6, got)
	assert.Contains(t, out.String(), "Número inválido")
}

func TestGetMultiline(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultiline(rdr("a\nb\n\n\n"), "Comentario", &out)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", got)

	got, err = GetMultiline(rdr("a\r\nb"), "Comentario", &out)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", got)
}

func TestGetPassword(t *testing.T) {
	oldRead, oldTerm := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = oldRead, oldTerm })

	t.Run("terminal", func(t *testing.T) {
		isTerminal = func(int) bool { return true }
		readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
		var out bytes.Buffer
		pw, err := GetPassword(rdr(""), &out)
		require.NoError(t, err)
		assert.Equal(t, []byte("s3cret"), pw)
	})

	t.Run("terminal error", func(t *testing.T) {
		isTerminal = func(int) bool { return true }
		readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
		var out bytes.Buffer
		_, err := GetPassword(rdr(""), &out)
		assert.Error(t, err)
	})

	t.Run("piped", func(t *testing.T) {
		isTerminal = func(int) bool { return false }
		var out bytes.Buffer
		pw, err := GetPassword(rdr("piped-pw\n"), &out)
		require.NoError(t, err)
		assert.Equal(t, []byte("piped-pw"), pw)
	})
}
