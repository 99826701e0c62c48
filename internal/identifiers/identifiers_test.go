package identifiers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"
)

const xmlIDs = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<array>
	<string>com.example.gold</string>
	<string>com.example.silver</string>
	<string></string>
	<string>com.example.gold</string>
	<string>com.example.bronze</string>
</array>
</plist>`

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoad_XML(t *testing.T) {
	ids, err := Load(writeFile(t, []byte(xmlIDs)))
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.gold", "com.example.silver", "com.example.bronze"}, ids)
}

func TestLoad_Binary(t *testing.T) {
	data, err := plist.Marshal([]string{"a", "b"}, plist.BinaryFormat)
	require.NoError(t, err)

	ids, err := Load(writeFile(t, data))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.plist"))
	assert.ErrorIs(t, err, ErrResourceNotFound)

	empty, err := plist.Marshal([]string{"", "  "}, plist.XMLFormat)
	require.NoError(t, err)
	_, err = Load(writeFile(t, empty))
	assert.ErrorIs(t, err, ErrEmptyResource)

	_, err = Load(writeFile(t, []byte("<plist><dict><key>a</key></dict>")))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyResource)
}
