package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannels_MissingFileIsEmptyCatalog(t *testing.T) {
	svc := NewService(filepath.Join(t.TempDir(), "channels.json"))

	channels, err := svc.Channels()
	require.NoError(t, err)
	assert.Empty(t, channels)
}

func TestChannels_LoadsCatalog(t *testing.T) {
	file := filepath.Join(t.TempDir(), "channels.json")
	payload := `[
		{"id": "main", "name": "Main Channel", "emoji": "🎬", "url": "rtmp://a.rtmp.youtube.com/live2", "streamKey": "abcd-1234"},
		{"id": "backup", "name": "Backup", "emoji": "🎥", "url": "rtmp://b.rtmp.youtube.com/live2", "streamKey": "efgh-5678"}
	]`
	require.NoError(t, os.WriteFile(file, []byte(payload), 0644))

	channels, err := NewService(file).Channels()
	require.NoError(t, err)
	require.Len(t, channels, 2)

	assert.Equal(t, "main", channels[0].ID)
	assert.Equal(t, "Main Channel", channels[0].Name)
	assert.Equal(t, "rtmp://a.rtmp.youtube.com/live2", channels[0].URL)
	assert.Equal(t, "abcd-1234", channels[0].StreamKey)
}

func TestChannels_MalformedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "channels.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0644))

	_, err := NewService(file).Channels()
	assert.Error(t, err)
}
