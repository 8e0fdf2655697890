package localization_test

import (
	"testing"
	"testing/fstest"

	"meetroom/backend/internal/localization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalizer_Bundled(t *testing.T) {
	l, err := localization.NewLocalizer()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"en", "uk"}, l.Languages())
	assert.Equal(t,
		"Welcome to the meeting room: abcde-12345. You can use the chat to ask Gemini questions with real-time Google Search and Maps data.",
		l.Format("en", localization.KeyWelcome, "abcde-12345"))
	assert.Equal(t, "I couldn't generate a text response.", l.GetString("uk", localization.KeyEmptyReply), "missing uk key falls back to en")
}

func TestGetString_Fallbacks(t *testing.T) {
	fsys := fstest.MapFS{
		"en.json":    {Data: []byte(`{"hello":"Hello","only.en":"English"}`)},
		"uk.json":    {Data: []byte(`{"hello":"Привіт"}`)},
		"README.txt": {Data: []byte("ignored")},
	}
	l, err := localization.NewLocalizerFS(fsys)
	require.NoError(t, err)

	tests := []struct {
		name, lang, key, want string
	}{
		{name: "direct hit", lang: "uk", key: "hello", want: "Привіт"},
		{name: "english fallback", lang: "uk", key: "only.en", want: "English"},
		{name: "unknown language", lang: "fr", key: "hello", want: "Hello"},
		{name: "unknown key", lang: "en", key: "nope", want: "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.GetString(tt.lang, tt.key))
		})
	}
}

func TestNewLocalizerFS_BadJSON(t *testing.T) {
	_, err := localization.NewLocalizerFS(fstest.MapFS{"en.json": {Data: []byte("{")}})
	assert.Error(t, err)
}
