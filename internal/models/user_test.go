package models_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"meetroom/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewUser_GeneratesUUID verifies that a fresh user gets a valid UUID.
func TestNewUser_GeneratesUUID(t *testing.T) {
	// Act
	user := models.NewUser("Ada", "ada@example.com")

	// Assert
	parsed, err := uuid.Parse(user.ID)
	assert.NoError(t, err, "User ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsed)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
}

// TestNewUser_NameDefaultsToLocalPart covers login without a display name.
func TestNewUser_NameDefaultsToLocalPart(t *testing.T) {
	user := models.NewUser("  ", "grace.hopper@navy.mil")

	assert.Equal(t, "grace.hopper", user.Name)
}

// TestNewUser_MultipleUsers verifies unique IDs across users.
func TestNewUser_MultipleUsers(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		user := models.NewUser("", "a@b.com")
		assert.NotContains(t, seen, user.ID, "Each user should have a unique ID")
		seen[user.ID] = true
	}
	assert.Len(t, seen, 5)
}

func TestUser_Initial(t *testing.T) {
	assert.Equal(t, "Ö", models.User{Name: "ömer"}.Initial())
	assert.Equal(t, "?", models.User{}.Initial())
}

// TestChatMessageJSONTags pins the wire names the browser shell relies on.
func TestChatMessageJSONTags(t *testing.T) {
	msgType := reflect.TypeOf(models.ChatMessage{})

	expected := map[string]string{
		"ID":                "id",
		"Sender":            "sender",
		"SenderName":        "senderName",
		"Text":              "text",
		"Timestamp":         "timestamp",
		"GroundingMetadata": "groundingMetadata,omitempty",
		"IsMapResponse":     "isMapResponse,omitempty",
	}
	for field, tag := range expected {
		f, found := msgType.FieldByName(field)
		assert.True(t, found, "%s field should exist", field)
		assert.Equal(t, tag, f.Tag.Get("json"), "json tag of %s", field)
	}
}

func TestParseAIMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    models.AIMode
		wantErr bool
	}{
		{name: "empty defaults to search", input: "", want: models.ModeSearch},
		{name: "search", input: "search", want: models.ModeSearch},
		{name: "maps mixed case", input: " Maps ", want: models.ModeMaps},
		{name: "unknown", input: "images", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := models.ParseAIMode(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrValidation)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroundingChunk_Kind(t *testing.T) {
	web := &models.WebSource{URI: "https://go.dev/doc", Title: "Go docs"}
	maps := &models.MapsSource{URI: "https://maps.google.com/?cid=1", Title: "Blue Bottle"}

	assert.Equal(t, models.ChunkWeb, models.GroundingChunk{Web: web}.Kind())
	assert.Equal(t, models.ChunkMaps, models.GroundingChunk{Maps: maps}.Kind())
	assert.Equal(t, models.ChunkInvalid, models.GroundingChunk{}.Kind(), "neither side populated")
	assert.Equal(t, models.ChunkInvalid, models.GroundingChunk{Web: web, Maps: maps}.Kind(), "both sides populated")
}

func TestGroundingChunk_RenderHelpers(t *testing.T) {
	web := models.GroundingChunk{Web: &models.WebSource{URI: "https://www.example.org/a/b?q=1", Title: "Example"}}
	assert.Equal(t, "Example", web.Title())
	assert.Equal(t, "www.example.org", web.Host())
	_, ok := web.FirstReviewSnippet()
	assert.False(t, ok)

	place := models.GroundingChunk{Maps: &models.MapsSource{
		URI:   "https://maps.google.com/?cid=42",
		Title: "Sightglass",
		PlaceAnswerSources: models.PlaceAnswerSources{
			{ReviewSnippets: []models.ReviewSnippet{{Content: "Great pour-over"}, {Content: "Loud"}}},
		},
	}}
	snippet, ok := place.FirstReviewSnippet()
	assert.True(t, ok)
	assert.Equal(t, "Great pour-over", snippet)
	assert.Equal(t, "https://maps.google.com/?cid=42", place.URI())
}

// TestPlaceAnswerSources_DecodesBothShapes accepts a list and a bare object.
func TestPlaceAnswerSources_DecodesBothShapes(t *testing.T) {
	list := `{"uri":"u","title":"t","placeAnswerSources":[{"reviewSnippets":[{"content":"a"}]}]}`
	object := `{"uri":"u","title":"t","placeAnswerSources":{"reviewSnippets":[{"content":"b"}]}}`

	var fromList, fromObject models.MapsSource
	require.NoError(t, json.Unmarshal([]byte(list), &fromList))
	require.NoError(t, json.Unmarshal([]byte(object), &fromObject))

	require.Len(t, fromList.PlaceAnswerSources, 1)
	require.Len(t, fromObject.PlaceAnswerSources, 1)
	assert.Equal(t, "a", fromList.PlaceAnswerSources[0].ReviewSnippets[0].Content)
	assert.Equal(t, "b", fromObject.PlaceAnswerSources[0].ReviewSnippets[0].Content)
}

func TestGroundingMetadata_Sanitized(t *testing.T) {
	meta := &models.GroundingMetadata{GroundingChunks: []models.GroundingChunk{
		{},
		{Web: &models.WebSource{URI: "https://a"}, Maps: &models.MapsSource{URI: "https://b"}},
		{Maps: &models.MapsSource{URI: "https://c", Title: "C"}},
	}}

	clean := meta.Sanitized()

	require.NotNil(t, clean)
	assert.Len(t, clean.GroundingChunks, 1)
	assert.True(t, clean.HasKind(models.ChunkMaps))
	assert.False(t, clean.HasKind(models.ChunkWeb))
	assert.Len(t, meta.GroundingChunks, 3, "original must not be mutated")

	empty := &models.GroundingMetadata{GroundingChunks: []models.GroundingChunk{{}}}
	assert.Nil(t, empty.Sanitized())
	assert.Nil(t, (*models.GroundingMetadata)(nil).Sanitized())
}

func TestTypedErrors_MatchSentinels(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	assert.ErrorIs(t, &models.ValidationError{Field: "email"}, models.ErrValidation)
	assert.ErrorIs(t, &models.MediaAcquisitionError{Kind: models.MediaPermissionDenied, Source: "user"}, models.ErrMediaAcquisition)
	assert.ErrorIs(t, &models.PresenceError{Op: "join", RoomID: "r", Err: cause}, models.ErrPresence)
	assert.ErrorIs(t, &models.PresenceError{Op: "join", RoomID: "r", Err: cause}, cause)
	assert.ErrorIs(t, &models.AssistantError{Reason: "timeout"}, models.ErrAssistant)

	assert.Equal(t, "email is required", (&models.ValidationError{Field: "email"}).Error())
	assert.Equal(t, models.MediaNotFound, models.ParseMediaFailure("bogus"))
	assert.Equal(t, models.MediaUserCancelled, models.ParseMediaFailure("user_cancelled"))
}

func TestWireMessage_RoundTripPayload(t *testing.T) {
	msg, err := models.NewWireMessage(models.WireGranted, "req-1", models.GrantedStream{
		StreamID: "s1",
		Tracks:   []models.GrantedTrack{{ID: "a1", Kind: "audio"}},
	})
	require.NoError(t, err)

	var granted models.GrantedStream
	require.NoError(t, msg.Decode(&granted))
	assert.Equal(t, "s1", granted.StreamID)
	assert.Equal(t, "req-1", msg.RequestID)

	var denied models.DeniedRequest
	assert.NoError(t, models.WireMessage{Type: models.WireDenied}.Decode(&denied), "empty payload decodes as an empty object")
}

// BenchmarkNewUser measures UUID generation performance.
func BenchmarkNewUser(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = models.NewUser("", "bench@example.com")
	}
}
