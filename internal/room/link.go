package room

import (
	"net/url"
	"strings"

	"meetroom/backend/internal/config"
	"meetroom/backend/internal/models"

	nanoid "github.com/jaevor/go-nanoid"
)

var roomToken func() string

func init() {
	gen, err := nanoid.CustomASCII(config.RoomTokenAlphabet, config.RoomTokenLength)
	if err != nil {
		panic(err)
	}
	roomToken = gen
}

// NewRoomID returns two random base-36 tokens joined by a hyphen, e.g.
// "ab3de-x92kq". Uniqueness is not checked anywhere.
func NewRoomID() string {
	return roomToken() + "-" + roomToken()
}

// Fragment returns the address fragment that carries roomID.
func Fragment(roomID string) string {
	return config.RoomFragmentPrefix + roomID
}

// Link returns the absolute room link for baseURL.
func Link(baseURL, roomID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", &models.ValidationError{Field: "baseUrl", Reason: err.Error()}
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String() + Fragment(roomID), nil
}

// ParseRoomInput accepts a bare room code or a pasted link containing
// "#/room/<id>" and returns the room id verbatim.
func ParseRoomInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if _, after, found := strings.Cut(input, config.RoomFragmentPrefix); found {
		input = after
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return "", &models.ValidationError{Field: "code"}
	}
	return input, nil
}
