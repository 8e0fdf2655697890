package models

import "time"

// RoomSession is the membership of the local user in one room. It lives from
// navigation into the room until the user leaves or navigates away.
type RoomSession struct {
	RoomID    string    `json:"roomId"`
	LocalUser User      `json:"localUser"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// ParticipantRecord is what gets registered with the roster for every member.
type ParticipantRecord struct {
	Name     string `json:"name"`
	JoinedAt int64  `json:"joinedAt"` // unix millis
}

// MediaState is a read-only snapshot of a media session.
type MediaState struct {
	HasLocalStream bool   `json:"hasLocalStream"`
	LocalStreamID  string `json:"localStreamId,omitempty"`
	ScreenStreamID string `json:"screenStreamId,omitempty"`
	MicEnabled     bool   `json:"micEnabled"`
	CameraEnabled  bool   `json:"cameraEnabled"`
	ScreenSharing  bool   `json:"screenSharing"`
	Terminated     bool   `json:"terminated"`
	// Warning is the user-visible notice left by a failed capture request.
	Warning string `json:"warning,omitempty"`
}
