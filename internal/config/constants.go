package config

import "time"

const (
	// Identity
	IdentityKey = "meet.user"

	// Chat labels
	UserSenderName      = "You"
	AssistantSenderName = "Gemini"
	SystemSenderName    = "System"
	WelcomeMessageID    = "welcome"

	// Assistant profiles
	SearchModel = "gemini-3-flash-preview"
	MapsModel   = "gemini-2.5-flash"

	SystemInstruction = "You are a helpful meeting assistant. Keep your answers concise and relevant to the conversation. When using maps, provide specific locations."

	DefaultAssistantBaseURL = "https://generativelanguage.googleapis.com"
	DefaultAssistantTimeout = 20 * time.Second

	// Media
	DefaultMediaAcquireTimeout = 30 * time.Second
	DefaultSTUNURL             = "stun:stun.l.google.com:19302"

	// Room
	RoomFragmentPrefix = "#/room/"
	RoomTokenLength    = 5
	RoomTokenAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	ClockTickPeriod    = time.Second

	// Session token
	TokenIssuer = "meetroom-service"
	TokenTTL    = 72 * time.Hour
)
