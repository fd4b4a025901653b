// Copyright (c) 2025 BVK Chaitanya

// Package gobs holds the gob-encoded types persisted in the key-value
// store. Fields must stay backward compatible; remove nothing and
// only append new fields.
package gobs

// BotState holds the durable state of a chat-bot front-end.
type BotState struct {
	// UserChatIDMap maps an authorized username to the chat id of
	// the last conversation with that user. Chat ids are required
	// to initiate outgoing notifications.
	UserChatIDMap map[string]int64
}
