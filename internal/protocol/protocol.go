package protocol

import "strings"

// ClientInfo is sent with logon and identifies this client build to the server.
const ClientInfo = "LiquidSandsClient_v0.6.6"

// Request types (the "type:" header).
const (
	TypeGetClients   = "getclients"
	TypeLogon        = "logon"
	TypeGetInfo      = "getinfo"
	TypeGetData      = "getdata"
	TypeSendGameData = "sendgamedata"
)

// Payload categories.
const (
	CategoryInfo    = "info"
	CategoryOption  = "option"
	CategoryRequest = "request"
	CategoryAction  = "action"
	CategoryReply   = "reply"
	CategoryChat    = "chat"
)

// Reply framing tokens.
const (
	HeaderOK    = "status:ok"
	HeaderError = "status:error"
	EndMarker   = "end:end"
)

const allowedNameChars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Sanitize replaces every character the server does not accept in names with '_'.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(allowedNameChars, r) {
			return r
		}
		return '_'
	}, s)
}
