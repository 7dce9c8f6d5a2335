package server

import (
	"crypto/rand"
	"strings"
)

// codeAlphabet omits characters that read ambiguously on a TV screen
// (I, O, 0, 1 and friends).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 4

func newLobbyCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return strings.Repeat("A", codeLength)
	}
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return string(buf)
}

func normalizeLobbyCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), " ", ""))
}
