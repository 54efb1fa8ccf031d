package consts

import (
	"path"
	"strings"
)

const (
	// Audio MIME types accepted on upload
	MimeWAV  = "audio/wav"
	MimeMPEG = "audio/mpeg"
	MimeMP3  = "audio/mp3"
	MimeMP4  = "audio/mp4"
	MimeWebM = "audio/webm"

	MimeFallback = "application/octet-stream"

	DefaultSource     = "upload"
	DefaultPriority   = "Important"
	DefaultTag        = "work"
	DefaultTaskStatus = "todo"

	// The model marks a structured answer with this heading
	SummaryMarker      = "Resumen"
	SummaryFallbackLen = 500

	DefaultListLimit = 20
	MaxListLimit     = 100

	MaxAudioSize = 25 * 1024 * 1024 // 25MB
)

var allowedMimeTypes = map[string]string{
	MimeWAV:  ".wav",
	MimeMPEG: ".mp3",
	MimeMP3:  ".mp3",
	MimeMP4:  ".m4a",
	MimeWebM: ".webm",
}

var extensionMimeTypes = map[string]string{
	".wav":  MimeWAV,
	".mp3":  MimeMPEG,
	".m4a":  MimeMP4,
	".webm": MimeWebM,
}

// AllowedMimeType reports whether uploads of mimeType are accepted.
func AllowedMimeType(mimeType string) bool {
	_, ok := allowedMimeTypes[mimeType]
	return ok
}

// ExtensionFor returns the file extension stored audio of mimeType gets.
func ExtensionFor(mimeType string) string {
	return allowedMimeTypes[mimeType]
}

// MimeTypeFor infers the MIME type sent to the transcriber from an audio reference.
func MimeTypeFor(ref string) string {
	if mt, ok := extensionMimeTypes[strings.ToLower(path.Ext(ref))]; ok {
		return mt
	}
	return MimeFallback
}

// AllowedMimeTypes lists the accepted upload types in a stable order.
func AllowedMimeTypes() []string {
	return []string{MimeWAV, MimeMPEG, MimeMP3, MimeMP4, MimeWebM}
}
