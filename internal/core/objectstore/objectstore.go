package objectstore

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// AssetType classifies a stored object by its key's file extension.
type AssetType string

const (
	AssetImage AssetType = "image"
	AssetVideo AssetType = "video"
	AssetAudio AssetType = "audio"
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}
var videoExts = map[string]bool{".mp4": true, ".mov": true, ".avi": true, ".webm": true, ".json": true}

// AssetTypeOf infers the asset type from the key's extension. JSON payloads
// (archived scripts) count as video assets; anything unrecognized is audio.
func AssetTypeOf(key string) AssetType {
	ext := strings.ToLower(path.Ext(key))
	switch {
	case imageExts[ext]:
		return AssetImage
	case videoExts[ext]:
		return AssetVideo
	default:
		return AssetAudio
	}
}

// Asset describes one stored object.
type Asset struct {
	Bucket     string    `json:"bucket"`
	Key        string    `json:"key"`
	URL        string    `json:"url,omitempty"`
	Type       AssetType `json:"type"`
	Size       int64     `json:"size,omitempty"`
	UploadedAt time.Time `json:"uploadedAt,omitempty"`
}

// ScriptKey is the deterministic archive location for a generated script.
func ScriptKey(scriptID string) string {
	return "scripts/" + scriptID + ".json"
}

// VideoKey is the deterministic output location for a rendered video.
func VideoKey(scriptID string) string {
	return "videos/" + scriptID + ".mp4"
}

// StorageError wraps any failed object-store operation with the bucket and
// key (or prefix) it targeted.
type StorageError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
