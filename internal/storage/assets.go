package storage

import (
	"bytes"
	"context"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	lectureKeyPrefix = "lectures/"
	placeholderPath  = "/mock-s3/"
	defaultFilename  = "video"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Assets stores lecture videos. With a backend it uploads to object
// storage; without one it hands out placeholder locators and stores nothing.
type Assets struct {
	storage         *Storage
	placeholderBase string
	newID           func() string
}

// NewRemoteAssets stores videos in s.
func NewRemoteAssets(s *Storage) *Assets {
	return &Assets{
		storage: s,
		newID:   uuid.NewString,
	}
}

// NewPlaceholderAssets fabricates locators under baseURL. Development only.
func NewPlaceholderAssets(baseURL string) *Assets {
	return &Assets{
		placeholderBase: strings.TrimRight(baseURL, "/"),
		newID:           uuid.NewString,
	}
}

// Remote reports whether videos are stored in object storage.
func (a *Assets) Remote() bool {
	return a.storage != nil
}

// Put stores data and returns its locator.
func (a *Assets) Put(ctx context.Context, data []byte, contentType, filename string) (string, error) {
	name := a.newID() + "-" + sanitizeFilename(filename)
	if !a.Remote() {
		return a.placeholderBase + placeholderPath + name, nil
	}

	key := lectureKeyPrefix + name
	if err := a.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", err
	}
	return a.storage.ObjectURL(key), nil
}

// Delete removes the object behind locator. Locators that do not belong to
// the configured store are ignored.
func (a *Assets) Delete(ctx context.Context, locator string) error {
	if !a.Remote() {
		return nil
	}
	key, ok := a.keyFromLocator(locator)
	if !ok {
		return nil
	}
	return a.storage.Delete(ctx, key)
}

// Owns reports whether locator points into the configured remote store.
func (a *Assets) Owns(locator string) bool {
	if !a.Remote() {
		return false
	}
	_, ok := a.keyFromLocator(locator)
	return ok
}

// keyFromLocator strips the bucket URL prefix from locator's path.
func (a *Assets) keyFromLocator(locator string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(locator))
	if err != nil || u.Host == "" {
		return "", false
	}
	prefix, err := url.Parse(a.storage.ObjectURL(""))
	if err != nil {
		return "", false
	}
	if !strings.EqualFold(u.Scheme, prefix.Scheme) || !strings.EqualFold(u.Host, prefix.Host) {
		return "", false
	}
	if !strings.HasPrefix(u.Path, prefix.Path) {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, prefix.Path)
	if key == "" || path.Clean("/"+key) != "/"+key {
		return "", false
	}
	return key, true
}

func sanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	base = unsafeFilenameChars.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		return defaultFilename
	}
	return base
}
