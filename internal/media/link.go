// Package media turns an application's video link into a local audio
// artifact ready for transcription.
package media

import (
	"regexp"
	"strings"

	"github.com/fpang/pitch-scorer/internal/apperr"
)

var driveFileIDPattern = regexp.MustCompile(`(/d/|id=)([a-zA-Z0-9_-]+)`)

// DriveFileID extracts the file id from a Google Drive sharing link. Links
// to any other host are rejected.
func DriveFileID(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", apperr.Mark(apperr.New("video link is empty"), apperr.ErrMediaAcquisition)
	}
	if !strings.Contains(link, "drive.google.com") {
		return "", apperr.Mark(apperr.Newf("unsupported video link %q: only Google Drive links are accepted", link), apperr.ErrMediaAcquisition)
	}
	m := driveFileIDPattern.FindStringSubmatch(link)
	if m == nil {
		return "", apperr.Mark(apperr.Newf("no file id in Drive link %q", link), apperr.ErrMediaAcquisition)
	}
	return m[2], nil
}
