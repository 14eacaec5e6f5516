package media

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Downloader streams a remote video file into w.
type Downloader interface {
	Download(ctx context.Context, fileID string, w io.Writer) (int64, error)
}

// DriveDownloader downloads files with the Drive v3 API.
type DriveDownloader struct {
	svc *drive.Service
}

// NewDriveDownloader creates a downloader. clientOpts typically carries
// service-account credentials with access to the shared videos.
func NewDriveDownloader(ctx context.Context, clientOpts ...option.ClientOption) (*DriveDownloader, error) {
	clientOpts = append(clientOpts, option.WithScopes(drive.DriveReadonlyScope))
	svc, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveDownloader{svc: svc}, nil
}

// Download implements Downloader.
func (d *DriveDownloader) Download(ctx context.Context, fileID string, w io.Writer) (int64, error) {
	meta, err := d.svc.Files.Get(fileID).
		Fields("name, mimeType, size").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("drive files.get %s: %w", fileID, err)
	}
	log.Debug().
		Str("fileId", fileID).
		Str("name", meta.Name).
		Str("mimeType", meta.MimeType).
		Int64("size", meta.Size).
		Msg("Downloading video from Drive")

	start := time.Now()
	resp, err := d.svc.Files.Get(fileID).
		SupportsAllDrives(true).
		Context(ctx).
		Download()
	if err != nil {
		return 0, fmt.Errorf("drive download %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("drive download %s: %w", fileID, err)
	}
	log.Info().
		Str("fileId", fileID).
		Int64("bytes", n).
		Dur("elapsed", time.Since(start)).
		Msg("Video downloaded")
	return n, nil
}
