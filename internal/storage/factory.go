// Package storage selects and builds the configured storage provider.
package storage

import (
	"context"
	"fmt"

	gcsclient "cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/VivekAsole/video-processing-backend/internal/adapters/storage/gcs"
	"github.com/VivekAsole/video-processing-backend/internal/adapters/storage/gdrive"
	"github.com/VivekAsole/video-processing-backend/internal/adapters/storage/localfs"
	"github.com/VivekAsole/video-processing-backend/internal/config"
)

// NewProvider builds the provider named by cfg.StorageProvider.
func NewProvider(ctx context.Context, cfg config.Config) (Provider, error) {
	switch cfg.StorageProvider {
	case "", "localfs":
		return localfs.New(cfg.StorageLocalRoot), nil
	case "gdrive":
		return newGDriveProvider(ctx, cfg)
	case "gcs":
		return newGCSProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.StorageProvider)
	}
}

func newGDriveProvider(ctx context.Context, cfg config.Config) (Provider, error) {
	if err := cfg.Require("GDRIVE_CLIENT_ID", "GDRIVE_CLIENT_SECRET", "GDRIVE_REFRESH_TOKEN"); err != nil {
		return nil, err
	}

	conf := &oauth2.Config{
		ClientID:     cfg.GDriveClientID,
		ClientSecret: cfg.GDriveClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}
	httpClient := conf.Client(ctx, &oauth2.Token{RefreshToken: cfg.GDriveRefreshToken})

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("gdrive service: %w", err)
	}
	return gdrive.NewClient(srv, cfg.GDriveFolderID), nil
}

// newGCSProvider uses GCS_CREDENTIALS_FILE when set and Application Default
// Credentials otherwise.
func newGCSProvider(ctx context.Context, cfg config.Config) (Provider, error) {
	if err := cfg.Require("GCS_BUCKET"); err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}
	client, err := gcsclient.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return gcs.New(client, cfg.GCSBucket, cfg.GCSPrefix), nil
}
