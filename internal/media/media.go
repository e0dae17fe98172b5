// Package media uploads listing images to the CDN.
package media

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/pkg/config"
)

type Uploader interface {
	// Upload stores the image and returns its public URL.
	Upload(ctx context.Context, file io.Reader) (string, error)
}

type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
	preset string
}

func NewCloudinary(cfg config.CloudinaryConfig) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Cloudinary{cld: cld, folder: cfg.Folder, preset: cfg.UploadPreset}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, file io.Reader) (string, error) {
	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       c.folder,
		UploadPreset: c.preset,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload image: %v", domain.ErrUpstream, err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("%w: upload image: %s", domain.ErrUpstream, resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// Disabled rejects uploads. Used when no CDN credentials are configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, io.Reader) (string, error) {
	return "", fmt.Errorf("%w: image uploads are not configured", domain.ErrUpstream)
}
