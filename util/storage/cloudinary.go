package storage

import (
	"context"
	"io"

	"github.com/bwise1/civic_reports/config"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
)

// ReportImagesFolder is where report photos are stored.
const ReportImagesFolder = "reports"

// ImageUploader stores an image and returns a retrievable URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder string) (string, error)
}

type Cloudinary struct {
	CLD *cloudinary.Cloudinary
}

func NewCloudinary(cfg *config.Config) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, errors.Wrap(err, "initialize cloudinary")
	}
	cld.Config.URL.Secure = true

	return &Cloudinary{CLD: cld}, nil
}

func (c *Cloudinary) UploadImage(ctx context.Context, file io.Reader, folder string) (string, error) {
	resp, err := c.CLD.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", errors.Wrap(err, "upload image")
	}
	if resp.Error.Message != "" {
		return "", errors.Errorf("upload image: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}
