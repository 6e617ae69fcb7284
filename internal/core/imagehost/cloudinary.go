// Package imagehost 头像等图片托管（Cloudinary）。
package imagehost

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"carpool/internal/domain"
)

// Host 上传返回 https 地址与删除用的引用
type Host interface {
	Upload(ctx context.Context, ownerID string, data []byte) (secureURL, ref string, err error)
	Destroy(ctx context.Context, ref string) error
}

var ErrDisabled = fmt.Errorf("%w: image hosting is not configured", domain.ErrInvalidOperation)

type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, ownerID string, data []byte) (string, string, error) {
	overwrite := true
	res, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:    c.folder,
		PublicID:  ownerID,
		Overwrite: &overwrite,
	})
	if err != nil {
		return "", "", fmt.Errorf("upload image: %w", err)
	}
	if res.Error.Message != "" {
		return "", "", fmt.Errorf("upload image: %s", res.Error.Message)
	}
	return res.SecureURL, res.PublicID, nil
}

func (c *Cloudinary) Destroy(ctx context.Context, ref string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: ref})
	if err != nil {
		return fmt.Errorf("destroy image %s: %w", ref, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("destroy image %s: %s", ref, res.Error.Message)
	}
	return nil
}

// Disabled 未配置时占位
type Disabled struct{}

func (Disabled) Upload(context.Context, string, []byte) (string, string, error) {
	return "", "", ErrDisabled
}
func (Disabled) Destroy(context.Context, string) error { return nil }
