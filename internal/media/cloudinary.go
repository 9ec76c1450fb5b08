package media

import (
	"context"
	"errors"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryTransport stores images as cloudinary assets. The public id is
// the storage path.
type CloudinaryTransport struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryTransport(cloudURL string) (*CloudinaryTransport, error) {
	cld, err := cloudinary.NewFromURL(cloudURL)
	if err != nil {
		return nil, err
	}
	return &CloudinaryTransport{cld: cld}, nil
}

func (t *CloudinaryTransport) Upload(ctx context.Context, folder, name string, body io.Reader) (string, error) {
	res, err := t.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		Folder:    folder,
		PublicID:  name,
		Overwrite: api.Bool(false),
		Tags:      []string{"eyewear"},
	})
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", errors.New(res.Error.Message)
	}
	return res.PublicID, nil
}

func (t *CloudinaryTransport) SignedURL(path string) (string, error) {
	img, err := t.cld.Image(path)
	if err != nil {
		return "", err
	}
	img.Config.URL.Secure = true
	img.Config.URL.SignURL = true
	return img.String()
}
