package helpers

import (
	"context"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cockroachdb/errors"
)

const VenueFolder = "venues"

// ErrUnsupportedImage rejects entries that are neither hosted URLs nor inline
// image data. The uploader treats any other string as a local file path.
var ErrUnsupportedImage = errors.New("images must be http(s) URLs or base64 data:image URIs")

type UploadedImage struct {
	URL      string
	PublicID string
}

// ImageStore is the object storage for venue photos.
type ImageStore interface {
	Upload(ctx context.Context, file string) (UploadedImage, error)
	Delete(ctx context.Context, publicIDs []string) error
}

type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(cld *cloudinary.Cloudinary, folder string) *CloudinaryStore {
	if folder == "" {
		folder = VenueFolder
	}
	return &CloudinaryStore{cld: cld, folder: folder}
}

func (s *CloudinaryStore) Upload(ctx context.Context, file string) (UploadedImage, error) {
	if !IsImageData(file) {
		return UploadedImage{}, ErrUnsupportedImage
	}
	res, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder: s.folder,
		Tags:   []string{"venuely"},
	})
	if err != nil {
		return UploadedImage{}, errors.Wrap(err, "upload image")
	}
	if res.Error.Message != "" {
		return UploadedImage{}, errors.Newf("upload image: %s", res.Error.Message)
	}
	return UploadedImage{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, publicIDs []string) error {
	var errs error
	for _, id := range publicIDs {
		if id == "" {
			continue
		}
		if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: id}); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "destroy %s", id))
		}
	}
	return errs
}

// IsHostedURL reports whether an image entry already points at hosted
// storage and needs no upload.
func IsHostedURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

// IsImageData reports whether s is an inline base64 image,
// data:image/<type>;base64,<payload>.
func IsImageData(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(strings.ToLower(s), "data:image/") && api.IsBase64Data(s)
}

// UploadImages uploads every inline image and passes hosted URLs through.
// Entries are checked before anything is sent; on an upload failure the
// images uploaded so far are removed again.
func UploadImages(ctx context.Context, store ImageStore, images []string) ([]UploadedImage, []string, error) {
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img != "" && !IsHostedURL(img) && !IsImageData(img) {
			return nil, nil, ErrUnsupportedImage
		}
	}

	out := make([]UploadedImage, 0, len(images))
	var uploaded []string
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if IsHostedURL(img) {
			out = append(out, UploadedImage{URL: img})
			continue
		}
		if store == nil {
			return nil, nil, errors.New("image upload is not configured")
		}
		res, err := store.Upload(ctx, img)
		if err != nil {
			_ = store.Delete(ctx, uploaded)
			return nil, nil, err
		}
		uploaded = append(uploaded, res.PublicID)
		out = append(out, res)
	}
	return out, uploaded, nil
}
