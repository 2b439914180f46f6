package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// MaxImageSize bounds recipe, step and avatar images.
const MaxImageSize = 10 << 20

// ImageUploader stores an uploaded image and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error)
}

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryService{cld: cld}, nil
}

// UploadImage checks the file is an image within MaxImageSize and uploads it.
func (s *CloudinaryService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error) {
	file, err := openImage(fileHeader)
	if err != nil {
		return "", err
	}
	defer file.Close()

	uploadResult, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	return uploadResult.SecureURL, nil
}

// openImage opens the upload after checking its size and sniffed content type.
func openImage(fileHeader *multipart.FileHeader) (multipart.File, error) {
	if fileHeader.Size > MaxImageSize {
		return nil, fmt.Errorf("%w: image larger than %d bytes", ErrInvalidUpload, MaxImageSize)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	head := make([]byte, 512)
	n, _ := file.Read(head)
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		file.Close()
		return nil, fmt.Errorf("%w: not an image", ErrInvalidUpload)
	}
	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}
	return file, nil
}
