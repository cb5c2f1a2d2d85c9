// Package images provides cover image decoding, processing, and storage.
package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"

	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/bookshareapp/bookshare-server/internal/domain"
)

// maxCoverBytes caps uploads at 8 MiB. Covers are small; anything larger
// is either a mistake or abuse.
const maxCoverBytes = 8 << 20

// Processor decodes uploaded cover images and stores them.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger,
	}
}

// Process validates and stores an uploaded cover image.
// It decodes the image to verify the format, records dimensions, computes
// the BlurHash placeholder, and writes the original bytes to storage.
func (p *Processor) Process(data []byte) (*domain.CoverImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image data cannot be empty")
	}
	if len(data) > maxCoverBytes {
		return nil, fmt.Errorf("image exceeds maximum size of %d bytes", maxCoverBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()

	hash, err := ComputeBlurHash(img)
	if err != nil {
		// A missing placeholder is not worth failing the upload over.
		p.logger.Warn("failed to compute blurhash", "error", err)
		hash = ""
	}

	path, err := p.storage.Save(data, format)
	if err != nil {
		return nil, fmt.Errorf("save cover: %w", err)
	}

	p.logger.Debug("processed cover image",
		"path", path,
		"format", format,
		"width", bounds.Dx(),
		"height", bounds.Dy(),
		"size", len(data),
	)

	return &domain.CoverImage{
		Path:     path,
		Format:   format,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		BlurHash: hash,
	}, nil
}

// Remove deletes a previously stored cover. Removing a missing cover is
// not an error.
func (p *Processor) Remove(cover *domain.CoverImage) error {
	if cover == nil {
		return nil
	}
	return p.storage.Delete(cover.Path)
}
