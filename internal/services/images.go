package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"smartshop_back_end/internal/auth"
	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/storage"

	"github.com/rs/zerolog/log"
)

const MaxImageSize = 5 << 20

// extensions acceptées, indexées par type MIME détecté
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type ImageService struct {
	deps Deps
}

type UploadResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Upload vérifie le type réel du fichier (et non l'extension annoncée) puis le stocke sous <uuid><ext>
func (s *ImageService) Upload(ctx context.Context, r io.Reader, size int64) (*UploadResult, error) {
	v, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	if size > MaxImageSize {
		return nil, invalid("image trop volumineuse (5 Mo maximum)")
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("lecture de l'image: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, invalid("image trop volumineuse (5 Mo maximum)")
	}
	if len(data) == 0 {
		return nil, invalid("fichier vide")
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageTypes[contentType]
	if !ok {
		return nil, invalid("format d'image non supporté (%s)", contentType)
	}

	name := models.NewID().String() + ext
	if err := s.deps.Images.Put(ctx, name, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("user_id", v.UserID.String()).Str("filename", name).Int("size", len(data)).Msg("🖼️ Image envoyée")
	return &UploadResult{Filename: name, URL: "/images/" + name}, nil
}

// Open renvoie le flux de l'image ; l'appelant le ferme
func (s *ImageService) Open(ctx context.Context, filename string) (io.ReadCloser, storage.ObjectInfo, error) {
	if filename == "" {
		return nil, storage.ObjectInfo{}, fmt.Errorf("%w: image", errs.ErrNotFound)
	}
	if strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		return nil, storage.ObjectInfo{}, invalid("nom de fichier invalide")
	}
	return s.deps.Images.Get(ctx, filename)
}
