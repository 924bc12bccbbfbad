package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"agriconnect_back_end/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ImageSigner transforme le chemin d'une image produit stockée dans MinIO en
// URL signée à durée limitée.
type ImageSigner struct {
	client *minio.Client
	cfg    *config.MinIO
	log    *zap.Logger
}

// NewImageSigner ne contacte pas MinIO : la région est fixée par la config,
// la signature se fait localement.
func NewImageSigner(cfg *config.MinIO, log *zap.Logger) (*ImageSigner, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, errors.New("MINIO_ENDPOINT manquant")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("client MinIO: %w", err)
	}
	log.Info("✅ MinIO configuré", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.Bucket))
	return &ImageSigner{client: client, cfg: cfg, log: log}, nil
}

// SignedURL signe objectPath, absolu ("http://endpoint/bucket/cle") ou relatif
// au bucket. Une URL hébergée ailleurs est renvoyée inchangée.
func (s *ImageSigner) SignedURL(ctx context.Context, objectPath string) (string, error) {
	key, ok := s.objectKey(objectPath)
	if !ok {
		return objectPath, nil
	}

	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, key, s.cfg.URLExpiry, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("signature de %s: %w", key, err)
	}
	return u.String(), nil
}

func (s *ImageSigner) objectKey(objectPath string) (string, bool) {
	if objectPath == "" {
		return "", false
	}

	bucketPrefix := s.cfg.Bucket + "/"
	if !strings.HasPrefix(objectPath, "http://") && !strings.HasPrefix(objectPath, "https://") {
		key := strings.TrimPrefix(strings.TrimPrefix(objectPath, "/"), bucketPrefix)
		return key, key != ""
	}

	u, err := url.Parse(objectPath)
	if err != nil || u.Host != s.cfg.Endpoint {
		return "", false
	}
	key, found := strings.CutPrefix(strings.TrimPrefix(u.Path, "/"), bucketPrefix)
	if !found || key == "" {
		return "", false
	}
	return key, true
}
