package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"agriconnect_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ProductCacheTTL = 10 * time.Minute

// ProductCatalog lit le détail produit (nom, image) joint aux commandes.
// Redis sert de cache devant ScyllaDB et la collection Mongo products ; tous
// sont optionnels.
type ProductCatalog struct {
	session *gocql.Session
	redis   *redis.Client
	legacy  LegacySource
	images  ImageSigner
	log     *zap.Logger
}

// LegacySource résout les identifiants produit hors catalogue ScyllaDB.
type LegacySource interface {
	ProductsByIDs(ctx context.Context, ids []string) (map[string]models.ProductSummary, error)
}

// ImageSigner rend une image du stockage objet consultable par le client.
type ImageSigner interface {
	SignedURL(ctx context.Context, objectPath string) (string, error)
}

type CatalogOption func(*ProductCatalog)

func WithLegacySource(src LegacySource) CatalogOption {
	return func(c *ProductCatalog) { c.legacy = src }
}

// WithImageSigner signe les images à la lecture ; le cache garde les chemins bruts.
func WithImageSigner(s ImageSigner) CatalogOption {
	return func(c *ProductCatalog) { c.images = s }
}

func NewProductCatalog(session *gocql.Session, rdb *redis.Client, log *zap.Logger, opts ...CatalogOption) *ProductCatalog {
	c := &ProductCatalog{session: session, redis: rdb, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func productKey(productID string) string {
	return "product_summary:" + productID
}

// Products renvoie le détail connu pour chaque identifiant. Un produit absent
// du catalogue (ou non joignable) est simplement omis du résultat.
func (c *ProductCatalog) Products(ctx context.Context, productIDs []string) map[string]models.ProductSummary {
	result := make(map[string]models.ProductSummary, len(productIDs))
	missing := make([]string, 0, len(productIDs))

	// 1. Redis
	for _, id := range dedupe(productIDs) {
		if p, ok := c.fromCache(ctx, id); ok {
			result[id] = p
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return c.signImages(ctx, result)
	}

	// 2. ScyllaDB pour les identifiants uuid, Mongo pour les ObjectID historiques
	var legacy []string
	for _, id := range missing {
		pid, err := uuid.Parse(id)
		if err != nil {
			legacy = append(legacy, id)
			continue
		}
		if c.session == nil {
			continue
		}

		var (
			name      string
			imageURLs []string
		)
		err = c.session.Query(`SELECT name, image_urls FROM products WHERE product_id = ?`, gocql.UUID(pid)).
			WithContext(ctx).
			Scan(&name, &imageURLs)
		if errors.Is(err, gocql.ErrNotFound) {
			continue
		}
		if err != nil {
			c.log.Warn("lecture produit ScyllaDB", zap.String("product_id", id), zap.Error(err))
			continue
		}

		p := models.ProductSummary{ID: id, Name: name}
		if len(imageURLs) > 0 {
			p.Image = imageURLs[0]
		}
		result[id] = p

		// 3. Mettre en cache
		c.toCache(ctx, p)
	}
	c.fromLegacy(ctx, legacy, result)

	return c.signImages(ctx, result)
}

func (c *ProductCatalog) fromLegacy(ctx context.Context, ids []string, result map[string]models.ProductSummary) {
	if len(ids) == 0 {
		return
	}
	if c.legacy == nil {
		c.log.Debug("références produit hors catalogue ignorées", zap.Strings("product_ids", ids))
		return
	}

	found, err := c.legacy.ProductsByIDs(ctx, ids)
	if err != nil {
		c.log.Warn("lecture produits historiques", zap.Strings("product_ids", ids), zap.Error(err))
		return
	}
	for _, id := range ids {
		p, ok := found[id]
		if !ok {
			c.log.Debug("produit introuvable", zap.String("product_id", id))
			continue
		}
		result[id] = p
		c.toCache(ctx, p)
	}
}

func (c *ProductCatalog) signImages(ctx context.Context, products map[string]models.ProductSummary) map[string]models.ProductSummary {
	if c.images == nil {
		return products
	}
	for id, p := range products {
		if p.Image == "" {
			continue
		}
		signed, err := c.images.SignedURL(ctx, p.Image)
		if err != nil {
			c.log.Warn("signature image produit", zap.String("product_id", id), zap.Error(err))
			continue
		}
		p.Image = signed
		products[id] = p
	}
	return products
}

func (c *ProductCatalog) fromCache(ctx context.Context, id string) (models.ProductSummary, bool) {
	var p models.ProductSummary
	if c.redis == nil {
		return p, false
	}
	data, err := c.redis.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug("cache produit indisponible", zap.Error(err))
		}
		return p, false
	}
	if json.Unmarshal(data, &p) != nil {
		return p, false
	}
	return p, true
}

func (c *ProductCatalog) toCache(ctx context.Context, p models.ProductSummary) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, productKey(p.ID), data, ProductCacheTTL).Err(); err != nil {
		c.log.Debug("mise en cache produit", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
