package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var _ ledger.StockTotalCache = (*StockTotalCache)(nil)

const (
	totalKeyPrefix   = "stock:total:"
	versionKeyPrefix = "stock:total-version:"
)

// errStaleVersion: un commit avanzó la versión después de que el lector la tomó.
var errStaleVersion = errors.New("versión de total obsoleta")

// StockTotalCache guarda el stock total por producto en Redis como texto decimal.
// Es derivado: cada commit avanza la versión del producto y borra el total; un lector
// solo reescribe el total si la versión que leyó antes de ir a la BD sigue vigente.
type StockTotalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient abre el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewStockTotalCache construye la caché; ttl <= 0 significa sin expiración.
func NewStockTotalCache(client *redis.Client, ttl time.Duration) *StockTotalCache {
	return &StockTotalCache{client: client, ttl: ttl}
}

func totalKey(productID string) string {
	return totalKeyPrefix + productID
}

func versionKey(productID string) string {
	return versionKeyPrefix + productID
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readVersion(ctx context.Context, g getter, productID string) (int64, error) {
	v, err := g.Get(ctx, versionKey(productID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version: %w", err)
	}
	return v, nil
}

// GetTotal devuelve (total, true, nil) en hit y (0, false, nil) en miss.
func (c *StockTotalCache) GetTotal(ctx context.Context, productID string) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, totalKey(productID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("redis get total: %w", err)
	}
	total, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("redis total corrupto %q: %w", raw, err)
	}
	return total, true, nil
}

// Version devuelve la versión actual del total del producto (0 si nunca se invalidó).
func (c *StockTotalCache) Version(ctx context.Context, productID string) (int64, error) {
	return readVersion(ctx, c.client, productID)
}

// SetTotal escribe el total con el TTL configurado, solo si la versión sigue siendo version.
// Si un commit la avanzó, el total calculado puede ser viejo y se descarta sin error.
func (c *StockTotalCache) SetTotal(ctx context.Context, productID string, version int64, total decimal.Decimal) error {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx, productID)
		if err != nil {
			return err
		}
		if current != version {
			return errStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, totalKey(productID), total.String(), c.ttl)
			return nil
		})
		return err
	}, versionKey(productID))
	switch {
	case err == nil, errors.Is(err, errStaleVersion), errors.Is(err, redis.TxFailedErr):
		return nil
	}
	return fmt.Errorf("redis set total: %w", err)
}

// Invalidate avanza la versión y borra el total de los productos indicados, en una sola MULTI.
func (c *StockTotalCache) Invalidate(ctx context.Context, productIDs ...string) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range productIDs {
			pipe.Incr(ctx, versionKey(id))
			pipe.Del(ctx, totalKey(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate totals: %w", err)
	}
	return nil
}
