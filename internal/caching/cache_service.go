package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pbxadmin/internal/models"
)

type CacheService interface {
	// Grouped user listing per company
	GetCompanyUsers(ctx context.Context, companyID uuid.UUID) (*models.GroupedUsers, error)
	SetCompanyUsers(ctx context.Context, companyID uuid.UUID, users *models.GroupedUsers, ttl time.Duration) error
	InvalidateCompanyUsers(ctx context.Context, companyID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Connectivity probe for health checks
	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port style addresses as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func companyUsersKey(companyID uuid.UUID) string {
	return fmt.Sprintf("pbxadmin:users:%s", companyID.String())
}

func (r *redisCacheService) GetCompanyUsers(ctx context.Context, companyID uuid.UUID) (*models.GroupedUsers, error) {
	data, err := r.client.Get(ctx, companyUsersKey(companyID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var users models.GroupedUsers
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}
	return &users, nil
}

func (r *redisCacheService) SetCompanyUsers(ctx context.Context, companyID uuid.UUID, users *models.GroupedUsers, ttl time.Duration) error {
	data, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, companyUsersKey(companyID), data, ttl).Err()
}

func (r *redisCacheService) InvalidateCompanyUsers(ctx context.Context, companyID uuid.UUID) error {
	return r.client.Del(ctx, companyUsersKey(companyID)).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("pbxadmin:ratelimit:%s", key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
