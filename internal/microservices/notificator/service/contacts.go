package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"drone-delivery/internal/common/logger"
	"drone-delivery/internal/domain"
)

// ContactLookup резолвит контакты клиента. Ошибка справочника -> DefaultContact.
// Кэшируются только успешные ответы.
type ContactLookup struct {
	dir   CustomerDirectory
	cache *expirable.LRU[int, domain.ContactInfo]
	lg    *logger.Logger
}

// NewContactLookup: size <= 0 выключает кэш.
func NewContactLookup(dir CustomerDirectory, size int, ttl time.Duration) *ContactLookup {
	c := &ContactLookup{dir: dir, lg: logger.New("notification")}
	if size > 0 {
		c.cache = expirable.NewLRU[int, domain.ContactInfo](size, nil, ttl)
	}
	return c
}

func (c *ContactLookup) Resolve(ctx context.Context, customerID int) domain.ContactInfo {
	if c.cache != nil {
		if ci, ok := c.cache.Get(customerID); ok {
			return ci
		}
	}

	ci, err := c.dir.Get(ctx, customerID)
	if err != nil {
		c.lg.Warn("contact_fallback", map[string]any{"customer_id": customerID, "error": err.Error()})
		return domain.DefaultContact
	}
	if c.cache != nil {
		c.cache.Add(customerID, ci)
	}
	return ci
}
