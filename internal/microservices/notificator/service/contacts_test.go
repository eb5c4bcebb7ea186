package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"drone-delivery/internal/domain"
	"drone-delivery/internal/microservices/notificator/service/mocks"
)

func TestContactLookup_CachesSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockCustomerDirectory(ctrl)
	alice := domain.ContactInfo{Name: "Alice", Phone: "91234567", Email: "alice@example.com"}
	dir.EXPECT().Get(gomock.Any(), 1).Return(alice, nil).Times(1)

	c := NewContactLookup(dir, 8, time.Minute)
	assert.Equal(t, alice, c.Resolve(context.Background(), 1))
	assert.Equal(t, alice, c.Resolve(context.Background(), 1))
}

func TestContactLookup_FallbackNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockCustomerDirectory(ctrl)
	dir.EXPECT().Get(gomock.Any(), 2).Return(domain.ContactInfo{}, errors.New("connection refused")).Times(2)

	c := NewContactLookup(dir, 8, time.Minute)
	assert.Equal(t, domain.DefaultContact, c.Resolve(context.Background(), 2))
	assert.Equal(t, domain.DefaultContact, c.Resolve(context.Background(), 2))
}

func TestContactLookup_NoCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockCustomerDirectory(ctrl)
	dir.EXPECT().Get(gomock.Any(), 3).Return(domain.ContactInfo{Name: "C"}, nil).Times(2)

	c := NewContactLookup(dir, 0, time.Minute)
	c.Resolve(context.Background(), 3)
	c.Resolve(context.Background(), 3)
}
