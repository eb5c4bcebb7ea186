package service

import (
	"context"
	"sync"
)

// orderLocks: взаимное исключение по order_id внутри процесса.
type orderLocks struct {
	mu    sync.Mutex
	locks map[int]*orderLock
}

type orderLock struct {
	ch   chan struct{}
	refs int
}

func newOrderLocks() *orderLocks {
	return &orderLocks{locks: make(map[int]*orderLock)}
}

// Lock ждёт освобождения заказа либо отмены ctx. unlock обязателен при nil-ошибке.
func (l *orderLocks) Lock(ctx context.Context, orderID int) (unlock func(), err error) {
	l.mu.Lock()
	lk, ok := l.locks[orderID]
	if !ok {
		lk = &orderLock{ch: make(chan struct{}, 1)}
		l.locks[orderID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.ch <- struct{}{}:
		return func() {
			<-lk.ch
			l.release(orderID, lk)
		}, nil
	case <-ctx.Done():
		l.release(orderID, lk)
		return nil, ctx.Err()
	}
}

func (l *orderLocks) release(orderID int, lk *orderLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, orderID)
	}
}

func (l *orderLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
