package archive

import (
	"context"
	"log"
	"time"

	"canteen/internal/order"
)

// Worker uploads receipts that were not archived when the order was placed
type Worker struct {
	orders   order.Repository
	store    order.Archiver
	interval time.Duration
	grace    time.Duration
	batch    int
	now      func() time.Time
}

func NewWorker(orders order.Repository, store order.Archiver, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Worker{
		orders:   orders,
		store:    store,
		interval: interval,
		// leaves room for the inline upload at placement time
		grace: time.Minute,
		batch: 20,
		now:   time.Now,
	}
}

// Start runs the worker until ctx is cancelled
func (w *Worker) Start(ctx context.Context) {
	go func() {
		log.Printf("[ARCHIVE] worker started (every %s)", w.interval)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[ARCHIVE] worker stopped")
				return
			case <-ticker.C:
				if _, err := w.ProcessOnce(ctx); err != nil {
					log.Printf("[ARCHIVE] claim failed: %v", err)
				}
			}
		}
	}()
}

// ProcessOnce archives one batch and reports how many receipts were stored.
// A failing order is logged and left for the next round.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	ids, err := w.orders.ClaimUnarchived(ctx, w.now().Add(-w.grace), w.batch)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, id := range ids {
		o, err := w.orders.Get(ctx, id)
		if err != nil {
			log.Printf("[ARCHIVE] load %s: %v", id, err)
			continue
		}

		key := order.ReceiptKey(o)
		if err := w.store.PutJSON(ctx, key, o); err != nil {
			log.Printf("[ARCHIVE] upload %s: %v", id, err)
			continue
		}
		if err := w.orders.MarkArchived(ctx, id, key); err != nil {
			log.Printf("[ARCHIVE] mark %s: %v", id, err)
			continue
		}
		done++
	}

	if done > 0 {
		log.Printf("[ARCHIVE] stored %d of %d receipts", done, len(ids))
	}
	return done, nil
}
