package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/arzan03/codedrop/internal/models"
	"github.com/arzan03/codedrop/internal/ratelimit"
	"github.com/arzan03/codedrop/internal/storage"
)

// Reaper periodically removes records whose expiry policy has elapsed,
// deleting the stored blob first and the metadata record after. Blob delete
// failures are logged and the record is removed anyway so one bad object
// cannot wedge every future sweep.
type Reaper struct {
	store    CodeStore
	storage  storage.Storage
	limiters []*ratelimit.IPLimiter
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	now      func() time.Time
}

// NewReaper creates a reaper sweeping at the given interval. The limiters are
// swept alongside so idle rate-limit entries get released too.
func NewReaper(store CodeStore, blobs storage.Storage, interval time.Duration, limiters ...*ratelimit.IPLimiter) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{
		store:    store,
		storage:  blobs,
		limiters: limiters,
		interval: interval,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Start launches the background sweep loop. Calling Start twice is a no-op.
func (r *Reaper) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run()
	log.Printf("Reaper started (interval: %v)", r.interval)
}

// Stop signals the loop to exit and waits for the in-flight sweep to finish.
func (r *Reaper) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopChan)
	r.wg.Wait()
	log.Println("Reaper stopped")
}

func (r *Reaper) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-r.stopChan:
			return
		}
	}
}

// Sweep runs one reap cycle. Errors are contained per record; a second run
// with no new expirations deletes nothing.
func (r *Reaper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	expired, err := r.store.ListExpired(ctx, r.now())
	if err != nil {
		log.Printf("reaper: failed to list expired records: %v", err)
		return
	}

	for _, rec := range expired {
		if rec.Type != models.TypeText {
			if err := r.storage.Remove(ctx, rec.Text); err != nil {
				log.Printf("reaper: failed to remove blob for code %s: %v", rec.Code, err)
			}
		}
		if err := r.store.DeleteByID(ctx, rec.ID); err != nil {
			log.Printf("reaper: failed to delete record for code %s: %v", rec.Code, err)
			continue
		}
		log.Printf("reaper: removed expired code %s (%s)", rec.Code, rec.Name)
	}

	for _, l := range r.limiters {
		l.Sweep()
	}
}
