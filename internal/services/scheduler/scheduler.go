// Package scheduler следит за сроками аренд и возвращает автомобили
// по истечении срока. Очередь ожиданий — минимальная куча по моменту
// истечения, таймер всегда взведён на ближайший срок.
package scheduler

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/car-rental/internal/lib/sl"
	"github.com/magabrotheeeer/car-rental/internal/models"
)

// Releaser завершает аренду по её ID. Операция идемпотентна на стороне
// реализации, поэтому планировщик не обязан знать, не вернули ли аренду
// досрочно.
type Releaser interface {
	Release(ctx context.Context, leaseID string) error
}

// LeaseRepository определяет методы планировщика для чтения активных аренд.
type LeaseRepository interface {
	ListActiveLeases(ctx context.Context) ([]*models.Lease, error)
}

type expiryItem struct {
	leaseID   string
	expiresAt time.Time
}

type expiryHeap []expiryItem

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].expiresAt.Before(h[j].expiresAt) }
func (h expiryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x any)        { *h = append(*h, x.(expiryItem)) }
func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler отслеживает сроки активных аренд.
type Scheduler struct {
	releaser Releaser
	log      *slog.Logger

	mu    sync.Mutex
	queue expiryHeap
	wake  chan struct{}
}

// New создает новый экземпляр Scheduler.
func New(releaser Releaser, log *slog.Logger) *Scheduler {
	return &Scheduler{
		releaser: releaser,
		log:      log,
		wake:     make(chan struct{}, 1),
	}
}

// SetReleaser задает обработчик истечения срока. Планировщик и движок
// аренды ссылаются друг на друга, поэтому при сборке приложения
// обработчик подставляется после создания движка, до запуска Run.
func (s *Scheduler) SetReleaser(releaser Releaser) {
	s.releaser = releaser
}

// Add ставит аренду в очередь на освобождение в момент expiresAt.
// Если новый срок ближе текущего ближайшего, таймер перевзводится.
func (s *Scheduler) Add(leaseID string, expiresAt time.Time) {
	s.mu.Lock()
	heap.Push(&s.queue, expiryItem{leaseID: leaseID, expiresAt: expiresAt})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Rearm восстанавливает очередь из активных аренд в хранилище. Вызывается
// при старте процесса: просроченные за время простоя аренды будут
// освобождены при первом же проходе цикла.
func (s *Scheduler) Rearm(ctx context.Context, repo LeaseRepository) error {
	leases, err := repo.ListActiveLeases(ctx)
	if err != nil {
		return err
	}
	for _, lease := range leases {
		s.Add(lease.ID, lease.ExpiresAt)
	}
	s.log.Info("rearmed expiry queue", slog.Int("count", len(leases)))
	return nil
}

// Run обрабатывает очередь до отмены контекста.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("expiry scheduler started")
	for {
		next, ok := s.peek()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
			}
			continue
		}

		delay := time.Until(next)
		if delay <= 0 {
			s.releaseDue(ctx)
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
			s.releaseDue(ctx)
		}
	}
}

func (s *Scheduler) peek() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return time.Time{}, false
	}
	return s.queue[0].expiresAt, true
}

// releaseDue снимает с кучи все аренды с наступившим сроком и освобождает их.
func (s *Scheduler) releaseDue(ctx context.Context) {
	now := time.Now()
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.queue[0].expiresAt.After(now) {
			s.mu.Unlock()
			return
		}
		item := heap.Pop(&s.queue).(expiryItem)
		s.mu.Unlock()

		if err := s.releaser.Release(ctx, item.leaseID); err != nil {
			s.log.Error("failed to release expired lease",
				slog.String("lease_id", item.leaseID), sl.Err(err))
			continue
		}
		s.log.Info("lease expired", slog.String("lease_id", item.leaseID))
	}
}
