package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	folio_errors "modelfolio/internal"
	"modelfolio/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryPortfolioRepository keeps portfolios in process. It is what the
// engine runs on without a DATABASE_URL and what the service tests use.
type MemoryPortfolioRepository struct {
	mu         sync.RWMutex
	portfolios map[uuid.UUID]domain.Portfolio
	order      []uuid.UUID
}

func NewMemoryPortfolioRepository() *MemoryPortfolioRepository {
	return &MemoryPortfolioRepository{
		portfolios: map[uuid.UUID]domain.Portfolio{},
	}
}

func (r *MemoryPortfolioRepository) Add(ctx context.Context, p domain.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.portfolios[p.PortfolioID]; ok {
		return fmt.Errorf("portfolio %s already exists", p.PortfolioID)
	}
	r.portfolios[p.PortfolioID] = p.DeepCopy()
	r.order = append(r.order, p.PortfolioID)
	return nil
}

func (r *MemoryPortfolioRepository) Get(ctx context.Context, portfolioID uuid.UUID) (*domain.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.portfolios[portfolioID]
	if !ok {
		return nil, folio_errors.NotFoundError{Entity: "portfolio", ID: portfolioID.String()}
	}
	out := p.DeepCopy()
	return &out, nil
}

func (r *MemoryPortfolioRepository) List(ctx context.Context) ([]domain.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Portfolio, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.portfolios[id].DeepCopy())
	}
	return out, nil
}

func (r *MemoryPortfolioRepository) Update(ctx context.Context, p domain.Portfolio, expectedVersion int64) (*domain.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.portfolios[p.PortfolioID]
	if !ok {
		return nil, folio_errors.NotFoundError{Entity: "portfolio", ID: p.PortfolioID.String()}
	}
	if stored.Version != expectedVersion {
		return nil, folio_errors.ConflictError{PortfolioID: p.PortfolioID, ExpectedVersion: expectedVersion}
	}

	next := p.DeepCopy()
	next.Version = expectedVersion + 1
	r.portfolios[p.PortfolioID] = next
	out := next.DeepCopy()
	return &out, nil
}

func (r *MemoryPortfolioRepository) UpdateCurrentValue(ctx context.Context, portfolioID uuid.UUID, value decimal.Decimal, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.portfolios[portfolioID]
	if !ok {
		return folio_errors.NotFoundError{Entity: "portfolio", ID: portfolioID.String()}
	}
	p.CurrentValue = value
	p.UpdatedAt = at
	r.portfolios[portfolioID] = p
	return nil
}

// MemoryPriceLogRepository mirrors the postgres table, including the
// window before the unique index exists where duplicates can be seeded.
type MemoryPriceLogRepository struct {
	mu      sync.RWMutex
	logs    []domain.PriceLog
	indexed bool
}

func NewMemoryPriceLogRepository() *MemoryPriceLogRepository {
	return &MemoryPriceLogRepository{}
}

// Seed inserts rows verbatim, bypassing the upsert. It refuses duplicates
// once the unique index is in place.
func (r *MemoryPriceLogRepository) Seed(logs ...domain.PriceLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range logs {
		if r.indexed && r.find(l.PortfolioID, l.DateOnly) >= 0 {
			return fmt.Errorf("duplicate price log for %s on %s", l.PortfolioID, l.DateOnly.Format(time.DateOnly))
		}
		if l.PriceLogID == uuid.Nil {
			l.PriceLogID = uuid.New()
		}
		r.logs = append(r.logs, l)
	}
	return nil
}

func (r *MemoryPriceLogRepository) Upsert(ctx context.Context, l domain.PriceLog) (*domain.PriceLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.find(l.PortfolioID, l.DateOnly); i >= 0 {
		existing := &r.logs[i]
		existing.Date = l.Date
		existing.PortfolioValue = l.PortfolioValue
		existing.CashRemaining = l.CashRemaining
		existing.UsedClosingPrices = l.UsedClosingPrices
		existing.UpdateCount++
		out := *existing
		return &out, nil
	}

	if l.PriceLogID == uuid.Nil {
		l.PriceLogID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = l.Date
	}
	l.UpdateCount = 1
	r.logs = append(r.logs, l)
	return &l, nil
}

// find returns the row an upsert would hit: the most updated one, then
// the latest, when duplicates exist.
func (r *MemoryPriceLogRepository) find(portfolioID uuid.UUID, dateOnly time.Time) int {
	best := -1
	for i, l := range r.logs {
		if l.PortfolioID != portfolioID || !l.DateOnly.Equal(dateOnly) {
			continue
		}
		if best < 0 ||
			l.UpdateCount > r.logs[best].UpdateCount ||
			(l.UpdateCount == r.logs[best].UpdateCount && l.Date.After(r.logs[best].Date)) {
			best = i
		}
	}
	return best
}

func (r *MemoryPriceLogRepository) List(ctx context.Context, portfolioID uuid.UUID, from *time.Time) ([]domain.PriceLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.PriceLog{}
	for _, l := range r.logs {
		if l.PortfolioID != portfolioID {
			continue
		}
		if from != nil && l.DateOnly.Before(*from) {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r *MemoryPriceLogRepository) ListDuplicates(ctx context.Context) ([]domain.PriceLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	type key struct {
		portfolioID uuid.UUID
		day         string
	}
	counts := map[key]int{}
	for _, l := range r.logs {
		counts[key{l.PortfolioID, l.DateOnly.Format(time.DateOnly)}]++
	}
	out := []domain.PriceLog{}
	for _, l := range r.logs {
		if counts[key{l.PortfolioID, l.DateOnly.Format(time.DateOnly)}] > 1 {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PortfolioID != out[j].PortfolioID {
			return out[i].PortfolioID.String() < out[j].PortfolioID.String()
		}
		if !out[i].DateOnly.Equal(out[j].DateOnly) {
			return out[i].DateOnly.Before(out[j].DateOnly)
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r *MemoryPriceLogRepository) Delete(ctx context.Context, priceLogIDs []uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := map[uuid.UUID]struct{}{}
	for _, id := range priceLogIDs {
		drop[id] = struct{}{}
	}
	kept := r.logs[:0]
	var deleted int64
	for _, l := range r.logs {
		if _, ok := drop[l.PriceLogID]; ok {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	r.logs = kept
	return deleted, nil
}

func (r *MemoryPriceLogRepository) EnsureUniqueIndex(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	for _, l := range r.logs {
		k := l.PortfolioID.String() + l.DateOnly.Format(time.DateOnly)
		if _, ok := seen[k]; ok {
			return fmt.Errorf("could not create unique index: duplicate price log for %s on %s", l.PortfolioID, l.DateOnly.Format(time.DateOnly))
		}
		seen[k] = struct{}{}
	}
	r.indexed = true
	return nil
}
