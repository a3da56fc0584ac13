package pool

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/riftworld/ecsgo/internal/handle"
)

// DefaultFreeStackCapacity is the default bound on how many freed
// handles a Tenant holds for recycling before it starts leaking them.
const DefaultFreeStackCapacity = 1024

// Tenant is the archetype-private view over a shared Pool: it issues
// handles drawn from that pool's pages and recycles freed handles
// preferentially via a bounded free stack.
//
// NextID pops the free stack directly, or grows the current page, or
// escalates to a lock to allocate a fresh page. Construction eagerly
// allocates the Tenant's first page so the first NextID call never pays
// for page growth; prime is kept as a named step in that sequence even
// though it currently does no work of its own.
//
// currentPage transitions are RCU-style: readers load it via a single
// atomic.Pointer read with no validation step, and the lock below only
// ever serializes the page-swap writers against each other, never against
// readers. A stamped optimistic-read lock would add a validation step
// these readers never need, so this uses a plain sync.Mutex instead.
type Tenant struct {
	pool   *Pool
	logger *slog.Logger

	lock    sync.Mutex
	current atomic.Pointer[Page]

	freeMu       sync.Mutex
	freeStack    []handle.Handle
	freeTop      int32
	freeCapacity int32
}

// New creates a Tenant drawing handles from pool, with the given free
// stack capacity (0 selects DefaultFreeStackCapacity). It allocates the
// Tenant's first page eagerly so NextID's first call never pays for page
// growth.
func New(ctx context.Context, p *Pool, freeStackCapacity int, logger *slog.Logger) (*Tenant, error) {
	if freeStackCapacity <= 0 {
		freeStackCapacity = DefaultFreeStackCapacity
	}
	t := &Tenant{
		pool:         p,
		logger:       logger,
		freeStack:    make([]handle.Handle, freeStackCapacity),
		freeCapacity: int32(freeStackCapacity),
	}

	page, err := p.newPage(ctx, nil)
	if err != nil {
		return nil, err
	}
	t.current.Store(page)
	t.prime()

	return t, nil
}

// prime has no seed slot to stage in this implementation; New calls it
// anyway to keep construction's steps named and easy to extend later.
func (t *Tenant) prime() {}

// Pool returns the shared pool this Tenant draws handles from.
func (t *Tenant) Pool() *Pool { return t.pool }

// NextID returns a handle whose page belongs to this tenant and whose
// slot is uniquely assigned, preferentially recycling a freed handle.
func (t *Tenant) NextID(ctx context.Context) (handle.Handle, error) {
	if h, ok := t.popFree(); ok {
		return t.pool.schema.WithoutDetached(h), nil
	}

	for {
		// Optimistic fast path: no lock taken at all. A page's size
		// counter only ever grows, so a successful CAS reservation is
		// valid regardless of whether this page is still "current" by
		// the time we return. The lock below exists solely to serialize
		// the page-swap transition, not to protect trySize.
		page := t.current.Load()

		if slot, ok := page.trySize(); ok {
			return t.pool.schema.Encode(page.Index(), slot, 0), nil
		}

		t.lock.Lock()
		if t.current.Load() == page {
			newPage, err := t.pool.newPage(ctx, page)
			if err != nil {
				t.lock.Unlock()
				return 0, err
			}
			slot, ok := newPage.trySize()
			if !ok {
				// Unreachable: a freshly allocated page always has room
				// for its first slot.
				newPage.decrementSize()
			}
			t.current.Store(newPage)
			t.lock.Unlock()
			if t.logger != nil {
				t.logger.Debug("pool: page allocated", "page", newPage.Index())
			}
			return t.pool.schema.Encode(newPage.Index(), slot, 0), nil
		}
		t.lock.Unlock()
		// Another goroutine already grew the page; retry against the
		// new current page.
	}
}

// FreeID pushes h onto the free stack for later recycling by NextID. The
// handle remains valid in the pool for re-issuance; the caller (typically
// an archetype's detachEntity) is responsible for marking its own
// entity-side copy of h as detached.
//
// On free-stack overflow (bounded at freeCapacity), the handle is leaked
// — not surfaced as an error, just logged at warn.
func (t *Tenant) FreeID(h handle.Handle) {
	t.freeMu.Lock()
	defer t.freeMu.Unlock()
	if t.freeTop >= t.freeCapacity {
		if t.logger != nil {
			t.logger.Warn("pool: free stack overflow, handle leaked", "capacity", t.freeCapacity)
		}
		return
	}
	t.freeStack[t.freeTop] = h
	t.freeTop++
}

func (t *Tenant) popFree() (handle.Handle, bool) {
	t.freeMu.Lock()
	defer t.freeMu.Unlock()
	if t.freeTop == 0 {
		return 0, false
	}
	t.freeTop--
	return t.freeStack[t.freeTop], true
}

// Register writes obj into the pool slot identified by h. Any subsequent
// GetEntry(h) is guaranteed to observe obj: the write happens-before
// publication via a plain atomic.Pointer store, which Go guarantees is
// visible to any goroutine that subsequently loads it.
func (t *Tenant) Register(h handle.Handle, obj any) {
	page := t.pool.pageAt(t.pool.schema.PageOf(h))
	page.set(t.pool.schema.SlotOf(h), obj)
}

// Unregister clears h's slot without recycling the handle, so GetEntry(h)
// no longer finds it. Nothing in this module calls it: Composition's
// DetachEntity frees the handle via FreeID and leaves the slot's record in
// place until the handle is re-issued and registered again.
func (t *Tenant) Unregister(h handle.Handle) {
	page := t.pool.pageAt(t.pool.schema.PageOf(h))
	if page == nil {
		return
	}
	page.clear(t.pool.schema.SlotOf(h))
}

// PageIterator walks every page in this Tenant, oldest first, yielding
// each occupied (size > 0) slot's stored object. It is a simple
// forward-only cursor: restartable only by creating a fresh iterator.
type PageIterator struct {
	pages []*Page
	pi    int
	si    uint32
}

// Iterate returns a fresh PageIterator over all of this Tenant's pages in
// allocation order (oldest first).
func (t *Tenant) Iterate() *PageIterator {
	// Walk backward from current via Previous links to collect pages
	// oldest-first, since Previous always points to the page allocated
	// immediately before.
	var pages []*Page
	for p := t.current.Load(); p != nil; p = p.Previous() {
		pages = append(pages, p)
	}
	for i, j := 0, len(pages)-1; i < j; i, j = i+1, j-1 {
		pages[i], pages[j] = pages[j], pages[i]
	}
	return &PageIterator{pages: pages}
}

// Next advances the cursor and returns the next occupied slot's stored
// object, its handle, and true; or (nil, 0, false) once exhausted.
func (it *PageIterator) Next(schema handle.Schema) (any, handle.Handle, bool) {
	for it.pi < len(it.pages) {
		page := it.pages[it.pi]
		size := page.Size()
		for it.si < size {
			slot := it.si
			it.si++
			if obj, ok := page.get(slot); ok {
				h := schema.Encode(page.Index(), slot, 0)
				return obj, h, true
			}
		}
		it.pi++
		it.si = 0
	}
	return nil, 0, false
}
