package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/findme-platform/internal/platform/apperr"
	"github.com/example/findme-platform/internal/records"
	"github.com/example/findme-platform/services/ingestion/internal/safe182"
)

// fakeProvider serves a fixed list of pages; page N is pages[N-1].
type fakeProvider struct {
	rowSize int
	pages   []*safe182.Response
	errAt   int
	calls   []int
}

func (f *fakeProvider) RowSize() int { return f.rowSize }

func (f *fakeProvider) FetchPage(_ context.Context, page int) (*safe182.Response, error) {
	f.calls = append(f.calls, page)
	if f.errAt == page {
		return nil, errors.New("connection reset")
	}
	if page > len(f.pages) {
		return &safe182.Response{Result: safe182.ResultOK}, nil
	}
	return f.pages[page-1], nil
}

type countingPacer struct{ n int }

func (c *countingPacer) Wait(context.Context) error { c.n++; return nil }

func items(prefix string, n int) []safe182.Item {
	out := make([]safe182.Item, n)
	for i := range out {
		out[i] = safe182.Item{Code: safe182.Text(fmt.Sprintf("%s-%d", prefix, i)), Name: "테스트", Address: "서울"}
	}
	return out
}

func page(total int, list []safe182.Item) *safe182.Response {
	return &safe182.Response{Result: safe182.ResultOK, TotalCount: safe182.Text(fmt.Sprint(total)), List: list}
}

func newPipeline(p safe182.Provider, s RecordStore, pacer *countingPacer) *Pipeline {
	return &Pipeline{
		Provider: p,
		Store:    s,
		Pacer:    pacer,
		Now:      func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestRun_PagesUntilTotalAndIsIdempotent(t *testing.T) {
	prov := &fakeProvider{rowSize: 3, pages: []*safe182.Response{
		page(6, items("a", 3)),
		page(6, items("b", 3)),
	}}
	store := records.NewInMemoryStore()
	pacer := &countingPacer{}
	p := newPipeline(prov, store, pacer)

	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Pages != 2 || sum.Fetched != 6 || sum.Saved != 6 || sum.Duplicates != 0 {
		t.Fatalf("unexpected first summary: %+v", sum)
	}
	if pacer.n != 1 {
		t.Fatalf("expected one inter-page wait, got %d", pacer.n)
	}

	prov.calls = nil
	sum, err = p.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sum.Saved != 0 || sum.Duplicates != 6 {
		t.Fatalf("second run must only see duplicates: %+v", sum)
	}
}

func TestRun_ShortPageStops(t *testing.T) {
	prov := &fakeProvider{rowSize: 3, pages: []*safe182.Response{
		page(100, items("a", 3)),
		page(100, items("b", 2)),
		page(100, items("c", 3)),
	}}
	sum, err := newPipeline(prov, records.NewInMemoryStore(), &countingPacer{}).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(prov.calls) != 2 || sum.Fetched != 5 {
		t.Fatalf("expected stop after short page 2, calls=%v sum=%+v", prov.calls, sum)
	}
}

func TestRun_EmptyPageStops(t *testing.T) {
	prov := &fakeProvider{rowSize: 3, pages: []*safe182.Response{page(0, nil)}}
	sum, err := newPipeline(prov, records.NewInMemoryStore(), &countingPacer{}).Run(context.Background())
	if err != nil || sum.Pages != 1 || sum.Fetched != 0 {
		t.Fatalf("expected single empty page, sum=%+v err=%v", sum, err)
	}
}

func TestRun_UnreportedTotalFallsBackToPageSize(t *testing.T) {
	for _, total := range []safe182.Text{"", "null-ish", "1e30", "0"} {
		withTotal := func(list []safe182.Item) *safe182.Response {
			return &safe182.Response{Result: safe182.ResultOK, TotalCount: total, List: list}
		}
		prov := &fakeProvider{rowSize: 3, pages: []*safe182.Response{
			withTotal(items("a", 3)),
			withTotal(items("b", 3)),
			withTotal(items("c", 1)),
		}}
		sum, err := newPipeline(prov, records.NewInMemoryStore(), &countingPacer{}).Run(context.Background())
		if err != nil {
			t.Fatalf("total %q: run: %v", total, err)
		}
		if sum.Pages != 3 || sum.Fetched != 7 || sum.Saved != 7 {
			t.Fatalf("total %q: expected all three pages, calls=%v sum=%+v", total, prov.calls, sum)
		}
	}
}

func TestRun_NonSuccessResultSkips(t *testing.T) {
	prov := &fakeProvider{rowSize: 3, pages: []*safe182.Response{
		{Result: safe182.ResultAuthFail, Msg: "invalid key"},
	}}
	store := records.NewInMemoryStore()
	sum, err := newPipeline(prov, store, &countingPacer{}).Run(context.Background())
	if err != nil {
		t.Fatalf("skipped run must not error: %v", err)
	}
	if !sum.Skipped || sum.ResultCode != "99" || sum.Saved != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestRun_TransportErrorAbortsWithoutPersisting(t *testing.T) {
	prov := &fakeProvider{rowSize: 3, errAt: 2, pages: []*safe182.Response{page(6, items("a", 3))}}
	store := records.NewInMemoryStore()
	_, err := newPipeline(prov, store, &countingPacer{}).Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if apperr.KindOf(err) != apperr.KindUpstream {
		t.Fatalf("expected upstream kind, got %s", apperr.KindOf(err))
	}
	if ok, _ := store.Exists(context.Background(), "a-0"); ok {
		t.Fatal("aborted run must not persist partial pages")
	}
}

// flakyStore fails Create for one id and reports a concurrent writer for another.
type flakyStore struct {
	*records.InMemoryStore
	failID, raceID string
}

func (f *flakyStore) Create(ctx context.Context, p records.MissingPerson) (records.MissingPerson, error) {
	switch p.ID {
	case f.failID:
		return records.MissingPerson{}, errors.New("disk full")
	case f.raceID:
		return records.MissingPerson{}, records.ErrExists
	}
	return f.InMemoryStore.Create(ctx, p)
}

func TestRun_PerItemFailuresDoNotAbort(t *testing.T) {
	prov := &fakeProvider{rowSize: 10, pages: []*safe182.Response{page(4, items("x", 4))}}
	store := &flakyStore{InMemoryStore: records.NewInMemoryStore(), failID: "x-1", raceID: "x-2"}
	sum, err := newPipeline(prov, store, &countingPacer{}).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Saved != 2 || sum.Failed != 1 || sum.Duplicates != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestRun_MaxPagesCap(t *testing.T) {
	var pages []*safe182.Response
	for i := 0; i < 5; i++ {
		pages = append(pages, page(1000, items(fmt.Sprint("p", i), 2)))
	}
	prov := &fakeProvider{rowSize: 2, pages: pages}
	p := newPipeline(prov, records.NewInMemoryStore(), &countingPacer{})
	p.MaxPages = 3
	sum, err := p.Run(context.Background())
	if err != nil || sum.Pages != 3 || sum.Saved != 6 {
		t.Fatalf("expected cap at 3 pages, sum=%+v err=%v", sum, err)
	}
}

// blockingProvider parks inside FetchPage until released.
type blockingProvider struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingProvider) RowSize() int { return 100 }

func (b *blockingProvider) FetchPage(context.Context, int) (*safe182.Response, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return page(0, nil), nil
}

func TestRun_RejectsOverlap(t *testing.T) {
	prov := &blockingProvider{entered: make(chan struct{}), release: make(chan struct{})}
	p := newPipeline(prov, records.NewInMemoryStore(), &countingPacer{})

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background())
		done <- err
	}()
	<-prov.entered

	if _, err := p.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	close(prov.release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
}
