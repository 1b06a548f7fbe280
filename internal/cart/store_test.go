package cart

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/RaikyD/storefront-bff/internal/domain"
	"github.com/RaikyD/storefront-bff/internal/notify"
	"github.com/RaikyD/storefront-bff/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shown struct {
	message  string
	severity notify.Severity
	linkTo   string
}

type recordingNotifier struct {
	shown []shown
}

func (r *recordingNotifier) Show(message string, severity notify.Severity, linkTo string) {
	r.shown = append(r.shown, shown{message, severity, linkTo})
}

type failingStorage struct {
	getErr error
	setErr error
	sets   int
}

func (f *failingStorage) Get(context.Context, string) ([]byte, error) {
	return nil, f.getErr
}

func (f *failingStorage) Set(context.Context, string, []byte) error {
	f.sets++
	return f.setErr
}

func newTestStore(t *testing.T) (*Store, *storage.MemoryStorage, *recordingNotifier) {
	t.Helper()
	st := storage.NewMemoryStorage()
	n := &recordingNotifier{}
	return NewStore(context.Background(), st, StorageKey, n), st, n
}

func TestAdd_NewAndExisting(t *testing.T) {
	ctx := context.Background()
	s, _, n := newTestStore(t)

	require.True(t, s.Add(ctx, 1, 2, "Mug", 500))
	require.True(t, s.Add(ctx, 1, 3, "Mug (renamed)", 700))

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, domain.CartLine{ItemID: 1, Quantity: 5, Title: "Mug", UnitPriceCents: 500}, lines[0])
	assert.Empty(t, n.shown)
}

func TestAdd_PerItemLimit(t *testing.T) {
	ctx := context.Background()
	s, _, n := newTestStore(t)

	require.True(t, s.Add(ctx, 1, 8, "Mug", 500))
	assert.False(t, s.Add(ctx, 1, 3, "Mug", 500))

	assert.Equal(t, 8, s.Lines()[0].Quantity)
	require.Len(t, n.shown, 1)
	assert.Equal(t, notify.SeverityWarning, n.shown[0].severity)
	assert.Equal(t, "/contact", n.shown[0].linkTo)
	assert.Contains(t, n.shown[0].message, "at most 10")
}

func TestAdd_ExactlyAtLimits(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	assert.True(t, s.Add(ctx, 1, 10, "A", 100))
	assert.True(t, s.Add(ctx, 2, 10, "B", 100))
	assert.Equal(t, 20, s.TotalItems())
	assert.False(t, s.Add(ctx, 3, 1, "C", 100))
}

func TestAdd_CartLimit(t *testing.T) {
	ctx := context.Background()
	s, _, n := newTestStore(t)

	require.True(t, s.Add(ctx, 1, 10, "A", 100))
	require.True(t, s.Add(ctx, 2, 9, "B", 100))
	assert.False(t, s.Add(ctx, 3, 2, "C", 100))

	assert.Equal(t, 19, s.TotalItems())
	assert.Len(t, s.Lines(), 2)
	require.Len(t, n.shown, 1)
	assert.Contains(t, n.shown[0].message, "at most 20 items")
}

func TestAdd_InvalidInput(t *testing.T) {
	ctx := context.Background()
	s, st, n := newTestStore(t)

	assert.False(t, s.Add(ctx, 1, 0, "A", 100))
	assert.False(t, s.Add(ctx, 1, -2, "A", 100))
	assert.False(t, s.Add(ctx, 1, 1, "A", -1))

	assert.Empty(t, s.Lines())
	assert.Len(t, n.shown, 3)
	_, err := st.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAdd_HugeQuantityRejected(t *testing.T) {
	ctx := context.Background()
	s, st, n := newTestStore(t)
	require.True(t, s.Add(ctx, 1, 1, "Mug", 500))

	assert.False(t, s.Add(ctx, 1, math.MaxInt, "Mug", 500))
	assert.False(t, s.Add(ctx, 2, math.MaxInt, "Bowl", 1200))

	assert.Equal(t, []domain.CartLine{{ItemID: 1, Quantity: 1, Title: "Mug", UnitPriceCents: 500}}, s.Lines())
	assert.Equal(t, 1, s.TotalItems())
	assert.Equal(t, int64(500), s.SubtotalCents())
	require.Len(t, n.shown, 2)
	assert.Equal(t, notify.SeverityWarning, n.shown[0].severity)
	assert.Equal(t, "/contact", n.shown[0].linkTo)

	reloaded := NewStore(ctx, st, StorageKey, n)
	assert.Equal(t, LoadRestored, reloaded.LoadStatus())
	assert.Equal(t, 1, reloaded.TotalItems())
}

func TestUpdateQuantity_HugeQuantityRejected(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	require.True(t, s.Add(ctx, 1, 5, "A", 100))
	require.True(t, s.Add(ctx, 2, 5, "B", 100))

	assert.False(t, s.UpdateQuantity(ctx, 1, math.MaxInt))
	assert.Equal(t, 10, s.TotalItems())
}

func TestAddThenRemove_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	require.True(t, s.Add(ctx, 1, 2, "A", 100))
	before := s.Lines()

	require.True(t, s.Add(ctx, 7, 4, "B", 250))
	s.Remove(ctx, 7)

	assert.Equal(t, before, s.Lines())
}

func TestRemove_AbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	fs := &failingStorage{getErr: storage.ErrNotFound}
	s := NewStore(ctx, fs, StorageKey, n)

	s.Remove(ctx, 42)
	assert.Equal(t, 0, fs.sets)
	assert.Empty(t, n.shown)
}

func TestUpdateQuantity_ZeroEqualsRemove(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestStore(t)
	b, _, _ := newTestStore(t)
	for _, s := range []*Store{a, b} {
		require.True(t, s.Add(ctx, 1, 2, "A", 100))
		require.True(t, s.Add(ctx, 2, 3, "B", 200))
	}

	a.Remove(ctx, 1)
	b.UpdateQuantity(ctx, 1, 0)
	assert.Equal(t, a.Lines(), b.Lines())

	b.UpdateQuantity(ctx, 2, -5)
	assert.Empty(t, b.Lines())
}

func TestUpdateQuantity_Limits(t *testing.T) {
	ctx := context.Background()
	s, _, n := newTestStore(t)
	require.True(t, s.Add(ctx, 1, 5, "A", 100))
	require.True(t, s.Add(ctx, 2, 10, "B", 100))

	assert.False(t, s.UpdateQuantity(ctx, 1, 11))
	assert.Equal(t, 5, s.Lines()[0].Quantity)

	// 10 + 10 = 20 is allowed since the line's own quantity is excluded
	assert.True(t, s.UpdateQuantity(ctx, 1, 10))
	assert.Equal(t, 20, s.TotalItems())

	require.True(t, s.UpdateQuantity(ctx, 2, 5))
	assert.False(t, s.Add(ctx, 3, 6, "C", 100))
	assert.True(t, s.Add(ctx, 3, 5, "C", 100))
	assert.Len(t, n.shown, 2)
}

func TestUpdateQuantity_Absent(t *testing.T) {
	s, _, _ := newTestStore(t)
	assert.False(t, s.UpdateQuantity(context.Background(), 9, 3))
	assert.Empty(t, s.Lines())
}

func TestLimits_RandomSequences(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	s, _, _ := newTestStore(t)

	for i := 0; i < 5000; i++ {
		id := int64(rng.Intn(6))
		q := rng.Intn(14) - 2
		if rng.Intn(50) == 0 {
			q = math.MaxInt - rng.Intn(3)
		}
		switch rng.Intn(3) {
		case 0:
			s.Add(ctx, id, q, "item", 100)
		case 1:
			s.UpdateQuantity(ctx, id, q)
		default:
			s.Remove(ctx, id)
		}

		total := 0
		for _, l := range s.Lines() {
			require.GreaterOrEqual(t, l.Quantity, 1)
			require.LessOrEqual(t, l.Quantity, MaxQuantityPerItem)
			total += l.Quantity
		}
		require.LessOrEqual(t, total, MaxTotalCartItems)
	}
}

func TestSubtotalCents(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	require.True(t, s.Add(ctx, 1, 2, "A", 500))
	require.True(t, s.Add(ctx, 2, 1, "B", 1200))

	assert.Equal(t, int64(2200), s.SubtotalCents())
	assert.Equal(t, 3, s.TotalItems())
}

func TestPersistAndReload(t *testing.T) {
	ctx := context.Background()
	s, st, _ := newTestStore(t)
	require.True(t, s.Add(ctx, 1, 2, "A", 500))
	require.True(t, s.Add(ctx, 2, 1, "B", 1200))
	require.True(t, s.UpdateQuantity(ctx, 1, 4))

	reloaded := NewStore(ctx, st, StorageKey, &recordingNotifier{})
	assert.Equal(t, LoadRestored, reloaded.LoadStatus())
	assert.Equal(t, s.Lines(), reloaded.Lines())

	s.Clear(ctx)
	raw, err := st.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestPersistedFormat(t *testing.T) {
	ctx := context.Background()
	s, st, _ := newTestStore(t)
	require.True(t, s.Add(ctx, 3, 1, "Bowl", 1500))

	raw, err := st.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"itemId":3,"quantity":1,"title":"Bowl","priceCents":1500}]`, string(raw))
}

func TestLoad_Degrades(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"corrupt json", `{not json`},
		{"wrong shape", `{"itemId":1}`},
		{"zero quantity", `[{"itemId":1,"quantity":0,"title":"A","priceCents":1}]`},
		{"over item limit", `[{"itemId":1,"quantity":11,"title":"A","priceCents":1}]`},
		{"over cart limit", `[{"itemId":1,"quantity":10,"title":"A","priceCents":1},{"itemId":2,"quantity":10,"title":"B","priceCents":1},{"itemId":3,"quantity":1,"title":"C","priceCents":1}]`},
		{"duplicate ids", `[{"itemId":1,"quantity":1,"title":"A","priceCents":1},{"itemId":1,"quantity":1,"title":"A","priceCents":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := storage.NewMemoryStorage()
			require.NoError(t, st.Set(ctx, StorageKey, []byte(tt.raw)))

			var events []StatusEvent
			s := NewStore(ctx, st, StorageKey, &recordingNotifier{}, WithStatusHook(func(ev StatusEvent) {
				events = append(events, ev)
			}))

			assert.Empty(t, s.Lines())
			assert.Equal(t, LoadDegraded, s.LoadStatus())
			require.Len(t, events, 1)
			assert.Equal(t, OpLoad, events[0].Op)
			assert.Error(t, events[0].Err)
		})
	}
}

func TestLoad_StorageUnavailable(t *testing.T) {
	ctx := context.Background()
	fs := &failingStorage{getErr: errors.New("disk gone")}
	s := NewStore(ctx, fs, StorageKey, &recordingNotifier{})

	assert.Equal(t, LoadDegraded, s.LoadStatus())
	assert.Empty(t, s.Lines())
}

func TestLoad_Missing(t *testing.T) {
	s, _, _ := newTestStore(t)
	assert.Equal(t, LoadEmpty, s.LoadStatus())
}

func TestPersistFailure_DoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	fs := &failingStorage{getErr: storage.ErrNotFound, setErr: errors.New("quota exceeded")}

	var events []StatusEvent
	s := NewStore(ctx, fs, StorageKey, &recordingNotifier{}, WithStatusHook(func(ev StatusEvent) {
		events = append(events, ev)
	}))

	assert.True(t, s.Add(ctx, 1, 1, "A", 100))
	assert.Len(t, s.Lines(), 1)
	assert.Equal(t, 1, fs.sets)

	require.Len(t, events, 2)
	assert.Equal(t, OpPersist, events[1].Op)
	assert.EqualError(t, events[1].Err, "quota exceeded")
}
