package selector_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"gamo-keyword-api/internal/selector"
	"gamo-keyword-api/internal/store"
	"gamo-keyword-api/models"
)

var t0 = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func kw(id string, weight int, minutes int) models.Keyword {
	return models.Keyword{
		ID:        id,
		Text:      "topic " + id,
		Weight:    weight,
		CallID:    1,
		CreatedAt: t0.Add(time.Duration(minutes) * time.Minute),
	}
}

func ids(records []models.Keyword) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestSelectScenarios(t *testing.T) {
	t.Run("five records keep the top three weights in recency order", func(t *testing.T) {
		in := []models.Keyword{
			kw("w5", 5, 1),
			kw("w4", 4, 2),
			kw("w3", 3, 3),
			kw("w2", 2, 4),
			kw("w1", 1, 5),
		}
		out, err := selector.Select(in)
		gt.NoError(t, err).Required()
		gt.Value(t, ids(out)).Equal([]string{"w3", "w4", "w5"})
	})

	t.Run("single record is returned", func(t *testing.T) {
		out, err := selector.Select([]models.Keyword{kw("only", 2, 0)})
		gt.NoError(t, err).Required()
		gt.Value(t, ids(out)).Equal([]string{"only"})
	})

	t.Run("two equal weights keep the first regardless of recency", func(t *testing.T) {
		in := []models.Keyword{
			kw("older", 3, 0),
			kw("newer", 3, 10),
		}
		out, err := selector.Select(in)
		gt.NoError(t, err).Required()
		gt.Value(t, ids(out)).Equal([]string{"older"})
	})

	t.Run("heavier half is chosen before recency", func(t *testing.T) {
		in := []models.Keyword{
			kw("light-new", 1, 100),
			kw("heavy-old", 5, 0),
			kw("light-newer", 1, 200),
			kw("heavy-mid", 4, 50),
		}
		out, err := selector.Select(in)
		gt.NoError(t, err).Required()
		gt.Value(t, ids(out)).Equal([]string{"heavy-mid", "heavy-old"})
	})

	t.Run("never more than three", func(t *testing.T) {
		var in []models.Keyword
		for i := 0; i < 10; i++ {
			in = append(in, kw(fmt.Sprintf("k%d", i), 5, i))
		}
		out, err := selector.Select(in)
		gt.NoError(t, err).Required()
		// All weights tie, so stage 1 keeps k0..k4 and stage 2 picks the newest.
		gt.Value(t, ids(out)).Equal([]string{"k4", "k3", "k2"})
	})

	t.Run("equal timestamps keep stage one order", func(t *testing.T) {
		in := []models.Keyword{
			kw("c", 3, 0),
			kw("a", 5, 0),
			kw("b", 4, 0),
			kw("d", 1, 0),
			kw("e", 1, 0),
			kw("f", 1, 0),
		}
		out, err := selector.Select(in)
		gt.NoError(t, err).Required()
		gt.Value(t, ids(out)).Equal([]string{"a", "b", "c"})
	})

	t.Run("negative and large weights are ordered", func(t *testing.T) {
		in := []models.Keyword{
			kw("neg", -7, 3),
			kw("huge", int(^uint(0)>>1), 0),
			kw("zero", 0, 1),
			kw("min", -int(^uint(0)>>1)-1, 2),
		}
		out, err := selector.Select(in)
		gt.NoError(t, err).Required()
		gt.Value(t, ids(out)).Equal([]string{"zero", "huge"})
	})
}

func TestSelectEmptyPool(t *testing.T) {
	out, err := selector.Select(nil)
	gt.Bool(t, errors.Is(err, selector.ErrNoKeywordsFound)).True()
	gt.Array(t, out).Length(0)
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	in := []models.Keyword{kw("a", 1, 0), kw("b", 5, 1), kw("c", 3, 2)}
	snapshot := slices.Clone(in)

	_, err := selector.Select(in)
	gt.NoError(t, err).Required()
	gt.Value(t, in).Equal(snapshot)
}

func TestTopHalfCount(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 6: 3, 7: 4}
	for n, want := range cases {
		gt.Value(t, selector.TopHalfCount(n)).Equal(want)
	}
}

// Properties over random pools: size, weight cutoff, recency order, determinism.
func TestSelectProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 500; iter++ {
		n := 1 + rng.Intn(20)
		in := make([]models.Keyword, n)
		for i := range in {
			in[i] = kw(fmt.Sprintf("r%d", i), 1+rng.Intn(5), rng.Intn(30))
		}

		out, err := selector.Select(in)
		gt.NoError(t, err).Required()

		top := selector.TopHalfCount(n)
		gt.Value(t, len(out)).Equal(min(selector.MaxSelected, top))

		// Every result belongs to the first ceil(n/2) of a stable weight sort.
		byWeight := slices.Clone(in)
		slices.SortStableFunc(byWeight, func(a, b models.Keyword) int { return b.Weight - a.Weight })
		allowed := ids(byWeight[:top])
		for _, r := range out {
			gt.Array(t, allowed).Has(r.ID)
		}

		for i := 1; i < len(out); i++ {
			gt.Bool(t, out[i-1].CreatedAt.Before(out[i].CreatedAt)).False()
		}

		again, err := selector.Select(in)
		gt.NoError(t, err).Required()
		gt.Value(t, ids(again)).Equal(ids(out))
	}
}

type countingFinder struct {
	calls   int
	lastIDs []int64
	records []models.Keyword
	err     error
}

func (f *countingFinder) FindByCallIDs(ctx context.Context, callIDs []int64) ([]models.Keyword, error) {
	f.calls++
	f.lastIDs = callIDs
	return f.records, f.err
}

func TestRecommend(t *testing.T) {
	ctx := context.Background()

	t.Run("empty call ids never reach the store", func(t *testing.T) {
		f := &countingFinder{}
		_, err := selector.Recommend(ctx, f, []int64{})
		gt.Bool(t, errors.Is(err, selector.ErrEmptyCallIDs)).True()
		gt.Value(t, f.calls).Equal(0)
	})

	t.Run("no matching keywords", func(t *testing.T) {
		f := &countingFinder{records: []models.Keyword{}}
		_, err := selector.Recommend(ctx, f, []int64{15352})
		gt.Bool(t, errors.Is(err, selector.ErrNoKeywordsFound)).True()
		gt.Value(t, f.calls).Equal(1)
	})

	t.Run("duplicate ids are collapsed", func(t *testing.T) {
		f := &countingFinder{records: []models.Keyword{kw("a", 1, 0)}}
		_, err := selector.Recommend(ctx, f, []int64{7, 7, 9, 7})
		gt.NoError(t, err).Required()
		gt.Value(t, f.lastIDs).Equal([]int64{7, 9})
	})

	t.Run("finder errors propagate", func(t *testing.T) {
		boom := errors.New("connection refused")
		f := &countingFinder{err: boom}
		_, err := selector.Recommend(ctx, f, []int64{1})
		gt.Bool(t, errors.Is(err, boom)).True()
	})

	t.Run("pools keywords across calls from the store", func(t *testing.T) {
		s := store.NewMemoryStore()
		tick := t0
		s.WithClock(func() time.Time {
			tick = tick.Add(time.Minute)
			return tick
		})

		for _, rec := range []*models.Keyword{
			{Text: "hospital visit", Weight: 5, CallID: 15352},
			{Text: "weather", Weight: 1, CallID: 15352},
			{Text: "grandson exam", Weight: 4, CallID: 92737},
			{Text: "lunch menu", Weight: 2, CallID: 92737},
		} {
			_, err := s.Insert(ctx, rec)
			gt.NoError(t, err).Required()
		}

		out, err := selector.Recommend(ctx, s, []int64{15352, 92737})
		gt.NoError(t, err).Required()
		gt.Value(t, models.Texts(out)).Equal([]string{"grandson exam", "hospital visit"})
	})
}
