package eventservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/calendar"
	"github.com/starford/almanac/internal/holidays"
	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/store"
	"github.com/starford/almanac/internal/testutil"
)

type recorder struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recorder) PublishEventChange(kind string, _ models.Event) {
	r.mu.Lock()
	r.kinds = append(r.kinds, kind)
	r.mu.Unlock()
}

type countingAggregator struct {
	Aggregator
	calls int
}

func (c *countingAggregator) EventsForYear(ctx context.Context, year int) ([]models.Event, error) {
	c.calls++
	return c.Aggregator.EventsForYear(ctx, year)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *store.DB, *countingAggregator) {
	t.Helper()
	db := testutil.TestStore(t)
	src := &testutil.FakeSource{Holidays: map[int][]holidays.Holiday{
		2024: {{Date: "2024-03-04", LocalName: "Test Holiday"}},
	}}
	agg := &countingAggregator{Aggregator: calendar.NewAggregator(db, db, src, "ES")}
	return NewService(db, db, agg, opts...), db, agg
}

var march4 = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

func TestCreate_StandupOnMarch4(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.Open(ctx, march4)
	if err != nil {
		t.Fatal(err)
	}
	v, err = svc.Create(ctx, v, models.EventFields{Title: "Standup", Date: "2024-03-04", Time: "09:00"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var personal []models.Event
	for _, e := range v.EventsForDay(4) {
		if e.Scope == models.ScopePersonal {
			personal = append(personal, e)
		}
	}
	if len(personal) != 1 || personal[0].Title != "Standup" {
		t.Errorf("personal events on day 4 = %+v", personal)
	}
	if len(v.EventsForDay(4)) != 2 {
		t.Errorf("day 4 should also carry the national holiday: %+v", v.EventsForDay(4))
	}
}

func TestCreate_ValidationLeavesViewUnchanged(t *testing.T) {
	svc, _, agg := newTestService(t)
	ctx := context.Background()

	v, err := svc.Open(ctx, march4)
	if err != nil {
		t.Fatal(err)
	}
	before := agg.calls
	got, err := svc.Create(ctx, v, models.EventFields{Title: "", Date: "2024-03-04", Time: "09:00"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if got != v {
		t.Error("view replaced on validation error")
	}
	if agg.calls != before {
		t.Error("view recomputed after failed mutation")
	}
	if _, ok := apperr.FieldErrors(err)["title"]; !ok {
		t.Errorf("fields = %v, want title", apperr.FieldErrors(err))
	}
}

func TestUpdateAndDelete(t *testing.T) {
	rec := &recorder{}
	svc, db, _ := newTestService(t, WithNotifier(rec))
	ctx := context.Background()

	v, _ := svc.Open(ctx, march4)
	v, err := svc.Create(ctx, v, models.EventFields{Title: "Standup", Date: "2024-03-04", Time: "09:00"})
	if err != nil {
		t.Fatal(err)
	}
	id := v.EventsForDay(4)[0].ID

	v, err = svc.Update(ctx, v, id, models.EventFields{Title: "Retro", Date: "2024-03-05", Time: "16:00"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := v.EventsForDay(5); len(got) != 1 || got[0].Title != "Retro" {
		t.Errorf("day 5 = %+v", got)
	}

	v, err = svc.Delete(ctx, v, id)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Delete(ctx, v, id); err != nil {
		t.Errorf("second Delete: %v", err)
	}
	if len(v.EventsForDay(5)) != 0 {
		t.Errorf("event still visible after delete")
	}
	if _, err := db.GetEvent(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetEvent after delete: %v", err)
	}

	want := []string{ChangeCreated, ChangeUpdated, ChangeDeleted, ChangeDeleted}
	if len(rec.kinds) != len(want) {
		t.Fatalf("notified %v, want %v", rec.kinds, want)
	}
	for i := range want {
		if rec.kinds[i] != want[i] {
			t.Errorf("notification %d = %s, want %s", i, rec.kinds[i], want[i])
		}
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	v, _ := svc.Open(context.Background(), march4)
	got, err := svc.Update(context.Background(), v, "missing", models.EventFields{Title: "x", Date: "2024-03-04", Time: "09:00"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if got != v {
		t.Error("view replaced on not found")
	}
}

func TestDerivedEventsAreReadOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.DeleteEvent(ctx, "national-2024-03-04"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("delete national: %v", err)
	}
	_, err := svc.UpdateEvent(ctx, "worldwide-2024-01-01", models.EventFields{Title: "x", Date: "2024-01-01", Time: "00:00"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("update worldwide: %v", err)
	}
}

func TestNavigate_RecomputesOnlyOnYearChange(t *testing.T) {
	svc, _, agg := newTestService(t)
	ctx := context.Background()

	v, err := svc.Open(ctx, time.Date(2024, time.November, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	v, err = svc.Navigate(ctx, v, 1)
	if err != nil {
		t.Fatal(err)
	}
	if agg.calls != 1 || v.Reference.Month() != time.December {
		t.Errorf("after Nov->Dec: calls = %d, month = %s", agg.calls, v.Reference.Month())
	}
	v, err = svc.Navigate(ctx, v, 1)
	if err != nil {
		t.Fatal(err)
	}
	if agg.calls != 2 || v.Year != 2025 {
		t.Errorf("after Dec->Jan: calls = %d, year = %d", agg.calls, v.Year)
	}
}

func TestView_AcceptDiscardsStaleYear(t *testing.T) {
	v := &View{Reference: march4, Year: 2024}
	if v.Accept(2023, []models.Event{{ID: "stale"}}) {
		t.Error("accepted events of another year")
	}
	if len(v.Events) != 0 {
		t.Errorf("events = %+v", v.Events)
	}
	if !v.Accept(2024, []models.Event{{ID: "fresh"}}) || v.Events[0].ID != "fresh" {
		t.Error("current year rejected")
	}
	if len(v.Grid()) != calendar.GridCells {
		t.Error("grid size")
	}
}

func TestEventsOn(t *testing.T) {
	svc, _, _ := newTestService(t)
	events, err := svc.EventsOn(context.Background(), "2024-03-04")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Scope != models.ScopeNational {
		t.Errorf("events = %+v", events)
	}
	if _, err := svc.EventsOn(context.Background(), "March 4"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad date err = %v", err)
	}
}

func TestNotificationPassthrough(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	if _, err := db.CreateNotification(ctx, models.Notification{EventID: "e1", Type: models.NotificationUpcoming, Message: "soon"}); err != nil {
		t.Fatal(err)
	}
	list, err := svc.Notifications(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("Notifications = %+v, %v", list, err)
	}
	if err := svc.MarkNotificationRead(ctx, list[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DismissNotification(ctx, list[0].ID); err != nil {
		t.Fatal(err)
	}
	list, _ = svc.Notifications(ctx)
	if len(list) != 0 {
		t.Errorf("after dismiss = %+v", list)
	}
}

func TestOpen_DecemberGridIncludesNextYearHolidays(t *testing.T) {
	db := testutil.TestStore(t)
	src := &testutil.FakeSource{Holidays: map[int][]holidays.Holiday{
		2025: {{Date: "2025-01-01", LocalName: "Año Nuevo", Name: "New Year's Day"}},
	}}
	svc := NewService(db, db, calendar.NewAggregator(db, db, src, "ES"))
	ctx := context.Background()

	if _, err := svc.CreateEvent(ctx, models.EventFields{Title: "Brunch", Date: "2025-01-02", Time: "11:00"}); err != nil {
		t.Fatal(err)
	}
	v, err := svc.Open(ctx, time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	scopes := map[models.Scope]int{}
	for _, e := range v.EventsOn("2025-01-01") {
		scopes[e.Scope]++
	}
	if scopes[models.ScopeNational] != 1 || scopes[models.ScopeWorldwide] != 1 {
		t.Errorf("2025-01-01 scopes = %v, want one national and one worldwide", scopes)
	}
	if got := v.EventsOn("2025-01-02"); len(got) != 1 || got[0].Title != "Brunch" {
		t.Errorf("2025-01-02 = %+v", got)
	}
	for _, e := range v.Adjacent {
		if e.Date > "2025-01-11" {
			t.Errorf("adjacent event %s outside the grid", e.Date)
		}
	}
}

func TestNavigate_RecomputesAdjacent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.Open(ctx, time.Date(2024, time.November, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Adjacent) != 0 {
		t.Errorf("November adjacent = %+v", v.Adjacent)
	}
	v, err = svc.Navigate(ctx, v, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.EventsOn("2025-01-01")) != 1 {
		t.Errorf("December grid misses 2025-01-01: %+v", v.Adjacent)
	}
}

type flakyAggregator struct {
	Aggregator
	fail bool
}

func (f *flakyAggregator) EventsForYear(ctx context.Context, year int) ([]models.Event, error) {
	if f.fail {
		return nil, apperr.ErrStorage
	}
	return f.Aggregator.EventsForYear(ctx, year)
}

func TestCreate_RefreshFailureAfterWrite(t *testing.T) {
	db := testutil.TestStore(t)
	agg := &flakyAggregator{Aggregator: calendar.NewAggregator(db, db, nil, "")}
	svc := NewService(db, db, agg)
	ctx := context.Background()

	v, err := svc.Open(ctx, march4)
	if err != nil {
		t.Fatal(err)
	}
	agg.fail = true
	got, err := svc.Create(ctx, v, models.EventFields{Title: "Standup", Date: "2024-03-04", Time: "09:00"})
	if !errors.Is(err, ErrRefresh) || !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("err = %v, want ErrRefresh wrapping ErrStorage", err)
	}
	if got != v {
		t.Error("view replaced although refresh failed")
	}
	stored, err := db.ListByScope(ctx, models.ScopePersonal)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Errorf("stored = %d, want the write to persist", len(stored))
	}
}
