package redis

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/celearn/internal/db"
)

func newMockStore(t *testing.T) (*Store, *mock.Client) {
	t.Helper()
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	return newStore(c), c
}

func isDBError(err error, op string) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr) && dbErr.Op == op
}

func TestPing(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	if err := s.Ping(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestWaitForReady_RetriesUntilPong(t *testing.T) {
	s, c := newMockStore(t)
	calls := 0
	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			calls++
			if calls < 3 {
				return mock.ErrorResult(errors.New("connection refused"))
			}
			return mock.Result(mock.RedisString("PONG"))
		}).Times(3)

	if err := s.WaitForReady(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).
		AnyTimes()

	err := s.WaitForReady(context.Background(), 250*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestHSet_SortedFields(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("HSET", "celearn:run:1:partials", "A", "1", "B", "2")).
		Return(mock.Result(mock.RedisInt64(2)))

	err := s.HSet(context.Background(), "celearn:run:1:partials", map[string]string{"B": "2", "A": "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSet_EmptyIsNoop(t *testing.T) {
	s, _ := newMockStore(t)
	if err := s.HSet(context.Background(), "k", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHGetAll(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "k")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"f1": mock.RedisString("v1"),
			"f2": mock.RedisString("v2"),
		})))

	m, err := s.HGetAll(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 2 || m["f1"] != "v1" || m["f2"] != "v2" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestHLen(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("HLEN", "k")).
		Return(mock.Result(mock.RedisInt64(7)))

	n, err := s.HLen(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Errorf("HLen = %d, want 7", n)
	}
}

func TestCommandErrorsAreWrapped(t *testing.T) {
	boom := errors.New("boom")
	ctx := context.Background()

	tests := []struct {
		op   string
		call func(s *Store) error
	}{
		{db.OpHSet, func(s *Store) error { return s.HSet(ctx, "k", map[string]string{"f": "v"}) }},
		{db.OpHGetAll, func(s *Store) error { _, err := s.HGetAll(ctx, "k"); return err }},
		{db.OpHLen, func(s *Store) error { _, err := s.HLen(ctx, "k"); return err }},
		{db.OpDel, func(s *Store) error { return s.Del(ctx, "k") }},
		{db.OpExists, func(s *Store) error { _, err := s.Exists(ctx, "k"); return err }},
		{db.OpScan, func(s *Store) error { _, err := s.Scan(ctx, "k*"); return err }},
		{db.OpGet, func(s *Store) error { _, err := s.Get(ctx, "k"); return err }},
		{db.OpSet, func(s *Store) error { return s.Set(ctx, "k", []byte("v")) }},
		{db.OpSet, func(s *Store) error { return s.SetWithTTL(ctx, "k", []byte("v"), time.Minute) }},
		{db.OpExpire, func(s *Store) error { return s.Expire(ctx, "k", time.Minute, false) }},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(boom))

			err := tt.call(s)
			if !isDBError(err, tt.op) {
				t.Fatalf("expected db.Error{Op: %s}, got %v", tt.op, err)
			}
			if !errors.Is(err, boom) {
				t.Errorf("cause lost: %v", err)
			}
		})
	}
}

func TestExists(t *testing.T) {
	for _, n := range []int64{0, 1} {
		s, c := newMockStore(t)
		c.EXPECT().
			Do(gomock.Any(), mock.Match("EXISTS", "k")).
			Return(mock.Result(mock.RedisInt64(n)))

		got, err := s.Exists(context.Background(), "k")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != (n == 1) {
			t.Errorf("Exists = %v for reply %d", got, n)
		}
	}
}

func TestDel(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "k")).
		Return(mock.Result(mock.RedisInt64(1)))

	if err := s.Del(context.Background(), "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScan_FollowsCursor(t *testing.T) {
	s, c := newMockStore(t)
	page := 0
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "SCAN" })).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			page++
			if page == 1 {
				return mock.Result(mock.RedisArray(
					mock.RedisInt64(17),
					mock.RedisArray(mock.RedisString("celearn:run:a:result")),
				))
			}
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(0),
				mock.RedisArray(mock.RedisString("celearn:run:b:result")),
			))
		}).Times(2)

	keys, err := s.Scan(context.Background(), "celearn:run:*:result")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"celearn:run:a:result", "celearn:run:b:result"}
	if !slices.Equal(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestGet(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.Result(mock.RedisBlobString(`{"id":"1"}`)))

	data, err := s.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"id":"1"}` {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.Result(mock.RedisNil()))

	if _, err := s.Get(context.Background(), "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSetWithTTL(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "EX", "60")).
		Return(mock.Result(mock.RedisString("OK")))

	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetWithTTL_ZeroMeansNoExpiry(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.Result(mock.RedisString("OK")))

	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExpire(t *testing.T) {
	tests := []struct {
		name string
		nx   bool
		want []string
	}{
		{"plain", false, []string{"EXPIRE", "k", "300"}},
		{"nx", true, []string{"EXPIRE", "k", "300", "NX"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().
				Do(gomock.Any(), mock.Match(tt.want...)).
				Return(mock.Result(mock.RedisInt64(1)))

			if err := s.Expire(context.Background(), "k", 5*time.Minute, tt.nx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
