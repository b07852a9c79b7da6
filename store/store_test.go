package store

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s, cleanup := tempStore(ctx, t)
	defer cleanup()

	alice, err := s.CreateUser(ctx, "alice", "ABCDE,0123", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	} else if alice.ID == 0 {
		t.Fatal("CreateUser should assign an id")
	}
	bob, err := s.CreateUser(ctx, "bob", "FGHIJ,4567", "")
	if err != nil {
		t.Fatal(err)
	} else if bob.ID == alice.ID {
		t.Fatal("Users should have distinct ids")
	}

	_, err = s.CreateUser(ctx, "alice", "KLMNO,89ab", "")
	if !errors.Is(err, NameTaken{Name: "alice"}) {
		t.Fatalf("Error should be %v got %v", NameTaken{Name: "alice"}, err)
	}

	byID, err := s.LookupUserByID(ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, alice.Name, byID.Name)
	require.Equal(t, alice.PasswordHash, byID.PasswordHash)
	require.Equal(t, alice.Email, byID.Email)
	require.True(t, alice.Created.Equal(byID.Created))

	byName, err := s.LookupUserByName(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	} else if byName.ID != bob.ID {
		t.Fatalf("Lookup by name should return id %v got %v", bob.ID, byName.ID)
	}

	_, err = s.LookupUserByID(ctx, 9999)
	if !errors.Is(err, UserNotFound{ID: 9999}) {
		t.Fatalf("Error should be %v got %v", UserNotFound{ID: 9999}, err)
	}
	_, err = s.LookupUserByName(ctx, "charlie")
	if !errors.Is(err, UserNotFound{Name: "charlie"}) {
		t.Fatalf("Error should be %v got %v", UserNotFound{Name: "charlie"}, err)
	}
	_, err = s.LookupUserByName(ctx, "Alice")
	if !errors.Is(err, UserNotFound{Name: "Alice"}) {
		t.Fatal("Names should be case sensitive")
	}
}

func TestPosts(t *testing.T) {
	ctx := context.Background()
	s, cleanup := tempStore(ctx, t)
	defer cleanup()

	var ids []int64
	for i, subject := range []string{"first", "second", "third"} {
		p, err := s.CreatePost(ctx, subject, "content of "+subject, int64(i))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, p.ID)
	}

	p, err := s.LookupPost(ctx, ids[1])
	if err != nil {
		t.Fatal(err)
	} else if p.Subject != "second" || p.Content != "content of second" || p.AuthorID != 1 {
		t.Fatalf("Unexpected post: %#v", p)
	}

	_, err = s.LookupPost(ctx, 4242)
	if !errors.Is(err, PostNotFound{ID: 4242}) {
		t.Fatalf("Error should be %v got %v", PostNotFound{ID: 4242}, err)
	}

	recent, err := s.RecentPosts(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	var subjects []string
	for _, p := range recent {
		subjects = append(subjects, p.Subject)
	}
	if !reflect.DeepEqual(subjects, []string{"third", "second"}) {
		t.Fatalf("Recent posts should be newest first, got %v", subjects)
	}

	_, err = s.CreatePost(ctx, "", "content", 0)
	if !errors.Is(err, InvalidPost{Field: "subject"}) {
		t.Fatalf("Empty subject should be rejected, got %v", err)
	}
	_, err = s.CreatePost(ctx, "subject", "", 0)
	if !errors.Is(err, InvalidPost{Field: "content"}) {
		t.Fatalf("Empty content should be rejected, got %v", err)
	}
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	dir, err := os.MkdirTemp("", "blog-tests")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	s, err := Open(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	u, err := s.CreateUser(ctx, "alice", "ABCDE,0123", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(ctx, dir)
	if err != nil {
		t.Fatalf("Opening an existing database should not fail: %v", err)
	}
	defer s.Close()
	if _, err := s.LookupUserByID(ctx, u.ID); err != nil {
		t.Fatalf("User should survive a reopen: %v", err)
	}
}

type countingLookup struct {
	users map[int64]User
	calls int
}

func (c *countingLookup) LookupUserByID(ctx context.Context, id int64) (User, error) {
	c.calls++
	u, ok := c.users[id]
	if !ok {
		return User{}, UserNotFound{ID: id}
	}
	return u, nil
}

func TestUserCache(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	src := &countingLookup{users: map[int64]User{
		1: {ID: 1, Name: "alice", PasswordHash: "ABCDE,0123", Created: created},
	}}
	cache, err := NewUserCache(src, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	for i := 0; i < 3; i++ {
		u, err := cache.LookupUserByID(ctx, 1)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, src.users[1], u)
	}
	if src.calls != 1 {
		t.Fatalf("Cached lookups should hit the source once, got %v calls", src.calls)
	}

	for i := 0; i < 2; i++ {
		_, err = cache.LookupUserByID(ctx, 2)
		if !errors.Is(err, UserNotFound{ID: 2}) {
			t.Fatalf("Error should be %v got %v", UserNotFound{ID: 2}, err)
		}
	}
	if src.calls != 3 {
		t.Fatalf("Missing users should not be cached, got %v calls", src.calls)
	}
}

func tempStore(ctx context.Context, t interface {
	Fatal(...interface{})
	Log(...interface{})
}) (*Store, func()) {
	dir, err := os.MkdirTemp("", "blog-tests")
	if err != nil {
		t.Fatal(err)
	}
	s, err := Open(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	return s, func() {
		err := s.Close()
		if err != nil {
			t.Log("unable to close store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

func TestUserCacheCorruptedEntry(t *testing.T) {
	ctx := context.Background()
	src := &countingLookup{users: map[int64]User{
		7: {ID: 7, Name: "dave", PasswordHash: "ABCDE,0123"},
	}}
	cache, err := NewUserCache(src, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	require.NoError(t, cache.cache.Set("7", []byte("not json")))
	u, err := cache.LookupUserByID(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, src.users[7], u)
	require.Equal(t, 1, src.calls)

	// the broken entry was replaced by a valid one
	u, err = cache.LookupUserByID(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, src.users[7], u)
	require.Equal(t, 1, src.calls)
}
