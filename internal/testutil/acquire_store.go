package testutil

import (
	"context"
	"os"

	"github.com/yusong-shen/multi-user-blog/store"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

func AcquireStore(ctx context.Context, t TestLog) (*store.Store, func()) {
	dir, err := os.MkdirTemp("", "blog-tests")
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.Open(ctx, dir)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatal(err)
	}
	return st, func() {
		err := st.Close()
		if err != nil {
			t.Log("unable to close store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

// AcquirePopulatedStore returns a store holding the users and posts
// created by loader.
func AcquirePopulatedStore(ctx context.Context, t TestLog, loader func(context.Context, *store.Store) error) (*store.Store, func()) {
	st, cleanup := AcquireStore(ctx, t)
	if loader != nil {
		if err := loader(ctx, st); err != nil {
			cleanup()
			t.Fatal(err)
		}
	}
	return st, cleanup
}
