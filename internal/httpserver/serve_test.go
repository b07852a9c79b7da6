package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"
)

func freeAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().String()
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	addr := freeAddr(t)
	result := make(chan error, 1)
	go func() {
		result <- Serve(ctx, addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "ok")
		}))
	}()

	var res *http.Response
	var err error
	for i := 0; i < 50; i++ {
		res, err = http.Get("http://" + addr + "/")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Unexpected status: %v", res.StatusCode)
	}
	if res.Header.Get("X-Request-Id") == "" {
		t.Fatal("Requests should be tagged with a request id")
	}

	cancel()
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("A cancelled server should return nil, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not stop after cancel")
	}
}

func TestServeReportsListenErrors(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	err = Serve(context.Background(), l.Addr().String(), http.NotFoundHandler())
	if err == nil {
		t.Fatal("Binding to a busy address should fail")
	}
}
