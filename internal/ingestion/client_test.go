package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"lotofacil-lab/internal/domain"
)

// resultsServer serves latest at "/" and numbers[id] at "/{id}".
func resultsServer(t *testing.T, latest int64, numbers map[int64][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.Trim(r.URL.Path, "/")
		id := latest
		if path != "" {
			var err error
			id, err = strconv.ParseInt(path, 10, 64)
			if err != nil {
				http.Error(w, "bad id", http.StatusBadRequest)
				return
			}
		}
		nums, ok := numbers[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"numero":       id,
			"listaDezenas": nums,
			"tipoJogo":     "LOTOFACIL",
		})
	}))
}

func dezenas(numbers ...int) []string {
	out := make([]string, len(numbers))
	for i, n := range numbers {
		out[i] = fmt.Sprintf("%02d", n)
	}
	return out
}

var fifteen = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

func TestHTTPClient_Latest(t *testing.T) {
	server := resultsServer(t, 3100, map[int64][]string{3100: dezenas(fifteen...)})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	latest, err := client.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != 3100 {
		t.Errorf("expected latest 3100, got %d", latest)
	}
}

func TestHTTPClient_Fetch(t *testing.T) {
	nums := []int{25, 3, 7, 1, 9, 11, 13, 15, 17, 19, 21, 23, 2, 4, 6}
	server := resultsServer(t, 12, map[int64][]string{12: dezenas(nums...)})
	defer server.Close()

	client := NewHTTPClient(server.URL + "/")
	d, err := client.Fetch(context.Background(), 12)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if d.ID != 12 {
		t.Errorf("expected id 12, got %d", d.ID)
	}
	want := domain.SortedCopy(nums)
	for i := range want {
		if d.Numbers[i] != want[i] {
			t.Fatalf("expected sorted numbers %v, got %v", want, d.Numbers)
		}
	}
}

func TestHTTPClient_FetchNotPublished(t *testing.T) {
	server := resultsServer(t, 12, map[int64][]string{})
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(0))
	_, err := client.Fetch(context.Background(), 13)
	if !errors.Is(err, ErrDrawNotPublished) {
		t.Errorf("expected ErrDrawNotPublished, got %v", err)
	}
}

func TestHTTPClient_FetchInvalidDraw(t *testing.T) {
	tests := []struct {
		name string
		nums []string
	}{
		{"too few", dezenas(1, 2, 3)},
		{"repeated", dezenas(1, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14)},
		{"out of range", dezenas(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 26)},
		{"not a number", append(dezenas(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14), "xx")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := resultsServer(t, 5, map[int64][]string{5: tt.nums})
			defer server.Close()

			_, err := NewHTTPClient(server.URL).Fetch(context.Background(), 5)
			if !errors.Is(err, domain.ErrInvalidDraw) {
				t.Errorf("expected ErrInvalidDraw, got %v", err)
			}
		})
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"numero": 7, "listaDezenas": dezenas(fifteen...)})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	latest, err := client.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != 7 {
		t.Errorf("expected latest 7, got %d", latest)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestHTTPClient_MaxRetriesExceeded(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(2),
		WithRetryDelay(5*time.Millisecond),
	)

	_, err := client.Latest(context.Background())
	if err == nil {
		t.Fatal("expected error after retries")
	}
	if !strings.Contains(err.Error(), "max retries exceeded") {
		t.Errorf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestHTTPClient_ContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(5),
		WithRetryDelay(time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Latest(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}
