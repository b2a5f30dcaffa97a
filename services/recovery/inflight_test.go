package recovery

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestInflightGroup(t *testing.T) {
	key := CompositeKey{AccountID: "12345678901", Channel: ChannelEmail}

	t.Run("first attach owns the call", func(t *testing.T) {
		g := newInflightGroup()
		_, owner := g.attach(key)
		if !owner {
			t.Fatalf("First attach must be the owner")
		}
		_, owner = g.attach(key)
		if owner {
			t.Errorf("Second attach must not be the owner")
		}
		if g.size() != 1 {
			t.Errorf("Expected one in-flight key, got %d", g.size())
		}
	})

	t.Run("complete publishes to every waiter", func(t *testing.T) {
		g := newInflightGroup()
		g.attach(key)

		const waiters = 5
		var wg sync.WaitGroup
		results := make(chan Result, waiters)
		for i := 0; i < waiters; i++ {
			call, owner := g.attach(key)
			if owner {
				t.Fatalf("Waiter must not become owner")
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- g.wait(context.Background(), call)
			}()
		}

		want := Result{Success: true, DestinationMasked: "a***@b***.com"}
		g.complete(key, want)
		wg.Wait()

		close(results)
		for res := range results {
			if res != want {
				t.Errorf("Waiter observed %+v, want %+v", res, want)
			}
		}
		if g.size() != 0 {
			t.Errorf("Expected no in-flight keys after complete, got %d", g.size())
		}
	})

	t.Run("key is attachable again after complete", func(t *testing.T) {
		g := newInflightGroup()
		g.attach(key)
		g.complete(key, Result{Success: true})

		_, owner := g.attach(key)
		if !owner {
			t.Errorf("A completed key must accept a new owner")
		}
	})

	t.Run("canceled waiter stops waiting", func(t *testing.T) {
		g := newInflightGroup()
		g.attach(key)
		call, _ := g.attach(key)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan Result, 1)
		go func() {
			done <- g.wait(ctx, call)
		}()

		select {
		case res := <-done:
			if res.ErrKind != KindTimeout {
				t.Errorf("Expected Timeout for canceled waiter, got %+v", res)
			}
		case <-time.After(time.Second):
			t.Fatalf("Canceled waiter did not return")
		}

		// The owner is unaffected and still holds the key
		if g.size() != 1 {
			t.Errorf("Owner's entry must survive waiter cancellation")
		}
	})

	t.Run("distinct keys do not coalesce", func(t *testing.T) {
		g := newInflightGroup()
		g.attach(key)
		_, owner := g.attach(CompositeKey{AccountID: "12345678901", Channel: ChannelSMS})
		if !owner {
			t.Errorf("A different channel is a different key")
		}
	})
}
