package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/use-agent/brightscrape/models"
)

func TestCache_SetGet(t *testing.T) {
	c := New(10, time.Hour)
	key := Key("average price?", "gpt-4", "rev-1")

	if _, hit := c.Get(key); hit {
		t.Error("unexpected hit on empty cache")
	}

	c.Set(key, &models.QueryResponse{Response: "about $550k"})
	resp, hit := c.Get(key)
	if !hit {
		t.Fatal("expected cache hit")
	}
	if resp.Response != "about $550k" {
		t.Errorf("response = %q", resp.Response)
	}
}

func TestCache_KeyIncludesDatasetRevision(t *testing.T) {
	a := Key("average price?", "gpt-4", "rev-1")
	b := Key("average price?", "gpt-4", "rev-2")
	if a == b {
		t.Error("answers must not survive a dataset revision change")
	}
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(3, time.Hour)
	for i := 0; i < 5; i++ {
		c.Set(Key(fmt.Sprintf("q%d", i), "gpt-4", "rev"), &models.QueryResponse{})
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.store) > 3 {
		t.Errorf("cache grew to %d entries, capacity 3", len(c.store))
	}
}

func TestCache_ExpiredEntryMisses(t *testing.T) {
	c := New(10, time.Millisecond)
	key := Key("q", "gpt-4", "rev")
	c.Set(key, &models.QueryResponse{})

	c.mu.Lock()
	c.store[key].createdAt = time.Now().Add(-time.Minute)
	c.mu.Unlock()

	if _, hit := c.Get(key); hit {
		t.Error("expired entry must not be served")
	}
}
