package service

import (
	"testing"
	"time"
)

func TestTimeCacheFound(t *testing.T) {
	tc := NewTimeCache[requestKey](time.Minute)
	defer tc.Close()

	tc.Add(requestKey{peer: "a", id: 1})

	if !tc.Has(requestKey{peer: "a", id: 1}) {
		t.Fatal("should have this key")
	}
	if tc.Has(requestKey{peer: "b", id: 1}) {
		t.Fatal("ids of different peers must not collide")
	}
}

func TestTimeCacheExpire(t *testing.T) {
	sweepInterval = 50 * time.Millisecond

	tc := NewTimeCache[int](200 * time.Millisecond)
	defer tc.Close()
	for i := 0; i < 4; i++ {
		tc.Add(i)
		time.Sleep(time.Millisecond * 50)
	}

	time.Sleep(210 * time.Millisecond)
	for i := 0; i < 4; i++ {
		if tc.Has(i) {
			t.Fatalf("should have dropped this key %d", i)
		}
	}
}

func TestTimeCacheReaddBeforeExpire(t *testing.T) {
	sweepInterval = 50 * time.Millisecond

	tc := NewTimeCache[string](200 * time.Millisecond)
	defer tc.Close()
	tc.Add("test")

	time.Sleep(150 * time.Millisecond)
	if !tc.CheckAndAdd("test") {
		t.Fatal("should report the live key")
	}

	time.Sleep(100 * time.Millisecond)

	if tc.Has("test") {
		t.Fatal("should have dropped this from the cache")
	}
}

func TestTimeCacheReaddAfterExpire(t *testing.T) {
	sweepInterval = 50 * time.Millisecond

	tc := NewTimeCache[string](200 * time.Millisecond)
	defer tc.Close()
	tc.Add("test")

	time.Sleep(300 * time.Millisecond)
	if tc.CheckAndAdd("test") {
		t.Fatal("an expired key should count as new")
	}

	time.Sleep(50 * time.Millisecond)

	if !tc.Has("test") {
		t.Fatal("should have this key")
	}
}
