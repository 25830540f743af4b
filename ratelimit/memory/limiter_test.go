package memorylimiter

import (
	"testing"
	"time"
)

func TestAllowNamedEnforcesLimit(t *testing.T) {
	l := New(map[string]Limit{"apply": {Limit: 3, Window: time.Minute}})

	for i := 0; i < 3; i++ {
		ok, err := l.AllowNamed("apply", "user-a")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("attempt %d within the limit must pass", i)
		}
	}
	ok, err := l.AllowNamed("apply", "user-a")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatal("fourth attempt must be denied")
	}

	// Other keys and buckets are independent.
	if ok, _ := l.AllowNamed("apply", "user-b"); !ok {
		t.Fatal("a different key must not be affected")
	}
	if ok, _ := l.AllowNamed("review", "user-a"); !ok {
		t.Fatal("a different bucket must not be affected")
	}
}

func TestAllowNamedWindowSlides(t *testing.T) {
	l := New(map[string]Limit{"apply": {Limit: 1, Window: 20 * time.Millisecond}})

	if ok, _ := l.AllowNamed("apply", "k"); !ok {
		t.Fatal("first attempt must pass")
	}
	if ok, _ := l.AllowNamed("apply", "k"); ok {
		t.Fatal("second attempt inside the window must be denied")
	}
	time.Sleep(30 * time.Millisecond)
	if ok, _ := l.AllowNamed("apply", "k"); !ok {
		t.Fatal("attempt after the window must pass")
	}
}

func TestAllowNamedDefaultBucket(t *testing.T) {
	l := New(map[string]Limit{"default": {Limit: 1, Window: time.Minute}})

	if ok, _ := l.AllowNamed("anything", "k"); !ok {
		t.Fatal("first attempt must pass")
	}
	if ok, _ := l.AllowNamed("anything", "k"); ok {
		t.Fatal("the default limit must apply to unnamed buckets")
	}
}

func TestAllowNamedRequiresBucketAndKey(t *testing.T) {
	l := New(nil)
	if _, err := l.AllowNamed("", "k"); err == nil {
		t.Fatal("empty bucket must error")
	}
	if _, err := l.AllowNamed("b", ""); err == nil {
		t.Fatal("empty key must error")
	}
}
