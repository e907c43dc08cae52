package feed

import "testing"

func TestResponse_ValueOrRaisePanicsOnError(t *testing.T) {
	r := newResponse[bool]([]string{"1", "2"})
	r.set("1", true)
	r.setErr("2", ProviderErrorf(nil, "boom"))

	if r.ValueOrRaise("1") != true {
		t.Fatal("expected user 1's value to be true")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected ValueOrRaise to panic for user 2")
		}
	}()
	r.ValueOrRaise("2")
}

func TestResponse_EachIteratesInOrder(t *testing.T) {
	order := []string{"c", "a", "b"}
	r := newResponse[int](order)
	for i, id := range order {
		r.set(id, i)
	}

	var seen []string
	r.Each(func(userID string, value int, err error) {
		seen = append(seen, userID)
	})
	for i, id := range order {
		if seen[i] != id {
			t.Fatalf("expected iteration order %v, got %v", order, seen)
		}
	}
}

func TestResponse_ValueMissingKey(t *testing.T) {
	r := newResponse[int]([]string{"1"})
	if _, ok := r.Value("nope"); ok {
		t.Fatal("expected ok=false for an unknown key")
	}
}
