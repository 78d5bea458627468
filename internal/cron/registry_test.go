package cron

import "testing"

func TestRegistryKeepsOrderAndRejectsDuplicates(t *testing.T) {
	first := &testJob{name: "a"}
	second := &testJob{name: "b"}
	registry := NewRegistry(first, nil, second)

	if err := registry.Register(&testJob{name: "a"}); err == nil {
		t.Fatal("expected duplicate name error")
	}
	if err := registry.Register(nil); err != nil {
		t.Fatalf("nil job should be ignored, got %v", err)
	}

	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0] != first || jobs[1] != second {
		t.Fatalf("unexpected jobs: %v", jobs)
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("Jobs must return a copy")
	}
}
