package registry

import (
	"testing"

	"interview-practice-server/internal/domain"
)

func candidate(id, name string) domain.Candidate {
	return domain.Candidate{
		ID:     id,
		Name:   name,
		Email:  name + "@example.com",
		Status: domain.CandidateNotStarted,
	}
}

func TestAddPrependsNewest(t *testing.T) {
	svc := New()
	svc.Add(candidate("1", "First"))
	svc.Add(candidate("2", "Second"))

	all := svc.All()
	if len(all) != 2 {
		t.Fatalf("All() = %d candidates, want 2", len(all))
	}
	if all[0].ID != "2" || all[1].ID != "1" {
		t.Errorf("newest candidate must come first, got %s then %s", all[0].ID, all[1].ID)
	}
}

func TestAddAllowsDuplicateEmails(t *testing.T) {
	svc := New()
	svc.Add(candidate("1", "Jane"))
	svc.Add(domain.Candidate{ID: "2", Name: "Jane Again", Email: "Jane@example.com"})

	if len(svc.All()) != 2 {
		t.Errorf("duplicate emails must create separate entries")
	}
}

func TestUpdateMergesFields(t *testing.T) {
	svc := New()
	svc.Add(candidate("1", "Jane"))

	score := 42
	completed := domain.CandidateCompleted
	updated, ok := svc.Update("1", Patch{Score: &score, Status: &completed})
	if !ok {
		t.Fatalf("Update() did not find the candidate")
	}
	if updated.Score != 42 || updated.Status != domain.CandidateCompleted {
		t.Errorf("Update() = %+v, fields not merged", updated)
	}
	if updated.Name != "Jane" {
		t.Errorf("Update() must not touch fields outside the patch")
	}
}

func TestUpdateMissingCandidateIsNoOp(t *testing.T) {
	svc := New()
	svc.Add(candidate("1", "Jane"))

	if _, ok := svc.Update("ghost", Patch{}); ok {
		t.Errorf("Update(ghost) must report absence")
	}
	if len(svc.All()) != 1 {
		t.Errorf("failed update must not change the registry")
	}
}

func TestDelete(t *testing.T) {
	svc := New()
	svc.Add(candidate("1", "Jane"))

	if !svc.Delete("1") {
		t.Fatalf("Delete(1) = false, want true")
	}
	if svc.Delete("1") {
		t.Errorf("second Delete must report absence")
	}
	if len(svc.All()) != 0 {
		t.Errorf("registry not empty after delete")
	}
}

func TestClearEmptiesRegistry(t *testing.T) {
	svc := New()
	svc.Add(candidate("1", "Jane"))
	svc.Add(candidate("2", "John"))

	var lastLen = -1
	svc.SetOnChange(func(cs []domain.Candidate) { lastLen = len(cs) })

	svc.Clear()
	if len(svc.All()) != 0 {
		t.Errorf("registry not empty after Clear")
	}
	if lastLen != 0 {
		t.Errorf("onChange snapshot had %d candidates, want 0", lastLen)
	}
}

func TestOnChangeFires(t *testing.T) {
	svc := New()

	var calls int
	var lastLen int
	svc.SetOnChange(func(cs []domain.Candidate) {
		calls++
		lastLen = len(cs)
	})

	svc.Add(candidate("1", "Jane"))
	svc.Update("1", Patch{})
	svc.Delete("1")

	if calls != 3 {
		t.Errorf("onChange fired %d times, want 3", calls)
	}
	if lastLen != 0 {
		t.Errorf("last onChange snapshot had %d candidates, want 0", lastLen)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	svc := New()
	svc.Add(candidate("1", "Jane"))

	all := svc.All()
	all[0].Name = "Mutated"

	if got, _ := svc.Get("1"); got.Name != "Jane" {
		t.Errorf("mutating All() result leaked into the registry")
	}
}
