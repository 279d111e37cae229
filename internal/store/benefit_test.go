package store

import "testing"

func TestBenefitCRUD(t *testing.T) {
	db := setupStoreTest(t)
	bs := NewBenefitStore(db)

	benefit, err := bs.Create("Cinema Ticket", "One session", "leisure", 50, true)
	if err != nil {
		t.Fatalf("create benefit: %v", err)
	}
	if benefit.Title != "Cinema Ticket" {
		t.Errorf("title = %q, want %q", benefit.Title, "Cinema Ticket")
	}
	if benefit.PointsRequired != 50 {
		t.Errorf("points_required = %d, want 50", benefit.PointsRequired)
	}
	if !benefit.Active {
		t.Error("active = false, want true")
	}

	got, err := bs.GetByID(benefit.ID)
	if err != nil {
		t.Fatalf("get benefit: %v", err)
	}
	if got.Category != "leisure" {
		t.Errorf("category = %q, want %q", got.Category, "leisure")
	}

	updated, err := bs.Update(benefit.ID, "Cinema Ticket", "Two sessions", "leisure", 80)
	if err != nil {
		t.Fatalf("update benefit: %v", err)
	}
	if updated.PointsRequired != 80 {
		t.Errorf("updated points_required = %d, want 80", updated.PointsRequired)
	}

	if err := bs.Delete(benefit.ID); err != nil {
		t.Fatalf("delete benefit: %v", err)
	}
	got, err = bs.GetByID(benefit.ID)
	if err != nil {
		t.Fatalf("get deleted benefit: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted benefit")
	}
}

func TestBenefitSetActive(t *testing.T) {
	db := setupStoreTest(t)
	bs := NewBenefitStore(db)

	benefit, err := bs.Create("Bus Pass", "", "transport", 20, true)
	if err != nil {
		t.Fatalf("create benefit: %v", err)
	}

	deactivated, err := bs.SetActive(benefit.ID, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if deactivated.Active {
		t.Error("active = true after deactivation")
	}

	active, err := bs.ListActive()
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active benefits = %d, want 0", len(active))
	}

	all, err := bs.List()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("all benefits = %d, want 1", len(all))
	}
}

func TestBenefitListActiveOrdering(t *testing.T) {
	db := setupStoreTest(t)
	bs := NewBenefitStore(db)

	if _, err := bs.Create("Zoo Ticket", "", "", 30, true); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := bs.Create("Bus Pass", "", "", 10, true); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := bs.Create("Art Pass", "", "", 30, true); err != nil {
		t.Fatalf("create: %v", err)
	}

	active, err := bs.ListActive()
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("len = %d, want 3", len(active))
	}
	// Cheapest first, ties broken by title.
	want := []string{"Bus Pass", "Art Pass", "Zoo Ticket"}
	for i, title := range want {
		if active[i].Title != title {
			t.Errorf("active[%d].Title = %q, want %q", i, active[i].Title, title)
		}
	}
}
