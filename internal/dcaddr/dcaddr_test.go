package dcaddr

import "testing"

func TestNewTableSeedsProductionDefaults(t *testing.T) {
	table := NewTable()
	for _, dc := range []int32{1, 2, 3, 4, 5} {
		if !table.Known(dc) {
			t.Fatalf("dc %d not seeded", dc)
		}
	}
	if table.Known(99) {
		t.Fatal("unknown dc reported as known")
	}
}

func TestBestPrefersNonMediaOption(t *testing.T) {
	table := NewTable()
	table.Add(Option{DCID: 2, IPv4: "1.2.3.4", Port: 443, MediaOnly: true})

	best, ok := table.Best(2)
	if !ok {
		t.Fatal("expected a known option")
	}
	if best.MediaOnly {
		t.Fatalf("Best returned media-only option %+v", best)
	}
}

func TestAddUpdatesExistingOption(t *testing.T) {
	table := NewTable(TestOptions)
	table.Add(Option{DCID: 2, IPv4: "149.154.167.40", Port: 443, CDN: true})

	best, ok := table.Best(2)
	if !ok {
		t.Fatal("expected a known option")
	}
	if !best.CDN {
		t.Fatal("Add did not update the existing option in place")
	}
}
