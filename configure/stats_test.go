package configure

import "testing"

func TestStatsSnapshotRoundTrip(t *testing.T) {
	Stats.SetSnapshot("test/status", `{"records":3}`)
	got, err := Stats.GetSnapshot("test/status")
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"records":3}` {
		t.Fatalf("snapshot %q", got)
	}

	Stats.SetSnapshot("test/status", `{"records":4}`)
	got, err = Stats.GetSnapshot("test/status")
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"records":4}` {
		t.Fatalf("snapshot after overwrite %q", got)
	}

	if !Stats.DeleteSnapshot("test/status") {
		t.Fatal("delete failed")
	}
	if _, err := Stats.GetSnapshot("test/status"); err == nil {
		t.Fatal("expected missing snapshot error")
	}
}

func TestStatsMissingKey(t *testing.T) {
	if _, err := Stats.GetSnapshot("test/none"); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if Stats.DeleteSnapshot("test/none") {
		t.Fatal("delete of unknown key must report false")
	}
}

func TestDefaults(t *testing.T) {
	if got := Config.GetInt("buffer_packets"); got != 512 {
		t.Fatalf("buffer_packets default %d", got)
	}
	if got := Config.GetInt("max_input_packets"); got != 128 {
		t.Fatalf("max_input_packets default %d", got)
	}
	if got := Config.GetInt64("align_ms"); got != 5 {
		t.Fatalf("align_ms default %d", got)
	}
	if got := Config.GetInt("watermark"); got != 10 {
		t.Fatalf("watermark default %d", got)
	}
	if got := Config.GetString("csv_separator"); got != "," {
		t.Fatalf("csv_separator default %q", got)
	}
	if got := Config.GetInt64("latency"); got != 0 {
		t.Fatalf("latency default %d", got)
	}
}
