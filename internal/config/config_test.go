package config

import "testing"

func TestEnvIntReturnsDefaultWhenUnset(t *testing.T) {
	t.Setenv("SCHEMAFORGE_TEST_INT", "")
	if v := envInt("SCHEMAFORGE_TEST_INT", 42); v != 42 {
		t.Fatalf("envInt = %d, want 42", v)
	}
}

func TestEnvIntParsesSetValue(t *testing.T) {
	t.Setenv("SCHEMAFORGE_TEST_INT", "7")
	if v := envInt("SCHEMAFORGE_TEST_INT", 42); v != 7 {
		t.Fatalf("envInt = %d, want 7", v)
	}
}

func TestEnvIntFallsBackToDefaultOnGarbage(t *testing.T) {
	t.Setenv("SCHEMAFORGE_TEST_INT", "not-a-number")
	if v := envInt("SCHEMAFORGE_TEST_INT", 42); v != 42 {
		t.Fatalf("envInt = %d, want default 42 on parse failure", v)
	}
}

func TestEnvBoolParsesTrueAndFalse(t *testing.T) {
	t.Setenv("SCHEMAFORGE_TEST_BOOL", "false")
	if v := envBool("SCHEMAFORGE_TEST_BOOL", true); v != false {
		t.Fatalf("envBool = %v, want false", v)
	}
	t.Setenv("SCHEMAFORGE_TEST_BOOL", "true")
	if v := envBool("SCHEMAFORGE_TEST_BOOL", false); v != true {
		t.Fatalf("envBool = %v, want true", v)
	}
}

func TestEnvBoolFallsBackToDefaultOnGarbage(t *testing.T) {
	t.Setenv("SCHEMAFORGE_TEST_BOOL", "maybe")
	if v := envBool("SCHEMAFORGE_TEST_BOOL", true); v != true {
		t.Fatalf("envBool = %v, want default true on parse failure", v)
	}
}

func TestEnvCSVSplitsAndTrimsEntries(t *testing.T) {
	t.Setenv("SCHEMAFORGE_TEST_CSV", "a, b ,, c")
	got := envCSV("SCHEMAFORGE_TEST_CSV", []string{"default"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("envCSV = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("envCSV = %v, want %v", got, want)
		}
	}
}

func TestEnvCSVReturnsDefaultWhenUnset(t *testing.T) {
	t.Setenv("SCHEMAFORGE_TEST_CSV", "")
	got := envCSV("SCHEMAFORGE_TEST_CSV", []string{"default"})
	if len(got) != 1 || got[0] != "default" {
		t.Fatalf("envCSV = %v, want [default]", got)
	}
}

func TestFirstNonEmptyReturnsFirstNonBlankValue(t *testing.T) {
	if v := firstNonEmpty("", "  ", "x", "y"); v != "x" {
		t.Fatalf("firstNonEmpty = %q, want x", v)
	}
}

func TestFirstNonEmptyReturnsEmptyWhenAllBlank(t *testing.T) {
	if v := firstNonEmpty("", "  "); v != "" {
		t.Fatalf("firstNonEmpty = %q, want empty", v)
	}
}
