package db

import "testing"

func TestNormalizeDSN(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"url passthrough", "postgres://u:p@localhost:5432/orderflow", "postgres://u:p@localhost:5432/orderflow"},
		{"quoted url", `"postgresql://u:p@db/orderflow"`, "postgresql://u:p@db/orderflow"},
		{"kv gets sslmode", "host=localhost user=app dbname=orderflow", "host=localhost user=app dbname=orderflow sslmode=disable"},
		{"kv keeps sslmode", "host=db dbname=orderflow sslmode=require", "host=db dbname=orderflow sslmode=require"},
		{"kv whitespace collapsed", "  host=db   dbname=orderflow sslmode=disable ", "host=db dbname=orderflow sslmode=disable"},
		{"sqlite path untouched", "orderflow.db", "orderflow.db"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		if got := NormalizeDSN(tc.in); got != tc.want {
			t.Errorf("%s: NormalizeDSN(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestIsPostgresDSN(t *testing.T) {
	if !IsPostgresDSN("postgres://u:p@localhost/orderflow") {
		t.Error("url DSN not detected")
	}
	if !IsPostgresDSN("host=localhost user=app dbname=orderflow") {
		t.Error("kv DSN not detected")
	}
	if IsPostgresDSN("orderflow.db") {
		t.Error("sqlite path misdetected as postgres")
	}
	if IsPostgresDSN("") {
		t.Error("empty DSN misdetected as postgres")
	}
}
