package roles

import "testing"

var ordered = []Role{Viewer, Member, Treasurer, Admin, Owner}

func TestRankTotalOrder(t *testing.T) {
	want := map[Role]int{Owner: 5, Admin: 4, Treasurer: 3, Member: 2, Viewer: 1}
	for r, expected := range want {
		if got := Rank(r); got != expected {
			t.Fatalf("Rank(%s) = %d, want %d", r, got, expected)
		}
	}
	if got := Rank(Role("SUPERUSER")); got != 0 {
		t.Fatalf("unknown role should rank 0, got %d", got)
	}
}

func TestOutranksOrEqualsMatchesRank(t *testing.T) {
	for _, a := range ordered {
		for _, b := range ordered {
			want := Rank(a) >= Rank(b)
			if got := OutranksOrEquals(a, b); got != want {
				t.Fatalf("OutranksOrEquals(%s, %s) = %v, want %v", a, b, got, want)
			}
		}
	}
}

func TestOutranksOrEqualsReflexiveTransitive(t *testing.T) {
	for _, r := range ordered {
		if !OutranksOrEquals(r, r) {
			t.Fatalf("relation not reflexive for %s", r)
		}
	}
	for _, a := range ordered {
		for _, b := range ordered {
			for _, c := range ordered {
				if OutranksOrEquals(a, b) && OutranksOrEquals(b, c) && !OutranksOrEquals(a, c) {
					t.Fatalf("relation not transitive for %s >= %s >= %s", a, b, c)
				}
			}
		}
	}
}

func TestOutranksStrict(t *testing.T) {
	if Outranks(Admin, Admin) {
		t.Fatal("a role must not strictly outrank itself")
	}
	if !Outranks(Owner, Admin) {
		t.Fatal("owner must outrank admin")
	}
	if Outranks(Viewer, Member) {
		t.Fatal("viewer must not outrank member")
	}
}

func TestValid(t *testing.T) {
	for _, r := range ordered {
		if !Valid(r) {
			t.Fatalf("%s should be valid", r)
		}
	}
	if Valid(Role("owner")) {
		t.Fatal("role names are case sensitive")
	}
	if Valid(Role("")) {
		t.Fatal("empty role should be invalid")
	}
}
