package enums

import "testing"

func TestParseRoundTrips(t *testing.T) {
	if role, err := ParseUserRole("admin"); err != nil || role != UserRoleAdmin {
		t.Fatalf("expected admin role, got %q err=%v", role, err)
	}
	if _, err := ParseUserRole("owner"); err == nil {
		t.Fatalf("expected owner to be rejected")
	}
	if status, err := ParseLibraryStatus("backlog"); err != nil || !status.IsValid() {
		t.Fatalf("expected backlog status, got %q err=%v", status, err)
	}
	if _, err := ParseLibraryStatus("wishlisted"); err == nil {
		t.Fatalf("expected unknown status to be rejected")
	}
	if field, err := ParseSortField("releaseDate"); err != nil || field != SortFieldReleaseDate {
		t.Fatalf("expected releaseDate, got %q err=%v", field, err)
	}
	if SortOrder("sideways").IsValid() {
		t.Fatalf("sideways is not a sort order")
	}
	if GameTypeDLC.String() != "dlc" {
		t.Fatalf("unexpected string %q", GameTypeDLC.String())
	}
}
