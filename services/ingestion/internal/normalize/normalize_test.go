package normalize

import (
	"testing"
	"time"

	"github.com/example/findme-platform/internal/geocode"
	"github.com/example/findme-platform/internal/records"
	"github.com/example/findme-platform/services/ingestion/internal/safe182"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func TestRecord_FullItem(t *testing.T) {
	it := safe182.Item{
		Code: "A1", Name: "홍길동", Age: "7", AgeNow: "9", Gender: "남자",
		OccurredOn: "20240115", Address: "서울특별시 강남구", TargetCode: "010",
		PhotoLength: "2048", Height: "120", Weight: "25", Clothing: "파란 점퍼",
	}
	p := Record(it, fixedNow, nil)

	if p.ID != "A1" || p.Name != "홍길동" || p.Age != 7 || p.Gender != records.GenderMale {
		t.Fatalf("unexpected identity fields: %+v", p)
	}
	if y, m, d := p.MissingDate.Date(); y != 2024 || m != time.January || d != 15 {
		t.Fatalf("expected 2024-01-15, got %s", p.MissingDate)
	}
	if p.Category != records.CategoryMissingChild || p.Status != records.StatusActive || p.Source != records.SourceAPI {
		t.Fatalf("unexpected classification: %+v", p)
	}
	if p.PhotoURL == nil || *p.PhotoURL != safe182.PhotoURL("A1") {
		t.Fatalf("expected photo url, got %v", p.PhotoURL)
	}
	if p.Location.Lat != geocode.DefaultLat || p.Location.Address != "서울특별시 강남구" {
		t.Fatalf("unexpected location: %+v", p.Location)
	}
	if p.Physical.Height != 120 || p.Physical.Clothing != "파란 점퍼" || p.Description == "" {
		t.Fatalf("unexpected physical: %+v / %q", p.Physical, p.Description)
	}
}

func TestRecord_DegradesPerField(t *testing.T) {
	it := safe182.Item{Name: "김영희", Age: "n/a", AgeNow: "81", Gender: "?", OccurredOn: "2024-01", PhotoLength: "500"}
	p := Record(it, fixedNow, nil)

	if p.ID != "김영희_81" {
		t.Fatalf("expected composite id, got %q", p.ID)
	}
	if p.Age != 81 {
		t.Fatalf("expected ageNow fallback, got %d", p.Age)
	}
	if p.Gender != records.GenderUnknown {
		t.Fatalf("expected U, got %s", p.Gender)
	}
	if !p.MissingDate.Equal(fixedNow) {
		t.Fatalf("expected now fallback, got %s", p.MissingDate)
	}
	if p.PhotoURL != nil {
		t.Fatal("photo url requires the unique code")
	}
	if p.Location.Address != UnknownAddress || p.Location.Lat != geocode.DefaultLat {
		t.Fatalf("expected unknown address default, got %+v", p.Location)
	}
	if p.Category != records.CategoryRunaway {
		t.Fatalf("expected adult fallback runaway, got %s", p.Category)
	}
}

func TestRecord_GeocoderCalledOnce(t *testing.T) {
	calls := 0
	var seen string
	geo := func(addr string) geocode.Result {
		calls++
		seen = addr
		return geocode.Result{Lat: 1, Lng: 2, Address: addr}
	}
	p := Record(safe182.Item{Code: "X", Address: "부산 어딘가"}, fixedNow, geo)
	if calls != 1 || seen != "부산 어딘가" {
		t.Fatalf("expected one call with raw address, got %d %q", calls, seen)
	}
	if p.Location.Lat != 1 || p.Location.Lng != 2 {
		t.Fatalf("expected geocoder result, got %+v", p.Location)
	}
}

func TestPhotoURL_ZeroLength(t *testing.T) {
	for _, l := range []safe182.Text{"0", "", "abc"} {
		if p := Record(safe182.Item{Code: "A1", PhotoLength: l}, fixedNow, nil); p.PhotoURL != nil {
			t.Fatalf("length %q: expected no photo url", l)
		}
	}
}

func TestGender(t *testing.T) {
	cases := map[string]records.Gender{
		"남자": records.GenderMale, "남": records.GenderMale, "m": records.GenderMale,
		"여자": records.GenderFemale, "F": records.GenderFemale,
		"": records.GenderUnknown, "기타": records.GenderUnknown,
	}
	for in, want := range cases {
		if got := Gender(in); got != want {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
}

func TestCategory(t *testing.T) {
	cases := []struct {
		code string
		age  int
		want records.Category
	}{
		{"010", 30, records.CategoryMissingChild},
		{"020", 5, records.CategoryRunaway},
		{"040", 40, records.CategoryFacility},
		{"060", 20, records.CategoryDisabled},
		{"061", 20, records.CategoryDisabled},
		{"062", 20, records.CategoryDisabled},
		{"070", 80, records.CategoryDementia},
		{"080", 50, records.CategoryUnknown},
		{"999", 17, records.CategoryMissingChild},
		{"", 18, records.CategoryRunaway},
	}
	for _, tc := range cases {
		if got := Category(tc.code, tc.age); got != tc.want {
			t.Fatalf("%s/%d: expected %s, got %s", tc.code, tc.age, tc.want, got)
		}
	}
}

func TestMissingDate(t *testing.T) {
	if got := MissingDate("20240115", fixedNow); !got.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parse: %s", got)
	}
	for _, bad := range []string{"", "2024011", "20241345", "20240230", "abcdefgh"} {
		if got := MissingDate(bad, fixedNow); !got.Equal(fixedNow) {
			t.Fatalf("%q: expected now fallback, got %s", bad, got)
		}
	}
}

func TestID_Stable(t *testing.T) {
	it := safe182.Item{Name: " 박민수 ", Age: "33"}
	if ID(it) != "박민수_33" || ID(it) != Record(it, fixedNow, nil).ID {
		t.Fatalf("id must be stable and shared with Record: %q", ID(it))
	}
}
