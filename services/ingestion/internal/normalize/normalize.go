// Package normalize maps one upstream safe182 item onto a missing-person record.
// Every field degrades on its own; a malformed field never rejects the record.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/example/findme-platform/internal/geocode"
	"github.com/example/findme-platform/internal/records"
	"github.com/example/findme-platform/services/ingestion/internal/safe182"
)

const UnknownAddress = "address unknown"

// ID is the record identifier: the upstream unique code, else name_age.
// The fallback cannot tell apart two people sharing name and age.
func ID(it safe182.Item) string {
	if code := strings.TrimSpace(it.Code.String()); code != "" {
		return code
	}
	return strings.TrimSpace(it.Name.String()) + "_" + strconv.Itoa(Age(it))
}

// Record builds the stored form of it. now stamps missing_date when the
// upstream date is absent or invalid, and created_at.
func Record(it safe182.Item, now time.Time, geo geocode.Geocoder) records.MissingPerson {
	if geo == nil {
		geo = geocode.Lookup
	}
	addr := strings.TrimSpace(it.Address.String())
	if addr == "" {
		addr = UnknownAddress
	}
	loc := geo(addr)
	age := Age(it)

	p := records.MissingPerson{
		ID:          ID(it),
		Name:        strings.TrimSpace(it.Name.String()),
		Age:         age,
		Gender:      Gender(it.Gender.String()),
		Location:    records.Location{Lat: loc.Lat, Lng: loc.Lng, Address: loc.Address},
		PhotoURL:    photoURL(it),
		MissingDate: MissingDate(it.OccurredOn.String(), now),
		Category:    Category(it.TargetCode.String(), age),
		Status:      records.StatusActive,
		Source:      records.SourceAPI,
		Physical:    physical(it),
		CreatedAt:   now.UTC(),
	}
	p.Description = describe(p)
	return p
}

func Gender(raw string) records.Gender {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "남자", "남", "M", "MALE":
		return records.GenderMale
	case "여자", "여", "F", "FEMALE":
		return records.GenderFemale
	default:
		return records.GenderUnknown
	}
}

// Age tries age, then ageNow. Negative or unparsable values yield 0.
func Age(it safe182.Item) int {
	for _, v := range []safe182.Text{it.Age, it.AgeNow} {
		if n, ok := v.Int(); ok && n >= 0 {
			return n
		}
	}
	return 0
}

// Category maps the upstream target code. Unmapped codes fall back on age.
func Category(code string, age int) records.Category {
	switch strings.TrimSpace(code) {
	case "010", "011", "012", "013":
		return records.CategoryMissingChild
	case "020":
		return records.CategoryRunaway
	case "040":
		return records.CategoryFacility
	case "060", "061", "062":
		return records.CategoryDisabled
	case "070":
		return records.CategoryDementia
	case "080":
		return records.CategoryUnknown
	}
	if age < 18 {
		return records.CategoryMissingChild
	}
	return records.CategoryRunaway
}

// MissingDate parses an 8-digit YYYYMMDD value as a UTC date. Anything else,
// including impossible calendar dates, yields now.
func MissingDate(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if len(raw) != 8 {
		return now.UTC()
	}
	t, err := time.Parse("20060102", raw)
	if err != nil {
		return now.UTC()
	}
	return t.UTC()
}

func photoURL(it safe182.Item) *string {
	code := strings.TrimSpace(it.Code.String())
	n, ok := it.PhotoLength.Int()
	if code == "" || !ok || n <= 0 {
		return nil
	}
	u := safe182.PhotoURL(code)
	return &u
}

func physical(it safe182.Item) records.Physical {
	h, _ := it.Height.Int()
	w, _ := it.Weight.Int()
	if h < 0 {
		h = 0
	}
	if w < 0 {
		w = 0
	}
	return records.Physical{
		Height:    h,
		Weight:    w,
		BodyType:  it.BodyType.String(),
		FaceShape: it.FaceShape.String(),
		HairStyle: it.HairStyle.String(),
		HairColor: it.HairColor.String(),
		Clothing:  it.Clothing.String(),
	}
}

func describe(p records.MissingPerson) string {
	var parts []string
	if p.Physical.Height > 0 {
		parts = append(parts, "키 "+strconv.Itoa(p.Physical.Height)+"cm")
	}
	if p.Physical.Weight > 0 {
		parts = append(parts, "체중 "+strconv.Itoa(p.Physical.Weight)+"kg")
	}
	for _, s := range []string{p.Physical.BodyType, p.Physical.FaceShape, p.Physical.HairStyle, p.Physical.HairColor} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if p.Physical.Clothing != "" {
		parts = append(parts, "착의: "+p.Physical.Clothing)
	}
	return strings.Join(parts, ", ")
}
