// Package geocode resolves Korean addresses to an approximate coordinate
// from a fixed region table. It never fails and performs no I/O.
package geocode

import (
	"strings"
	"unicode/utf8"
)

type Result struct {
	Lat     float64
	Lng     float64
	Address string
}

type region struct {
	name     string
	lat, lng float64
}

// Seoul city hall; used when no region matches.
const (
	DefaultLat = 37.5665
	DefaultLng = 126.9780
)

var regions = []region{
	{"서울특별시", 37.5665, 126.9780},
	{"서울", 37.5665, 126.9780},
	{"부산광역시", 35.1796, 129.0756},
	{"부산", 35.1796, 129.0756},
	{"대구광역시", 35.8714, 128.6014},
	{"대구", 35.8714, 128.6014},
	{"인천광역시", 37.4563, 126.7052},
	{"인천", 37.4563, 126.7052},
	{"광주광역시", 35.1595, 126.8526},
	{"광주", 35.1595, 126.8526},
	{"대전광역시", 36.3504, 127.3845},
	{"대전", 36.3504, 127.3845},
	{"울산광역시", 35.5384, 129.3114},
	{"울산", 35.5384, 129.3114},
	{"세종특별자치시", 36.4800, 127.2890},
	{"세종", 36.4800, 127.2890},
	{"경기도", 37.4138, 127.5183},
	{"경기", 37.4138, 127.5183},
	{"강원특별자치도", 37.8228, 128.1555},
	{"강원도", 37.8228, 128.1555},
	{"강원", 37.8228, 128.1555},
	{"충청북도", 36.6358, 127.4914},
	{"충북", 36.6358, 127.4914},
	{"충청남도", 36.5184, 126.8000},
	{"충남", 36.5184, 126.8000},
	{"전북특별자치도", 35.7175, 127.1530},
	{"전라북도", 35.7175, 127.1530},
	{"전북", 35.7175, 127.1530},
	{"전라남도", 34.8161, 126.4629},
	{"전남", 34.8161, 126.4629},
	{"경상북도", 36.4919, 128.8889},
	{"경북", 36.4919, 128.8889},
	{"경상남도", 35.4606, 128.2132},
	{"경남", 35.4606, 128.2132},
	{"제주특별자치도", 33.4996, 126.5312},
	{"제주도", 33.4996, 126.5312},
	{"제주", 33.4996, 126.5312},
}

// Lookup returns the coordinate of the region named earliest in address.
// Equal positions prefer the longer name, then table order. The address is
// echoed back verbatim.
func Lookup(address string) Result {
	best, bestPos, bestLen := -1, 0, 0
	for i, r := range regions {
		pos := strings.Index(address, r.name)
		if pos < 0 {
			continue
		}
		n := utf8.RuneCountInString(r.name)
		if best < 0 || pos < bestPos || (pos == bestPos && n > bestLen) {
			best, bestPos, bestLen = i, pos, n
		}
	}
	if best < 0 {
		return Result{Lat: DefaultLat, Lng: DefaultLng, Address: address}
	}
	return Result{Lat: regions[best].lat, Lng: regions[best].lng, Address: address}
}

// Geocoder is the injectable function form of Lookup.
type Geocoder func(address string) Result
