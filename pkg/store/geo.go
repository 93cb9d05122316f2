package store

import (
	"sort"

	"github.com/arenakv/shardkv/internal/geohash"
)

// GeoAdd encodes (lon, lat) as a 52-bit geohash score and stores it as a
// zset member, per spec.md §4.3.6. Returns false if the coordinates are out
// of range.
func (z *ZSet) GeoAdd(member []byte, lon, lat float64) bool {
	hash, ok := geohash.Encode(lon, lat)
	if !ok {
		return false
	}
	z.Add(member, float64(hash), 0)
	return true
}

// GeoPos decodes member's stored geohash back to an approximate (lon, lat),
// or reports absent.
func (z *ZSet) GeoPos(member []byte) (lon, lat float64, ok bool) {
	score, present := z.Score(member)
	if !present {
		return 0, 0, false
	}
	lon, lat = geohash.Decode(uint64(score))
	return lon, lat, true
}

// GeoDist returns the great-circle distance between two members' positions
// in the requested unit, or reports either as absent.
func (z *ZSet) GeoDist(m1, m2 []byte, unit string) (float64, bool) {
	lon1, lat1, ok1 := z.GeoPos(m1)
	lon2, lat2, ok2 := z.GeoPos(m2)
	if !ok1 || !ok2 {
		return 0, false
	}
	meters := geohash.HaversineMeters(lon1, lat1, lon2, lat2)
	return meters / geohash.UnitToMeters(unit), true
}

// GeoRadiusResult is one hit from a radius search.
type GeoRadiusResult struct {
	Member    []byte
	DistUnits float64
	Lon, Lat  float64
	Hash      uint64
}

// GeoRadius searches members within radiusMeters of (lon, lat): spec.md
// §4.3.6's 3x3-cell candidate scan filtered by true Haversine distance, then
// sorted and limited.
func (z *ZSet) GeoRadius(lon, lat, radiusMeters float64, unit string, count int, asc bool) []GeoRadiusResult {
	cells := geohash.Neighbors(lon, lat, radiusMeters)
	seen := make(map[string]struct{})
	var out []GeoRadiusResult

	for _, cell := range cells {
		matches := z.RangeByScore(float64(cell.Min), float64(cell.Max), false, 0, -1)
		for _, m := range matches {
			key := string(m.Member)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			mlon, mlat := geohash.Decode(uint64(m.Score))
			meters := geohash.HaversineMeters(lon, lat, mlon, mlat)
			if meters > radiusMeters {
				continue
			}
			out = append(out, GeoRadiusResult{
				Member:    m.Member,
				DistUnits: meters / geohash.UnitToMeters(unit),
				Lon:       mlon,
				Lat:       mlat,
				Hash:      uint64(m.Score),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].DistUnits < out[j].DistUnits
		}
		return out[i].DistUnits > out[j].DistUnits
	})
	if count >= 0 && count < len(out) {
		out = out[:count]
	}
	return out
}

// GeoRadiusByMember is GeoRadius centered on an existing member's position.
func (z *ZSet) GeoRadiusByMember(member []byte, radiusMeters float64, unit string, count int, asc bool) ([]GeoRadiusResult, bool) {
	lon, lat, ok := z.GeoPos(member)
	if !ok {
		return nil, false
	}
	return z.GeoRadius(lon, lat, radiusMeters, unit, count, asc), true
}
