package geo

import "math"

const (
	earthRadiusMiles = 3958.8
	milesPerKm       = 0.621371
)

// HaversineMiles calculates the great-circle distance between two points in miles.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

// KmToMiles converts kilometers to miles.
func KmToMiles(km float64) float64 {
	return km * milesPerKm
}

// Destination returns the point reached by travelling distanceMiles from
// (lat, lon) on the initial bearing (degrees clockwise from north).
func Destination(lat, lon, bearingDeg, distanceMiles float64) (float64, float64) {
	ang := distanceMiles / earthRadiusMiles // angular distance
	brg := toRad(bearingDeg)
	lat1 := toRad(lat)
	lon1 := toRad(lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ang) + math.Cos(lat1)*math.Sin(ang)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(math.Sin(brg)*math.Sin(ang)*math.Cos(lat1), math.Cos(ang)-math.Sin(lat1)*math.Sin(lat2))

	return ClampLatitude(toDeg(lat2)), wrapLongitude(toDeg(lon2))
}

// ClampLatitude pins a latitude into [-90, 90].
func ClampLatitude(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// ClampLongitude pins a longitude into [-180, 180].
func ClampLongitude(lon float64) float64 {
	return math.Max(-180, math.Min(180, lon))
}

// ValidCoordinates reports whether the pair lies inside the valid ranges.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func wrapLongitude(lon float64) float64 {
	lon = math.Mod(lon+540, 360) - 180
	return ClampLongitude(lon)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
