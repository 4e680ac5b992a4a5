package spatial

import "math"

// transverseMercator is a Gauss-Krüger style projection on an ellipsoid,
// implemented with the standard Snyder series expansions. Good to well under
// a millimeter over a national-scale zone, which is orders of magnitude
// tighter than gauge coordinates need.
type transverseMercator struct {
	a      float64 // semi-major axis, meters
	invF   float64 // inverse flattening
	lat0   float64 // latitude of natural origin, degrees
	lon0   float64 // longitude of natural origin, degrees
	k0     float64 // scale factor at natural origin
	falseE float64 // false easting, meters
	falseN float64 // false northing, meters
}

// origenNacional is EPSG:9377, MAGNA-SIRGAS / Origen-Nacional: the single
// national transverse Mercator zone for Colombia on the GRS80 ellipsoid.
var origenNacional = transverseMercator{
	a:      6378137.0,
	invF:   298.257222101,
	lat0:   4.0,
	lon0:   -73.0,
	k0:     0.9992,
	falseE: 5000000.0,
	falseN: 2000000.0,
}

func (tm transverseMercator) e2() float64 {
	f := 1 / tm.invF
	return f * (2 - f)
}

// meridianArc returns the meridian distance from the equator to latitude phi
// (radians).
func (tm transverseMercator) meridianArc(phi float64) float64 {
	e2 := tm.e2()
	e4 := e2 * e2
	e6 := e4 * e2
	return tm.a * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// Forward projects geographic degrees to (easting, northing) meters.
func (tm transverseMercator) Forward(lon, lat float64) (easting, northing float64) {
	e2 := tm.e2()
	ep2 := e2 / (1 - e2)

	phi := lat * math.Pi / 180
	lam := lon * math.Pi / 180
	lam0 := tm.lon0 * math.Pi / 180
	phi0 := tm.lat0 * math.Pi / 180

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := tm.a / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a1 := (lam - lam0) * cosPhi

	m := tm.meridianArc(phi)
	m0 := tm.meridianArc(phi0)

	easting = tm.falseE + tm.k0*n*(a1+
		(1-t+c)*a1*a1*a1/6+
		(5-18*t+t*t+72*c-58*ep2)*math.Pow(a1, 5)/120)

	northing = tm.falseN + tm.k0*(m-m0+n*tanPhi*(a1*a1/2+
		(5-t+9*c+4*c*c)*math.Pow(a1, 4)/24+
		(61-58*t+t*t+600*c-330*ep2)*math.Pow(a1, 6)/720))
	return easting, northing
}

// Inverse unprojects (easting, northing) meters to geographic degrees.
func (tm transverseMercator) Inverse(easting, northing float64) (lon, lat float64) {
	e2 := tm.e2()
	ep2 := e2 / (1 - e2)
	e4 := e2 * e2
	e6 := e4 * e2

	phi0 := tm.lat0 * math.Pi / 180
	m0 := tm.meridianArc(phi0)

	m := m0 + (northing-tm.falseN)/tm.k0
	mu := m / (tm.a * (1 - e2/4 - 3*e4/64 - 5*e6/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := tm.a / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := tm.a * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := (easting - tm.falseE) / (n1 * tm.k0)

	phi := phi1 - (n1 * tanPhi1 / r1) * (d*d/2 -
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24 +
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)

	lam := tm.lon0*math.Pi/180 + (d-
		(1+2*t1+c1)*d*d*d/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120)/cosPhi1

	return lam * 180 / math.Pi, phi * 180 / math.Pi
}
