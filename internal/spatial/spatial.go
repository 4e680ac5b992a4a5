// Package spatial loads the station geometry source, repairs its coordinate
// reference system, reprojects to EPSG:4326, and links geometry records to
// registry stations by normalized name or identifier.
package spatial

import (
	"fmt"
	"os"
	"slices"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
)

// Supported coordinate reference systems.
const (
	EPSGOrigenNacional = 9377 // MAGNA-SIRGAS / Origen-Nacional (projected)
	EPSGWGS84          = 4326 // geographic lon/lat degrees
)

// Options control CRS handling for a geometry source.
type Options struct {
	// DefaultSourceEPSG is assigned when the source declares no CRS. It is
	// never used to overwrite a declared system.
	DefaultSourceEPSG int
}

// LoadShapefile reads every record of a shapefile, derives scalar lon/lat
// per record (point coordinates, or bounding-box centroid for polygons and
// lines), and reprojects to EPSG:4326. The path is the .shp produced by
// loader.ExtractShapefile; a sibling .prj, when present, decides whether the
// data is already geographic.
func LoadShapefile(path string, opts Options) ([]domain.StationGeometry, error) {
	sourceEPSG, err := resolveCRS(path, opts)
	if err != nil {
		return nil, err
	}

	r, err := shp.Open(path)
	if err != nil {
		return nil, &domain.GeometryError{Archive: path, Reason: "open shapefile", Err: err}
	}
	defer r.Close()

	fields := r.Fields()
	fieldNames := make([]string, len(fields))
	for i, f := range fields {
		fieldNames[i] = f.String()
	}
	resolved := domain.ResolveColumns(fieldNames)
	nameIdx := fieldIndex(fieldNames, resolved[domain.FieldStationName])
	idIdx := fieldIndex(fieldNames, resolved[domain.FieldStationID])

	var geoms []domain.StationGeometry
	for r.Next() {
		row, shape := r.Shape()

		x, y, ok := shapeCenter(shape)
		if !ok {
			continue
		}

		lon, lat := x, y
		if sourceEPSG == EPSGOrigenNacional {
			lon, lat = origenNacional.Inverse(x, y)
		}

		g := domain.StationGeometry{
			Longitude: lon,
			Latitude:  lat,
			SourceCRS: fmt.Sprintf("EPSG:%d", sourceEPSG),
		}
		if nameIdx >= 0 {
			g.SourceName = strings.TrimSpace(r.ReadAttribute(row, nameIdx))
		}
		if idIdx >= 0 {
			g.StationID = domain.NormalizeStationID(r.ReadAttribute(row, idIdx))
		}
		geoms = append(geoms, g)
	}
	if err := r.Err(); err != nil {
		return nil, &domain.GeometryError{Archive: path, Reason: "read shapes", Err: err}
	}
	if len(geoms) == 0 {
		return nil, &domain.GeometryError{Archive: path, Reason: "no usable geometry records"}
	}
	return geoms, nil
}

// fieldIndex returns the position of name in names, or -1 when absent.
func fieldIndex(names []string, name string) int {
	return slices.Index(names, name)
}

// resolveCRS applies the assignment rules: a declared geographic .prj is
// honored as-is; a declared projected .prj or a missing one uses the
// configured source system. Only EPSG:9377 and EPSG:4326 are expressible.
func resolveCRS(shpPath string, opts Options) (int, error) {
	declared := opts.DefaultSourceEPSG
	if declared == 0 {
		declared = EPSGOrigenNacional
	}

	prj, err := os.ReadFile(strings.TrimSuffix(shpPath, ".shp") + ".prj")
	if err == nil {
		wkt := strings.ToUpper(string(prj))
		if strings.Contains(wkt, "GEOGCS") && !strings.Contains(wkt, "PROJCS") {
			return EPSGWGS84, nil
		}
	}

	switch declared {
	case EPSGOrigenNacional, EPSGWGS84:
		return declared, nil
	default:
		return 0, &domain.GeometryError{
			Archive: shpPath,
			Reason:  fmt.Sprintf("unsupported source CRS EPSG:%d", declared),
		}
	}
}

// shapeCenter derives a representative coordinate for a shape in source
// units: the point itself, or the bounding-box center for extended shapes.
func shapeCenter(s shp.Shape) (x, y float64, ok bool) {
	switch v := s.(type) {
	case *shp.Point:
		return v.X, v.Y, true
	case *shp.PointZ:
		return v.X, v.Y, true
	case *shp.PointM:
		return v.X, v.Y, true
	case *shp.Null:
		return 0, 0, false
	default:
		box := s.BBox()
		return (box.MinX + box.MaxX) / 2, (box.MinY + box.MaxY) / 2, true
	}
}

// ProjectOrigenNacional converts EPSG:4326 degrees to EPSG:9377 planar
// meters, the inverse of the load-time reprojection. Fixture generators use
// it to produce projected geometry sources.
func ProjectOrigenNacional(lon, lat float64) (easting, northing float64) {
	return origenNacional.Forward(lon, lat)
}

// MatchStations links geometry records to registry stations: by normalized
// id when the attribute table carries one, else by cleaned name. Exact
// equality only; unmatched records are returned untouched and counted.
func MatchStations(geoms []domain.StationGeometry, stations []domain.StationRecord) ([]domain.StationGeometry, int) {
	byID := make(map[string]string, len(stations))
	byName := make(map[string]string, len(stations))
	for _, st := range stations {
		byID[domain.NormalizeStationID(st.ID)] = st.ID
		if clean := domain.CleanStationName(st.Name); clean != "" {
			byName[clean] = st.ID
		}
	}

	misses := 0
	linked := make([]domain.StationGeometry, len(geoms))
	for i, g := range geoms {
		linked[i] = g
		if g.StationID != "" {
			if id, ok := byID[domain.NormalizeStationID(g.StationID)]; ok {
				linked[i].StationID = id
				continue
			}
		}
		if clean := domain.CleanStationName(g.SourceName); clean != "" {
			if id, ok := byName[clean]; ok {
				linked[i].StationID = id
				continue
			}
		}
		linked[i].StationID = ""
		misses++
	}
	return linked, misses
}
