// Command genmock generates a realistic mock dataset for manual testing and
// demos: a station registry with accented headers, a wide precipitation
// table with no-data sentinels, a semicolon-delimited ONI series with comma
// decimals and Spanish months, and a zipped EPSG:9377 shapefile. Output is
// deterministic so fixtures can be regenerated without churn.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock
package main

import (
	"archive/zip"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/hidromet/rainfall-enso-etl/internal/spatial"
)

type mockStation struct {
	id           string
	name         string
	municipality string
	lon, lat     float64
}

// Antioquia-region gauges; ids carry leading zeros the way registry exports do.
var mockStations = []mockStation{
	{id: "026250040", name: "LA SELVA [26250040]", municipality: "Rionegro", lon: -75.42, lat: 6.13},
	{id: "027010890", name: "OLAYA HERRERA", municipality: "Medellín", lon: -75.59, lat: 6.22},
	{id: "026255110", name: "EL RETIRO", municipality: "El Retiro", lon: -75.50, lat: 6.06},
	{id: "023060300", name: "TULIO OSPINA", municipality: "Bello", lon: -75.55, lat: 6.33},
	{id: "026240180", name: "LA FE", municipality: "El Retiro", lon: -75.49, lat: 6.11},
}

// oniSeries is a plausible 2019-2021 stretch: cold onset through late 2020.
var oniSeries = []struct {
	year    int
	month   string
	anomaly string
}{
	{2019, "ene", "0,8"}, {2019, "feb", "0,8"}, {2019, "mar", "0,7"},
	{2019, "abr", "0,7"}, {2019, "may", "0,6"}, {2019, "jun", "0,5"},
	{2019, "jul", "0,3"}, {2019, "ago", "0,1"}, {2019, "sep", "0,1"},
	{2019, "oct", "0,3"}, {2019, "nov", "0,5"}, {2019, "dic", "0,5"},
	{2020, "ene", "0,5"}, {2020, "feb", "0,5"}, {2020, "mar", "0,4"},
	{2020, "abr", "0,2"}, {2020, "may", "-0,1"}, {2020, "jun", "-0,3"},
	{2020, "jul", "-0,4"}, {2020, "ago", "-0,6"}, {2020, "sep", "-0,9"},
	{2020, "oct", "-1,2"}, {2020, "nov", "-1,3"}, {2020, "dic", "-1,2"},
	{2021, "ene", "-1,0"}, {2021, "feb", "-0,9"}, {2021, "mar", "-0,8"},
	{2021, "abr", "-0,7"}, {2021, "may", "-0,5"}, {2021, "jun", "-0,4"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "data/mock", "output directory for generated fixtures")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	if err := writeStations(filepath.Join(*outDir, "estaciones.csv")); err != nil {
		return fmt.Errorf("stations: %w", err)
	}
	nulls, err := writePrecipitation(filepath.Join(*outDir, "precipitacion.csv"))
	if err != nil {
		return fmt.Errorf("precipitation: %w", err)
	}
	if err := writeEnso(filepath.Join(*outDir, "oni.csv")); err != nil {
		return fmt.Errorf("enso: %w", err)
	}
	if err := writeGeometry(filepath.Join(*outDir, "estaciones.zip")); err != nil {
		return fmt.Errorf("geometry: %w", err)
	}

	log.Printf("wrote fixtures to %s", *outDir)
	log.Printf("stations: %d", len(mockStations))
	log.Printf("observations: %d (%d null)", len(oniSeries)*len(mockStations), nulls)
	log.Printf("climate months: %d", len(oniSeries))
	return nil
}

func writeStations(path string) error {
	var b strings.Builder
	b.WriteString("Código Estación,Nombre Estación,Municipio,Longitud,Latitud\n")
	for _, st := range mockStations {
		fmt.Fprintf(&b, "%s,%s,%s,%.2f,%.2f\n", st.id, st.name, st.municipality, st.lon, st.lat)
	}
	return os.WriteFile(path, []byte(b.String()), 0o600)
}

// writePrecipitation emits the wide table: one row per month, one column per
// gauge code, with roughly 8% "n.d" sentinel cells.
func writePrecipitation(path string) (int, error) {
	rng := rand.New(rand.NewSource(42))

	var b strings.Builder
	b.WriteString("fecha")
	for _, st := range mockStations {
		b.WriteString("," + strings.TrimLeft(st.id, "0"))
	}
	b.WriteString("\n")

	nulls := 0
	for _, m := range oniSeries {
		monthNum := monthNumber(m.month)
		fmt.Fprintf(&b, "%04d-%02d", m.year, monthNum)
		for range mockStations {
			if rng.Float64() < 0.08 {
				b.WriteString(",n.d")
				nulls++
				continue
			}
			// Bimodal Andean regime: wetter around April/May and Oct/Nov.
			base := 120.0 + 90.0*seasonality(monthNum)
			fmt.Fprintf(&b, ",%.1f", base+rng.Float64()*60)
		}
		b.WriteString("\n")
	}
	return nulls, os.WriteFile(path, []byte(b.String()), 0o600)
}

func writeEnso(path string) error {
	var b strings.Builder
	b.WriteString("Año;Mes;Anomalia ONI\n")
	for _, m := range oniSeries {
		fmt.Fprintf(&b, "%d;%s;%s\n", m.year, m.month, m.anomaly)
	}
	return os.WriteFile(path, []byte(b.String()), 0o600)
}

// writeGeometry builds a point shapefile in EPSG:9377 planar meters with no
// .prj, exercising the CRS-repair path on load.
func writeGeometry(path string) error {
	dir, err := os.MkdirTemp("", "genmock-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	base := filepath.Join(dir, "estaciones")
	w, err := shp.Create(base+".shp", shp.POINT)
	if err != nil {
		return err
	}
	if err := w.SetFields([]shp.Field{
		shp.StringField("CODIGO", 20),
		shp.StringField("NOMBRE", 40),
	}); err != nil {
		return err
	}
	for i, st := range mockStations {
		x, y := spatial.ProjectOrigenNacional(st.lon, st.lat)
		w.Write(&shp.Point{X: x, Y: y})
		w.WriteAttribute(i, 0, st.id)
		w.WriteAttribute(i, 1, st.name)
	}
	w.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		content, err := os.ReadFile(base + ext)
		if err != nil {
			continue
		}
		member, err := zw.Create("estaciones" + ext)
		if err != nil {
			return err
		}
		if _, err := member.Write(content); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return out.Close()
}

func monthNumber(abbrev string) int {
	order := []string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"}
	for i, m := range order {
		if m == abbrev {
			return i + 1
		}
	}
	return 0
}

// seasonality peaks near April and October, the two Andean wet seasons.
func seasonality(month int) float64 {
	switch month {
	case 4, 5, 10, 11:
		return 1.0
	case 3, 6, 9, 12:
		return 0.5
	default:
		return 0.0
	}
}
