// Package domain models Colombian rain-gauge network data and its monthly
// ENSO (El Niño–Southern Oscillation) classification.
//
// # Data Sources
//
// Three delimited text files plus one geometry archive, all user supplied:
//
//   - Station registry: one row per gauge, with id, name, municipality,
//     department, longitude, latitude and an optional percent-data-complete
//     metric. Headers arrive in Spanish, English, or mixtures of both, with
//     or without accents ("Código", "codigo", "station_id").
//   - Monthly precipitation: wide format, one date row-key column plus one
//     column per station. Station columns carry the numeric gauge code as
//     header. Cells are millimeters, or the "n.d" no-data sentinel.
//   - ENSO index: one row per calendar month with the ONI (Oceanic Niño
//     Index) anomaly and/or a phase label. Months are three-letter Spanish
//     abbreviations ("ene".."dic"); decimals may use commas ("1,2" = 1.2).
//   - Geometry: a zip archive holding exactly one ESRI shapefile of station
//     points or polygons, typically in EPSG:9377 (MAGNA-SIRGAS /
//     Origen-Nacional) and reprojected here to EPSG:4326.
//
// # ENSO Phase Classification
//
// Phase derives from the ONI anomaly with the canonical NOAA thresholds:
//
//	index >= +0.5  warm  (El Niño)
//	index <= -0.5  cold  (La Niña)
//	otherwise      neutral
//
// Sources that ship a phase label keep it, after mapping Spanish and English
// spellings onto the three canonical values.
//
// # Name Matching
//
// Station registries and shapefile attribute tables are never pre-aligned.
// Joins by name first pass both sides through [CleanStationName]: case fold,
// strip diacritics, drop bracketed or parenthetical suffixes, collapse
// whitespace. Matching after cleanup is exact equality only, so every link
// is auditable; there is no fuzzy matching.
package domain
