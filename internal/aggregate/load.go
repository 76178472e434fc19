package aggregate

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadFile reads the records of one source file. CSV files are read with
// LoadCSV, anything else as a YAML or JSON list.
func LoadFile(path string) ([]Record, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return LoadCSV(path)
	}
	return LoadRecords(path)
}

// LoadRecords reads a YAML (or JSON) list of records. A document with a
// top-level "records" key is also accepted.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read records")
	}
	var list []Record
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc struct {
		Records []Record `yaml:"records"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse records %s", filepath.Base(path))
	}
	return doc.Records, nil
}

// LoadCSV reads position records from a CSV with latitude/longitude columns.
// Column detection: lat|latitude|y and lon|lng|long|longitude|x
// (case-insensitive). Other columns become string properties. Rows with
// unparsable coordinates are kept without them so the aggregator reports
// them as skipped.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open csv")
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	recs, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(recs) == 0 {
		return nil, errors.New("empty csv")
	}
	header := recs[0]
	idxLat, idxLon := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "lat", "latitude", "y":
			if idxLat == -1 {
				idxLat = i
			}
		case "lon", "lng", "long", "longitude", "x":
			if idxLon == -1 {
				idxLon = i
			}
		}
	}
	if idxLat == -1 || idxLon == -1 {
		return nil, errors.New("csv: latitude/longitude columns not found")
	}
	out := make([]Record, 0, len(recs)-1)
	for _, row := range recs[1:] {
		rec := Record{}
		for i, v := range row {
			if i == idxLat || i == idxLon || i >= len(header) {
				continue
			}
			rec[strings.TrimSpace(header[i])] = v
		}
		if idxLon < len(row) && idxLat < len(row) {
			lon, err1 := strconv.ParseFloat(strings.TrimSpace(row[idxLon]), 64)
			lat, err2 := strconv.ParseFloat(strings.TrimSpace(row[idxLat]), 64)
			if err1 == nil && err2 == nil {
				rec["latitude"] = lat
				rec["longitude"] = lon
			}
		}
		out = append(out, rec)
	}
	return out, nil
}
