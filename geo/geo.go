// Package geo loads a geonames.org city dump and indexes it for
// name, timezone and coordinate lookups.
package geo

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/sirupsen/logrus"
)

// ErrNoData is returned when the dataset is missing, unreadable, or
// contains no usable rows. Fatal at startup.
var ErrNoData = errors.New("no usable location data")

// Location is one gazetteer entry, immutable after load.
type Location struct {
	CanonicalName  string
	ASCIIName      string
	AlternateNames []string
	Latitude       float64
	Longitude      float64
	CountryCode    string
	Timezone       string
	Population     int64
}

// Geohash returns the location's coordinates as a 9-character geohash.
func (l *Location) Geohash() string {
	return geohash.EncodeWithPrecision(l.Latitude, l.Longitude, 9)
}

// Column layout of the geonames "cities" dumps (cities500.txt,
// cities15000.txt etc). Tab separated, no header.
const (
	colName       = 1
	colASCIIName  = 2
	colAlternates = 3
	colLatitude   = 4
	colLongitude  = 5
	colCountry    = 8
	colPopulation = 14
	colTimezone   = 17

	numColumns = 19
)

// Load reads a geonames cities file. Malformed rows are skipped and
// counted; only a missing/unreadable file or zero valid rows is an error.
func Load(path string) ([]*Location, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	defer f.Close()

	var (
		locations []*Location
		skipped   int
	)

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		loc, ok := parseRow(line)
		if !ok {
			skipped++
			continue
		}
		locations = append(locations, loc)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrNoData, path, err)
	}

	if skipped > 0 {
		logrus.WithFields(logrus.Fields{
			"path":    path,
			"skipped": skipped,
		}).Warn("Skipped malformed location rows")
	}

	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: %s has no valid rows", ErrNoData, path)
	}
	return locations, nil
}

func parseRow(line string) (*Location, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) != numColumns {
		return nil, false
	}

	ascii := strings.TrimSpace(fields[colASCIIName])
	// Drop parenthetical qualifiers, e.g. "Union City (NJ)".
	if i := strings.IndexByte(ascii, '('); i >= 0 {
		ascii = strings.TrimSpace(ascii[:i])
	}
	if ascii == "" {
		return nil, false
	}

	lat, err := strconv.ParseFloat(fields[colLatitude], 64)
	if err != nil {
		return nil, false
	}
	lon, err := strconv.ParseFloat(fields[colLongitude], 64)
	if err != nil {
		return nil, false
	}

	country := strings.ToUpper(strings.TrimSpace(fields[colCountry]))
	if !isCountryCode(country) {
		return nil, false
	}

	tz := strings.TrimSpace(fields[colTimezone])
	if tz == "" {
		return nil, false
	}

	// Population is best-effort; an unparseable value means 0, not a
	// rejected row.
	pop, err := strconv.ParseInt(fields[colPopulation], 10, 64)
	if err != nil || pop < 0 {
		pop = 0
	}

	name := strings.TrimSpace(fields[colName])
	if name == "" {
		name = ascii
	}

	var alternates []string
	if raw := fields[colAlternates]; raw != "" {
		for _, alt := range strings.Split(raw, ",") {
			alt = strings.TrimSpace(alt)
			if alt != "" {
				alternates = append(alternates, alt)
			}
		}
	}

	return &Location{
		CanonicalName:  name,
		ASCIIName:      ascii,
		AlternateNames: alternates,
		Latitude:       lat,
		Longitude:      lon,
		CountryCode:    country,
		Timezone:       tz,
		Population:     pop,
	}, true
}

func isCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
