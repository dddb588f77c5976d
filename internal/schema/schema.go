// Package schema maps raw measurement headers onto the canonical column set.
//
// Headers are trimmed and lower-cased, then resolved through a fixed alias
// table (for example "Time" becomes "timestamp" and "GHI_Pyr_1" becomes
// "ghi"). Columns outside the canonical set are dropped. The raw table is
// never modified.
package schema

import (
	"sort"
	"strings"

	"github.com/rewired-gh/solarscope/internal/dataset"
	"github.com/rewired-gh/solarscope/internal/models"
)

// Canonical column names.
const (
	Timestamp = "timestamp"
	GHI       = "ghi"       // global horizontal irradiance, pyranometer 1
	GHI2      = "ghi2"      // global horizontal irradiance, pyranometer 2
	DHI       = "dhi"       // diffuse horizontal irradiance
	DNI       = "dni"       // direct normal irradiance
	GTI       = "gti"       // global tilted irradiance, soiled reference
	Tamb      = "tamb"      // ambient air temperature
	BP        = "bp"        // barometric pressure
	WS        = "ws"        // wind speed
	WD        = "wd"        // wind direction
	Cleaning  = "gti_clean" // cleaning-state indicator
)

// aliases maps normalized raw headers to canonical names.
// Canonical names map to themselves.
var aliases = map[string]string{
	"time":                Timestamp,
	"timestamp":           Timestamp,
	"ghi_pyr_1":           GHI,
	"ghi":                 GHI,
	"ghi_pyr_2":           GHI2,
	"ghi2":                GHI2,
	"dhi_pyr":             DHI,
	"dhi":                 DHI,
	"dni":                 DNI,
	"gti_soil":            GTI,
	"gti":                 GTI,
	"air_temperature":     Tamb,
	"tamb":                Tamb,
	"barometric_pressure": BP,
	"bp":                  BP,
	"wind_speed":          WS,
	"ws":                  WS,
	"wind_from_direction": WD,
	"wd":                  WD,
	"gti_clean":           Cleaning,
}

// Numeric lists every canonical numeric column in table order.
var Numeric = []string{GHI, GHI2, DHI, DNI, GTI, Tamb, BP, WS, WD, Cleaning}

// Irradiance lists the irradiance channels; at least one is mandatory.
var Irradiance = []string{GHI, GHI2, DHI, DNI, GTI}

// OutlierColumns are the columns screened by the z-score detector.
var OutlierColumns = []string{DHI, GHI, GHI2, WS, Tamb}

// CorrelationColumns are the columns of the correlation matrix.
var CorrelationColumns = []string{GHI, GHI2, DHI, Tamb, BP, WS, WD}

// CleaningColumns are averaged per cleaning state.
var CleaningColumns = []string{GHI, DHI, Tamb}

// HistogramDefaults are plotted when no variables are selected.
var HistogramDefaults = []string{GHI, DHI}

// IsNumeric reports whether name is a canonical numeric column.
func IsNumeric(name string) bool {
	for _, c := range Numeric {
		if c == name {
			return true
		}
	}
	return false
}

// Canonical returns the canonical name for a raw header.
func Canonical(header string) (string, bool) {
	name, ok := aliases[strings.ToLower(strings.TrimSpace(header))]
	return name, ok
}

// Normalized is a raw table whose headers have been resolved to canonical
// names. Columns[i] is the source column index of Headers[i] in the raw records.
type Normalized struct {
	Headers []string
	Columns []int
	Dropped []string
	Raw     *dataset.RawTable
}

// Normalize resolves headers and validates the mandatory columns.
// It fails with a *models.SchemaError when the timestamp or every irradiance
// column is missing, or when two headers resolve to the same canonical name.
func Normalize(raw *dataset.RawTable) (*Normalized, error) {
	if raw == nil {
		return nil, &models.SchemaError{Reason: "no table"}
	}

	n := &Normalized{Raw: raw}
	sourceOf := make(map[string]int)
	var dupes []string

	for i, h := range raw.Headers {
		name, ok := Canonical(h)
		if !ok {
			n.Dropped = append(n.Dropped, strings.TrimSpace(h))
			continue
		}
		if _, seen := sourceOf[name]; seen {
			dupes = append(dupes, name)
			continue
		}
		sourceOf[name] = i
	}

	if len(dupes) > 0 {
		sort.Strings(dupes)
		return nil, &models.SchemaError{Duplicate: dupes, Reason: "ambiguous headers"}
	}

	var missing []string
	if _, ok := sourceOf[Timestamp]; !ok {
		missing = append(missing, Timestamp)
	}
	hasIrradiance := false
	for _, c := range Irradiance {
		if _, ok := sourceOf[c]; ok {
			hasIrradiance = true
			break
		}
	}
	if !hasIrradiance {
		missing = append(missing, strings.Join(Irradiance, "|"))
	}
	if len(missing) > 0 {
		return nil, &models.SchemaError{Missing: missing}
	}

	// Timestamp first, then numeric columns in canonical order.
	n.Headers = append(n.Headers, Timestamp)
	n.Columns = append(n.Columns, sourceOf[Timestamp])
	for _, c := range Numeric {
		if idx, ok := sourceOf[c]; ok {
			n.Headers = append(n.Headers, c)
			n.Columns = append(n.Columns, idx)
		}
	}

	return n, nil
}

// NumericHeaders returns the canonical numeric headers, without the timestamp.
func (n *Normalized) NumericHeaders() []string {
	return n.Headers[1:]
}
