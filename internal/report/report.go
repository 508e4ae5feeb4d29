// Package report renders the mission ledger to the inspection report file.
//
// The report is four comma joined lines: 1-based row numbers, coordinates,
// first pass markers and second pass notes. There is no trailing comma and
// no trailing newline.
package report

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/roman-kulish/waypoint-inspection/internal/mission"
)

const fileMode = 0o644

// Row is one inspected site in report order
type Row struct {
	X, Y   float64
	Marker string // + red, ? yellow or undecided, - green
	Note   string // Second pass verdict label
}

// Labels are the note texts written for each diagnosis
type Labels struct {
	Hazard    string `yaml:"hazard" json:"hazard"`
	Healthy   string `yaml:"healthy" json:"healthy"`
	NonHazard string `yaml:"nonHazard" json:"nonHazard"`
	Unknown   string `yaml:"unknown" json:"unknown"`
}

func DefaultLabels() Labels {
	return Labels{
		Hazard:    "Hazard",
		Healthy:   "Healthy",
		NonHazard: "Non-hazard",
		Unknown:   "Unknown",
	}
}

// For returns the note text of a diagnosis
func (l Labels) For(d mission.Diagnosis) string {
	switch d {
	case mission.DiagnosisHazard:
		return l.Hazard
	case mission.DiagnosisHealthy:
		return l.Healthy
	case mission.DiagnosisNonHazard:
		return l.NonHazard
	default:
		return l.Unknown
	}
}

func (l Labels) Validate() error {
	for _, label := range []string{l.Hazard, l.Healthy, l.NonHazard, l.Unknown} {
		if label == "" {
			return fmt.Errorf("report labels cannot be empty: %+v", l)
		}
		if strings.ContainsAny(label, ",\n") {
			return fmt.Errorf("report label '%s' cannot contain a comma or a newline", label)
		}
	}
	return nil
}

// FromOutcomes converts ledger outcomes into report rows, keeping their order
func FromOutcomes(outcomes []mission.SiteOutcome, labels Labels) []Row {
	rows := make([]Row, len(outcomes))
	for i, o := range outcomes {
		rows[i] = Row{
			X:      o.Waypoint.X,
			Y:      o.Waypoint.Y,
			Marker: o.Marker(),
			Note:   labels.For(o.Diagnosis),
		}
	}
	return rows
}

// FormatCoordinate writes a coordinate in its shortest exact form, 0 and 2.72
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Compile renders rows to the report text
func Compile(rows []Row) string {
	index := make([]string, len(rows))
	coordinates := make([]string, len(rows))
	markers := make([]string, len(rows))
	notes := make([]string, len(rows))

	for i, r := range rows {
		index[i] = strconv.Itoa(i + 1)
		coordinates[i] = "x = " + FormatCoordinate(r.X) + " y = " + FormatCoordinate(r.Y)
		markers[i] = r.Marker
		notes[i] = r.Note
	}

	return strings.Join([]string{
		strings.Join(index, ","),
		strings.Join(coordinates, ","),
		strings.Join(markers, ","),
		strings.Join(notes, ","),
	}, "\n")
}

// WriteFile replaces the file at path with the compiled report
func WriteFile(path string, rows []Row) error {
	if err := os.WriteFile(path, []byte(Compile(rows)), fileMode); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
