package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/glutensim/internal/metrics"
)

var sampleHeader = []string{"tick", "time", "bonds", "broken", "modulus"}

func WriteSamplesCSV(w io.Writer, samples []metrics.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sampleHeader); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			strconv.FormatUint(s.Tick, 10),
			strconv.FormatFloat(s.Time, 'f', 6, 64),
			strconv.Itoa(s.Bonds),
			strconv.FormatUint(s.Broken, 10),
			strconv.FormatFloat(s.Modulus, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSamplesCSV parses what WriteSamplesCSV wrote. The header row is
// required; a malformed data row is an error naming its line.
func ReadSamplesCSV(r io.Reader) ([]metrics.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(sampleHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header")
	}

	samples := make([]metrics.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		s, err := parseSample(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseSample(rec []string) (metrics.Sample, error) {
	var (
		s   metrics.Sample
		err error
	)
	if s.Tick, err = strconv.ParseUint(rec[0], 10, 64); err != nil {
		return s, err
	}
	if s.Time, err = strconv.ParseFloat(rec[1], 64); err != nil {
		return s, err
	}
	if s.Bonds, err = strconv.Atoi(rec[2]); err != nil {
		return s, err
	}
	if s.Broken, err = strconv.ParseUint(rec[3], 10, 64); err != nil {
		return s, err
	}
	if s.Modulus, err = strconv.ParseFloat(rec[4], 64); err != nil {
		return s, err
	}
	return s, nil
}
