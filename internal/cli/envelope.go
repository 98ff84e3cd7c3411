package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadEnvelope parses whitespace-separated numbers. Text after '#' on a line
// is ignored. Lines may be of any length.
func ReadEnvelope(r io.Reader) ([]float64, error) {
	var values []float64
	br := bufio.NewReader(r)
	for line := 1; ; line++ {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("read envelope: %w", readErr)
		}
		text, _, _ := strings.Cut(raw, "#")
		for _, field := range strings.Fields(text) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			values = append(values, v)
		}
		if readErr == io.EOF {
			return values, nil
		}
	}
}

// WriteEnvelope writes one value per line.
func WriteEnvelope(w io.Writer, values []float64) error {
	bw := bufio.NewWriter(w)
	for _, v := range values {
		bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
