// Package detections reads per-frame detector output and replays it frame by frame.
package detections

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/LdDl/footfall-go/mot"
	"github.com/pkg/errors"
)

// ErrOutOfOrder is returned when rows go back to an earlier frame
var ErrOutOfOrder = errors.New("detections are not in frame order")

// Source replays CSV rows "frame,x1,y1,x2,y2,confidence" as consecutive frames.
// Frame indices without rows are returned as empty frames, so no frame is skipped.
// A header line is allowed.
type Source struct {
	reader *csv.Reader
	line   int
	// Next frame index to emit
	next int
	// Row read ahead which belongs to a later frame
	pending    *row
	exhausted  bool
	headerSeen bool
}

type row struct {
	frame     int
	detection mot.Detection
}

// NewSource creates source over CSV data
func NewSource(r io.Reader) *Source {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 6
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	return &Source{
		reader: reader,
	}
}

// Next returns index and detections of the next frame. io.EOF is returned after the last frame.
func (src *Source) Next() (int, []mot.Detection, error) {
	if src.pending == nil && !src.exhausted {
		r, err := src.readRow()
		if err != nil {
			if err != io.EOF {
				return 0, nil, err
			}
			src.exhausted = true
		} else {
			src.pending = r
		}
	}
	if src.pending == nil {
		return 0, nil, io.EOF
	}

	frame := src.next
	src.next++
	if src.pending.frame > frame {
		return frame, nil, nil
	}

	detections := []mot.Detection{src.pending.detection}
	src.pending = nil
	for {
		r, err := src.readRow()
		if err == io.EOF {
			src.exhausted = true
			break
		}
		if err != nil {
			return 0, nil, err
		}
		if r.frame < frame {
			return 0, nil, errors.Wrapf(ErrOutOfOrder, "line %d: frame %d after frame %d", src.line, r.frame, frame)
		}
		if r.frame > frame {
			src.pending = r
			break
		}
		detections = append(detections, r.detection)
	}
	return frame, detections, nil
}

func (src *Source) readRow() (*row, error) {
	for {
		record, err := src.reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, errors.Wrap(err, "Can't read detections")
		}
		src.line, _ = src.reader.FieldPos(0)
		if !src.headerSeen {
			src.headerSeen = true
			if strings.EqualFold(strings.TrimSpace(record[0]), "frame") {
				continue
			}
		}
		return src.parseRecord(record)
	}
}

func (src *Source) parseRecord(record []string) (*row, error) {
	frame, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return nil, errors.Wrapf(err, "line %d: bad frame index", src.line)
	}
	if frame < 0 {
		return nil, errors.Errorf("line %d: negative frame index %d", src.line, frame)
	}
	var values [5]float64
	for i := range values {
		values[i], err = strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: bad value in column %d", src.line, i+2)
		}
	}
	return &row{
		frame:     frame,
		detection: mot.NewDetection(values[0], values[1], values[2], values[3], values[4]),
	}, nil
}
