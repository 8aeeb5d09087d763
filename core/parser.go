package core

import (
	"bufio"
	"fmt"
	"io"

	"github.com/signalsfoundry/beamscene/model"
)

const (
	sourcePositions = "positions"
	sourceBeams     = "beams"

	maxLineBytes = 1 << 20
)

// Positions holds the parsed entities partitioned by kind, each slice in
// file-encounter order. Beam indices resolve against Users and Satellites.
type Positions struct {
	Users       []model.Point
	Satellites  []model.Point
	Interferers []model.Point
}

// Count returns the total number of points.
func (p *Positions) Count() int {
	if p == nil {
		return 0
	}
	return len(p.Users) + len(p.Satellites) + len(p.Interferers)
}

func (p *Positions) appendPoint(pt model.Point) {
	switch pt.Kind {
	case model.KindUser:
		p.Users = append(p.Users, pt)
	case model.KindSatellite:
		p.Satellites = append(p.Satellites, pt)
	case model.KindInterferer:
		p.Interferers = append(p.Interferers, pt)
	}
}

// ParsePositions reads position records ("user", "sat" or "interferer"
// followed by an id and x y z kilometre coordinates). Lines matching no
// prefix are skipped. A matching line with a missing or non-integer
// coordinate aborts parsing.
func ParsePositions(r io.Reader) (*Positions, error) {
	out := &Positions{
		Users:       []model.Point{},
		Satellites:  []model.Point{},
		Interferers: []model.Point{},
	}
	err := scanLines(r, sourcePositions, func(lineNo int, line string) error {
		for _, ps := range PositionSchemas {
			if !ps.Schema.Matches(line) {
				continue
			}
			rec, err := ps.Schema.Decode(sourcePositions, lineNo, line)
			if err != nil {
				return err
			}
			out.appendPoint(model.Point{
				Kind:     ps.Kind,
				ID:       rec.Text(fieldID),
				Position: model.PositionFromKm(rec.Int(fieldX), rec.Int(fieldY), rec.Int(fieldZ)),
				Color:    model.DefaultColor(ps.Kind),
			})
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseBeams reads beam assignments and returns one white line per
// record, drawn from the served user to its satellite. An index outside
// the parsed lists is a dangling reference and aborts parsing. Once the
// whole stream is valid every referenced user is recoloured to
// model.ColorUserServed in pos; on error pos is left untouched.
func ParseBeams(r io.Reader, pos *Positions) ([]model.Line, error) {
	if pos == nil {
		pos = &Positions{}
	}
	lines := []model.Line{}
	served := map[int]struct{}{}
	err := scanLines(r, sourceBeams, func(lineNo int, line string) error {
		if !BeamSchema.Matches(line) {
			return nil
		}
		rec, err := BeamSchema.Decode(sourceBeams, lineNo, line)
		if err != nil {
			return err
		}

		satIdx, err := resolveIndex(lineNo, fieldSatellite, rec.Int(fieldSatellite), len(pos.Satellites))
		if err != nil {
			return err
		}
		userIdx, err := resolveIndex(lineNo, fieldUser, rec.Int(fieldUser), len(pos.Users))
		if err != nil {
			return err
		}

		served[userIdx] = struct{}{}
		lines = append(lines, model.Line{
			Start: pos.Users[userIdx].Position,
			End:   pos.Satellites[satIdx].Position,
			Color: model.ColorBeam,

			User:      userIdx,
			Satellite: satIdx,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	for idx := range served {
		pos.Users[idx].Color = model.ColorUserServed
	}
	return lines, nil
}

// resolveIndex converts a 1-based reference to a bounds-checked 0-based
// index.
func resolveIndex(lineNo int, field string, oneBased int64, n int) (int, error) {
	idx := oneBased - 1
	if idx < 0 || idx >= int64(n) {
		return 0, &RecordError{
			Source: sourceBeams,
			Line:   lineNo,
			Field:  field,
			Text:   fmt.Sprint(oneBased),
			Err:    fmt.Errorf("%w: %s index %d outside 1..%d", ErrDanglingReference, field, oneBased, n),
		}
	}
	return int(idx), nil
}

// scanLines feeds every line of r to fn with its 1-based number. A
// trailing carriage return is dropped by the scanner.
func scanLines(r io.Reader, source string, fn func(lineNo int, line string) error) error {
	if r == nil {
		return nil
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := fn(lineNo, sc.Text()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}
	return nil
}
