package document

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/linebaby/linebaby/internal/geom"
)

// Magic opens every project file.
var Magic = [4]byte{'L', 'I', 'N', 'E'}

var (
	ErrBadMagic  = errors.New("project file: bad magic")
	ErrTruncated = errors.New("project file: truncated")

	ErrInvalidDuration = errors.New("project file: invalid timeline duration")
)

// On-disk records. encoding/binary lays fields out back to back with no
// padding, which is the file format.
type fileHeader struct {
	TimelineDuration float32
	ArtboardSet      bool
	Artboard         [2]geom.Point
	StrokeCount      uint32
}

type transitionRecord struct {
	Method   int32
	Easing   int32
	Duration float32
	Reverse  bool
}

type strokeRecord struct {
	GlobalStartTime float32
	FullDuration    float32
	Scale           float32
	Color           [4]float32
	Enter           transitionRecord
	Exit            transitionRecord
	VertexCount     uint16
}

func toRecord(t StrokeTransition) transitionRecord {
	return transitionRecord{
		Method:   int32(t.Method),
		Easing:   int32(t.Easing),
		Duration: t.Duration,
		Reverse:  t.Reverse,
	}
}

func (r transitionRecord) transition() StrokeTransition {
	return StrokeTransition{
		Method:   AnimateMethod(r.Method),
		Easing:   Easing(r.Easing),
		Duration: r.Duration,
		Reverse:  r.Reverse,
	}
}

// Encode writes the scene in the project file format. Strokes are written in
// draw order.
func Encode(w io.Writer, s *Scene) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	hdr := fileHeader{
		TimelineDuration: s.TimelineDuration,
		ArtboardSet:      s.ArtboardSet,
		Artboard:         s.Artboard,
		StrokeCount:      uint32(s.Len()),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for id, st := range s.Strokes() {
		rec := strokeRecord{
			GlobalStartTime: st.GlobalStartTime,
			FullDuration:    st.FullDuration,
			Scale:           st.Scale,
			Color:           st.Color,
			Enter:           toRecord(st.Enter),
			Exit:            toRecord(st.Exit),
			VertexCount:     uint16(st.Len()),
		}
		if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
			return fmt.Errorf("write stroke %s: %w", id, err)
		}
		if err := binary.Write(w, binary.LittleEndian, st.Vertices()); err != nil {
			return fmt.Errorf("write stroke %s vertices: %w", id, err)
		}
	}
	return nil
}

// Marshal returns the encoded scene.
func Marshal(s *Scene) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a project file into a new scene. Strokes stored with fewer than
// two vertices are dropped since they cannot be drawn.
func Decode(r io.Reader) (*Scene, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", truncated(err))
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, magic[:])
	}

	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", truncated(err))
	}
	if d := float64(hdr.TimelineDuration); math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, hdr.TimelineDuration)
	}
	if hdr.StrokeCount > MaxStrokes {
		return nil, fmt.Errorf("%d strokes: %w", hdr.StrokeCount, ErrTooManyStrokes)
	}

	s := NewScene()
	s.TimelineDuration = hdr.TimelineDuration
	s.ArtboardSet = hdr.ArtboardSet
	s.Artboard = hdr.Artboard
	s.ExportRange = [2]float32{0, s.TimelineDuration}

	for i := uint32(0); i < hdr.StrokeCount; i++ {
		var rec strokeRecord
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("read stroke %d: %w", i, truncated(err))
		}
		if rec.VertexCount > MaxStrokeVertices {
			return nil, fmt.Errorf("stroke %d has %d vertices: %w", i, rec.VertexCount, ErrTooManyVertices)
		}
		vertices := make([]BezierPoint, rec.VertexCount)
		if err := binary.Read(r, binary.LittleEndian, vertices); err != nil {
			return nil, fmt.Errorf("read stroke %d vertices: %w", i, truncated(err))
		}
		if len(vertices) < 2 {
			continue
		}

		id, st, err := s.CreateStroke()
		if err != nil {
			return nil, fmt.Errorf("load stroke %d: %w", i, err)
		}
		st.GlobalStartTime = rec.GlobalStartTime
		st.FullDuration = rec.FullDuration
		st.Scale = rec.Scale
		st.Color = rec.Color
		st.Enter = rec.Enter.transition()
		st.Exit = rec.Exit.transition()
		for _, v := range vertices {
			p, _, err := s.AddVertex(id)
			if err != nil {
				return nil, fmt.Errorf("load stroke %d: %w", i, err)
			}
			*p = v
		}
	}
	return s, nil
}

// Unmarshal decodes a project file held in memory.
func Unmarshal(data []byte) (*Scene, error) {
	return Decode(bytes.NewReader(data))
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return err
}

// Save writes the scene in the project file format.
func (s *Scene) Save(w io.Writer) error {
	return Encode(w, s)
}

// Load replaces the scene's strokes and document settings with the contents of
// r. The live scene is only touched once the whole file has decoded; on error
// it is unchanged. Playback stops and the selection is cleared.
func (s *Scene) Load(r io.Reader) error {
	loaded, err := Decode(r)
	if err != nil {
		return err
	}
	// Carry every slot's generation forward so handles taken before the load
	// stop resolving.
	for i := range loaded.slots {
		loaded.slots[i].gen += s.slots[i].gen
	}
	s.vertices.Reset()
	s.slots = loaded.slots
	s.order = loaded.order
	s.vertices = loaded.vertices
	s.TimelineDuration = loaded.TimelineDuration
	s.ArtboardSet = loaded.ArtboardSet
	s.Artboard = loaded.Artboard
	s.ExportRange = loaded.ExportRange
	s.TimelinePosition = 0
	s.Playing = false
	s.Scrubbing = false
	s.DragMode = DragNone
	s.ClearSelection()
	return nil
}
