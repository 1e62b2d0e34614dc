package document

import "github.com/linebaby/linebaby/internal/geom"

// NewSampleScene builds a small scene that shows each kind of transition: a
// wave drawn in and out, a loop that fades, and an underline that exits in
// reverse.
func NewSampleScene() *Scene {
	s := NewScene()
	s.ArtboardSet = true
	s.Artboard = [2]geom.Point{geom.Pt(0, 0), geom.Pt(1280, 720)}

	wave := []BezierPoint{
		smooth(geom.Pt(200, 360), 60),
		smooth(geom.Pt(440, 240), 80),
		smooth(geom.Pt(680, 480), 80),
		smooth(geom.Pt(920, 360), 60),
	}
	addSampleStroke(s, wave, func(st *Stroke) {
		st.GlobalStartTime = 0.5
		st.FullDuration = 3
		st.Scale = 10
		st.Color = [4]float32{0.89, 0.27, 0.38, 1}
		st.Enter = StrokeTransition{Method: AnimateDraw, Easing: EaseInOutCubic, Duration: 1.2}
		st.Exit = StrokeTransition{Method: AnimateDraw, Easing: EaseInQuad, Duration: 0.8}
	})

	loop := []BezierPoint{
		{Anchor: geom.Pt(640, 140), Handles: [2]geom.Point{geom.Pt(580, 140), geom.Pt(700, 140)}},
		{Anchor: geom.Pt(760, 220), Handles: [2]geom.Point{geom.Pt(760, 170), geom.Pt(760, 270)}},
		{Anchor: geom.Pt(640, 300), Handles: [2]geom.Point{geom.Pt(700, 300), geom.Pt(580, 300)}},
		{Anchor: geom.Pt(520, 220), Handles: [2]geom.Point{geom.Pt(520, 270), geom.Pt(520, 170)}},
		{Anchor: geom.Pt(640, 140), Handles: [2]geom.Point{geom.Pt(580, 140), geom.Pt(700, 140)}},
	}
	addSampleStroke(s, loop, func(st *Stroke) {
		st.GlobalStartTime = 2
		st.FullDuration = 2.5
		st.Scale = 6
		st.Color = [4]float32{0.06, 0.2, 0.38, 1}
		st.Enter = StrokeTransition{Method: AnimateFade, Easing: EaseOutSine, Duration: 1}
		st.Exit = StrokeTransition{Method: AnimateFade, Easing: EaseInSine, Duration: 1}
	})

	underline := []BezierPoint{
		smooth(geom.Pt(240, 600), 100),
		smooth(geom.Pt(880, 610), 100),
	}
	addSampleStroke(s, underline, func(st *Stroke) {
		st.GlobalStartTime = 3
		st.FullDuration = 2
		st.Scale = 4
		st.Jitter = 0.25
		st.Color = [4]float32{0.33, 0.84, 0.41, 1}
		st.Enter = StrokeTransition{Method: AnimateDraw, Easing: EaseOutBack, Duration: 0.6}
		st.Exit = StrokeTransition{Method: AnimateDraw, Easing: EaseLinear, Duration: 0.6, Reverse: true}
	})

	return s
}

// smooth returns a knot with horizontal handles reach pixels either side.
func smooth(p geom.Point, reach float32) BezierPoint {
	return BezierPoint{
		Anchor:  p,
		Handles: [2]geom.Point{p.Sub(geom.Pt(reach, 0)), p.Add(geom.Pt(reach, 0))},
	}
}

func addSampleStroke(s *Scene, vertices []BezierPoint, setup func(*Stroke)) {
	id, st, err := s.CreateStroke()
	if err != nil {
		return
	}
	setup(st)
	for _, v := range vertices {
		p, _, err := s.AddVertex(id)
		if err != nil {
			return
		}
		*p = v
	}
}
