package document

import "github.com/tanema/gween/ease"

// Easing selects one of the easing curves available to stroke transitions. The
// numbering is part of the project file format.
type Easing int32

const (
	EaseLinear Easing = iota
	EaseInQuad
	EaseOutQuad
	EaseInOutQuad
	EaseInCubic
	EaseOutCubic
	EaseInOutCubic
	EaseInQuart
	EaseOutQuart
	EaseInOutQuart
	EaseInQuint
	EaseOutQuint
	EaseInOutQuint
	EaseInSine
	EaseOutSine
	EaseInOutSine
	EaseInCirc
	EaseOutCirc
	EaseInOutCirc
	EaseInExpo
	EaseOutExpo
	EaseInOutExpo
	EaseInElastic
	EaseOutElastic
	EaseInOutElastic
	EaseInBack
	EaseOutBack
	EaseInOutBack
	EaseInBounce
	EaseOutBounce
	EaseInOutBounce

	easingCount
)

var easings = [easingCount]struct {
	name string
	fn   ease.TweenFunc
}{
	{"Linear", ease.Linear},
	{"Quadratic In", ease.InQuad},
	{"Quadratic Out", ease.OutQuad},
	{"Quadratic In/Out", ease.InOutQuad},
	{"Cubic In", ease.InCubic},
	{"Cubic Out", ease.OutCubic},
	{"Cubic In/Out", ease.InOutCubic},
	{"Quartic In", ease.InQuart},
	{"Quartic Out", ease.OutQuart},
	{"Quartic In/Out", ease.InOutQuart},
	{"Quintic In", ease.InQuint},
	{"Quintic Out", ease.OutQuint},
	{"Quintic In/Out", ease.InOutQuint},
	{"Sine In", ease.InSine},
	{"Sine Out", ease.OutSine},
	{"Sine In/Out", ease.InOutSine},
	{"Circular In", ease.InCirc},
	{"Circular Out", ease.OutCirc},
	{"Circular In/Out", ease.InOutCirc},
	{"Exponential In", ease.InExpo},
	{"Exponential Out", ease.OutExpo},
	{"Exponential In/Out", ease.InOutExpo},
	{"Elastic In", ease.InElastic},
	{"Elastic Out", ease.OutElastic},
	{"Elastic In/Out", ease.InOutElastic},
	{"Back In", ease.InBack},
	{"Back Out", ease.OutBack},
	{"Back In/Out", ease.InOutBack},
	{"Bounce In", ease.InBounce},
	{"Bounce Out", ease.OutBounce},
	{"Bounce In/Out", ease.InOutBounce},
}

// EasingCount is the number of defined easing curves.
const EasingCount = int(easingCount)

// Valid reports whether e names a defined curve.
func (e Easing) Valid() bool {
	return e >= 0 && e < easingCount
}

func (e Easing) String() string {
	if !e.Valid() {
		return "Linear"
	}
	return easings[e].name
}

// Func returns the tween function of the curve. Unknown values are linear.
func (e Easing) Func() ease.TweenFunc {
	if !e.Valid() {
		return ease.Linear
	}
	return easings[e].fn
}

// Apply eases t in [0, 1]. Overshooting curves (Back, Elastic) may leave the
// unit range.
func (e Easing) Apply(t float32) float32 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	}
	return e.Func()(t, 0, 1, 1)
}
