package drill

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/courtside/internal/pose"
)

const frameMs = 33

func frameAt(ts int64, l pose.Landmarks) pose.Frame {
	return pose.FixtureFrame(ts, l)
}

func ballAt(x, y, confidence float64) *pose.BallObservation {
	return &pose.BallObservation{CenterX: x, CenterY: y, Radius: 18, Confidence: confidence}
}

// ankleSequence builds frames spaced frameMs apart with the ankles raised by
// the given offsets (negative is up) and everything else fixed.
func ankleSequence(offsets ...float64) []pose.Frame {
	frames := make([]pose.Frame, len(offsets))
	for i, dy := range offsets {
		l := pose.UprightLandmarks().ShiftOnly(0, dy, pose.LeftAnkle, pose.RightAnkle)
		frames[i] = frameAt(int64(1000+i*frameMs), l)
	}
	return frames
}

func feed(e *Engine, frames ...pose.Frame) (State, Metrics) {
	var (
		state   State
		metrics Metrics
	)
	for _, f := range frames {
		state, metrics = e.Consume(f, nil)
	}
	return state, metrics
}

func TestEngine_RequiredLandmarkGate(t *testing.T) {
	for _, missing := range requiredLandmarks {
		t.Run(missing.String(), func(t *testing.T) {
			e := NewEngine(DefaultThresholds())

			// Build up some counters first.
			frames := ankleSequence(0, -40)
			_, before := feed(e, frames...)
			require.Equal(t, 1, before.Hops)

			f := frameAt(2000, pose.UprightLandmarks().Without(missing).ShiftOnly(0, -200, pose.LeftAnkle, pose.RightAnkle))
			state, after := e.Consume(f, ballAt(600, 360, 0.9))

			assert.Equal(t, StateReady, state)
			assert.Equal(t, before.Hops, after.Hops)
			assert.Equal(t, before.RepCount, after.RepCount)
			assert.Equal(t, before.CrossoverCount, after.CrossoverCount)
			assert.Equal(t, before.PoundLow+before.PoundHip+before.PoundHigh, after.PoundLow+after.PoundHip+after.PoundHigh)
			assert.Equal(t, before.LateralDistancePx, after.LateralDistancePx)
			assert.Empty(t, after.StanceCue)
			assert.Equal(t, waitingText, after.DebugText)
		})
	}

	t.Run("optional landmarks may be missing", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		l := pose.UprightLandmarks().Without(pose.LeftAnkle, pose.RightAnkle, pose.LeftShoulder, pose.LeftWrist)
		state, _ := e.Consume(frameAt(0, l), nil)
		assert.Equal(t, StateActive, state)
	})
}

func TestEngine_HopEdgeTriggering(t *testing.T) {
	t.Run("single crossing counts once", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		_, m := feed(e, ankleSequence(0, 0, -30, 0)...)
		// 30px in 33ms is ~909 px/s upward.
		assert.Equal(t, 1, m.Hops)
	})

	t.Run("sustained high velocity counts once", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		_, m := feed(e, ankleSequence(0, -30, -60, -90, -120, -150, -180, -210)...)
		assert.Equal(t, 1, m.Hops)
	})

	t.Run("sustained low velocity never counts", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		_, m := feed(e, ankleSequence(0, -10, -20, -30, -40, -50, -60, -70)...)
		assert.Equal(t, 0, m.Hops)
	})

	t.Run("downward motion never counts", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		_, m := feed(e, ankleSequence(0, 40, 80, 120)...)
		assert.Equal(t, 0, m.Hops)
	})

	t.Run("threshold is strict", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		base := pose.UprightLandmarks()
		up := func(ts int64, dy float64) pose.Frame {
			return frameAt(ts, base.ShiftOnly(0, dy, pose.LeftAnkle, pose.RightAnkle))
		}
		// Exactly 560 px/s does not count; 561 px/s after it does.
		_, m := feed(e, up(1000, 0), up(2000, -560))
		assert.Equal(t, 0, m.Hops)
		_, m = feed(e, up(3000, -1121))
		assert.Equal(t, 1, m.Hops)
	})

	t.Run("falls back to hips without ankles", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		base := pose.UprightLandmarks().Without(pose.LeftAnkle, pose.RightAnkle)
		_, m := feed(e,
			frameAt(1000, base),
			frameAt(1033, base.ShiftOnly(0, -30, pose.LeftHip, pose.RightHip)),
		)
		assert.Equal(t, 1, m.Hops)
	})

	t.Run("ankles dropping out compares against the hips", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		body := pose.UprightLandmarks()
		// Ankle midpoint y=620, hip midpoint y=380: 240px in 33ms upward.
		_, m := feed(e,
			frameAt(1000, body),
			frameAt(1033, body.Without(pose.LeftAnkle, pose.RightAnkle)),
		)
		assert.Equal(t, 1, m.Hops)

		// Hips stay put on the next frame, so velocity drops back to zero.
		_, m = feed(e, frameAt(1066, body.Without(pose.LeftAnkle, pose.RightAnkle)))
		assert.Equal(t, 1, m.Hops)
	})

	t.Run("ankles reappearing reads as downward motion", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		body := pose.UprightLandmarks()
		_, m := feed(e,
			frameAt(1000, body.Without(pose.LeftAnkle, pose.RightAnkle)),
			frameAt(1033, body),
			frameAt(1066, body),
		)
		assert.Equal(t, 0, m.Hops)
	})

	t.Run("duplicate timestamps do not divide by zero", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		l := pose.UprightLandmarks()
		_, m := feed(e, frameAt(1000, l), frameAt(1000, l), frameAt(1000, l))
		assert.Equal(t, 0, m.Hops)
	})
}

func TestEngine_Crossover(t *testing.T) {
	// Midline is x=640 for the upright fixture; wrists sit at (585,340) and (695,340).
	leftStrike := ballAt(600, 360, 0.9)
	rightStrike := ballAt(680, 360, 0.9)
	rightNoStrike := ballAt(760, 600, 0.9)
	body := pose.UprightLandmarks()

	t.Run("first observation never counts", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		_, m := e.Consume(frameAt(0, body), leftStrike)
		assert.Equal(t, 0, m.CrossoverCount)
	})

	t.Run("side change with strike counts", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		e.Consume(frameAt(0, body), leftStrike)
		_, m := e.Consume(frameAt(33, body), rightStrike)
		assert.Equal(t, 1, m.CrossoverCount)
		assert.Equal(t, 1, m.RepCount)
	})

	t.Run("same side with strike does not count", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		e.Consume(frameAt(0, body), leftStrike)
		_, m := e.Consume(frameAt(33, body), leftStrike)
		assert.Equal(t, 0, m.CrossoverCount)
	})

	t.Run("side change without strike moves the reference silently", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		e.Consume(frameAt(0, body), leftStrike)
		_, m := e.Consume(frameAt(33, body), rightNoStrike)
		assert.Equal(t, 0, m.CrossoverCount)

		// Reference is now RIGHT, so a right-side strike is not a crossover.
		_, m = e.Consume(frameAt(66, body), rightStrike)
		assert.Equal(t, 0, m.CrossoverCount)
	})

	t.Run("frames without a ball keep the previous side", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		e.Consume(frameAt(0, body), leftStrike)
		e.Consume(frameAt(33, body), nil)
		_, m := e.Consume(frameAt(66, body), rightStrike)
		assert.Equal(t, 1, m.CrossoverCount)
	})

	t.Run("low confidence ball still tracks side", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		e.Consume(frameAt(0, body), ballAt(600, 360, 0.1))
		_, m := e.Consume(frameAt(33, body), ballAt(680, 360, 0.1))
		assert.Equal(t, 1, m.CrossoverCount)
		assert.Zero(t, m.PoundHip)
	})
}

func TestEngine_LateralDistance(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	body := pose.UprightLandmarks()

	var last float64
	for i := 0; i < 5; i++ {
		_, m := e.Consume(frameAt(int64(i*frameMs), body.Shift(float64(i*20), 0)), nil)
		assert.GreaterOrEqual(t, m.LateralDistancePx, last)
		last = m.LateralDistancePx
	}
	assert.InDelta(t, 80.0, last, 1e-9)

	// 720 * 0.14 = 100.8px; a 120px hip drop is outside the band.
	_, m := e.Consume(frameAt(5*frameMs, body.Shift(100, 120)), nil)
	assert.InDelta(t, 80.0, m.LateralDistancePx, 1e-9, "vertical excursion must not add distance")

	// The reference moved with the rejected frame, so level travel from there counts again.
	_, m = e.Consume(frameAt(6*frameMs, body.Shift(130, 120)), nil)
	assert.InDelta(t, 110.0, m.LateralDistancePx, 1e-9)

	// Travel back is still distance.
	_, m = e.Consume(frameAt(7*frameMs, body.Shift(90, 125)), nil)
	assert.InDelta(t, 150.0, m.LateralDistancePx, 1e-9)
}

func TestEngine_StanceCue(t *testing.T) {
	tests := []struct {
		name string
		body pose.Landmarks
		want string
	}{
		{name: "straight legs", body: pose.UprightLandmarks(), want: StayLowCue},
		{name: "defensive stance", body: pose.DefensiveStanceLandmarks(), want: ""},
		{name: "one leg visible and straight", body: pose.UprightLandmarks().Without(pose.RightAnkle), want: StayLowCue},
		{name: "no ankles", body: pose.UprightLandmarks().Without(pose.LeftAnkle, pose.RightAnkle), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(DefaultThresholds())
			_, m := e.Consume(frameAt(0, tt.body), nil)
			assert.Equal(t, tt.want, m.StanceCue)
		})
	}
}

func TestEngine_DribbleZones(t *testing.T) {
	// Upright fixture: shoulders y=200, hips y=380, knees y=500, waist line y=440.
	// Ball x is far from both wrists so no crossover logic interferes.
	tests := []struct {
		name string
		y    float64
		want DribbleZone
	}{
		{name: "below knees", y: 560, want: ZoneLow},
		{name: "hip band", y: 400, want: ZoneHip},
		{name: "waist line is hip", y: 440, want: ZoneHip},
		{name: "shoulder line is high", y: 200, want: ZoneHigh},
		{name: "overhead", y: 90, want: ZoneHigh},
		{name: "between waist and knees", y: 470, want: ZoneNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(DefaultThresholds())
			f := frameAt(0, pose.UprightLandmarks())
			assert.Equal(t, tt.want, s.classifyDribble(f, ballAt(900, tt.y, 0.8)))
		})
	}

	t.Run("each active frame counts once", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		body := pose.UprightLandmarks()
		for i := 0; i < 4; i++ {
			e.Consume(frameAt(int64(i*frameMs), body), ballAt(900, 560, 0.8))
		}
		_, m := e.Consume(frameAt(4*frameMs, body), ballAt(900, 150, 0.8))
		assert.Equal(t, 4, m.PoundLow)
		assert.Equal(t, 1, m.PoundHigh)
		assert.Equal(t, 0, m.PoundHip)
		assert.Equal(t, 0, m.RepCount, "dribble hits are not reps")
	})

	t.Run("missing shoulders only allows LOW", func(t *testing.T) {
		s := NewSession(DefaultThresholds())
		f := frameAt(0, pose.UprightLandmarks().Without(pose.RightShoulder))
		assert.Equal(t, ZoneNone, s.classifyDribble(f, ballAt(900, 150, 0.8)))
		assert.Equal(t, ZoneLow, s.classifyDribble(f, ballAt(900, 560, 0.8)))
	})

	t.Run("confidence gate", func(t *testing.T) {
		e := NewEngine(DefaultThresholds())
		_, m := e.Consume(frameAt(0, pose.UprightLandmarks()), ballAt(900, 560, 0.4))
		assert.Zero(t, m.PoundLow)
		assert.Zero(t, m.PoundHip)
		assert.Zero(t, m.PoundHigh)

		_, m = e.Consume(frameAt(33, pose.UprightLandmarks()), ballAt(900, 560, 0.5))
		assert.Equal(t, 1, m.PoundLow)
	})
}

func TestEngine_TenFrameHopSequence(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	frames := ankleSequence(0, 0, -30, 0, 0, 0, -30, 0, 0, 0)

	state, m := feed(e, frames...)

	assert.Equal(t, StateActive, state)
	assert.Equal(t, 2, m.Hops)
	assert.Equal(t, 2, m.RepCount)
	assert.Equal(t, 0, m.PoundLow)
	assert.Equal(t, 0, m.PoundHip)
	assert.Equal(t, 0, m.PoundHigh)
	assert.Equal(t, 0, m.CrossoverCount)
	assert.Equal(t, int64(9*frameMs), m.ElapsedMs)
}

func TestEngine_ElapsedAcrossReadyExcursion(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	body := pose.UprightLandmarks()

	state, m := e.Consume(frameAt(5000, body.Without(pose.Nose)), nil)
	assert.Equal(t, StateReady, state)
	assert.Zero(t, m.ElapsedMs)

	_, m = e.Consume(frameAt(6000, body), nil)
	assert.Zero(t, m.ElapsedMs, "clock starts at the first ACTIVE frame")

	_, m = e.Consume(frameAt(6500, body), nil)
	assert.Equal(t, int64(500), m.ElapsedMs)

	e.Consume(frameAt(7000, body.Without(pose.LeftKnee)), nil)
	_, m = e.Consume(frameAt(9000, body), nil)
	assert.Equal(t, int64(3000), m.ElapsedMs)
}

func TestEngine_ReadyClearsMotionReferences(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	body := pose.UprightLandmarks()

	feed(e, frameAt(1000, body))
	e.Consume(frameAt(1033, body.Without(pose.Nose)), nil)

	// A large jump relative to the pre-READY position must not count as a hop
	// or as lateral travel.
	_, m := e.Consume(frameAt(1066, body.Shift(50, -60)), nil)
	assert.Equal(t, 0, m.Hops)
	assert.Zero(t, m.LateralDistancePx)
}

func TestEngine_FinishSession(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	body := pose.UprightLandmarks()

	feed(e, ankleSequence(0, -30, 0)...)
	e.Consume(frameAt(1100, body), ballAt(600, 560, 0.9))
	before := e.Metrics()

	summary := e.FinishSession()
	assert.Equal(t, StateSummary, e.State())

	want := Summary{
		DurationMs:     before.ElapsedMs,
		Reps:           before.RepCount,
		Hops:           before.Hops,
		CrossoverCount: before.CrossoverCount,
		LowDribbles:    before.PoundLow,
		HipDribbles:    before.PoundHip,
		HighDribbles:   before.PoundHigh,
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	t.Run("frames after finish are ignored", func(t *testing.T) {
		state, m := e.Consume(frameAt(1200, body.ShiftOnly(0, -200, pose.LeftAnkle, pose.RightAnkle)), ballAt(600, 560, 0.9))
		assert.Equal(t, StateSummary, state)
		assert.Equal(t, before, m)

		state, _ = e.Consume(frameAt(1300, pose.Landmarks{}), nil)
		assert.Equal(t, StateSummary, state, "summary is sticky even without a body")
	})

	t.Run("second finish returns the same summary", func(t *testing.T) {
		assert.Equal(t, summary, e.FinishSession())
	})

	t.Run("summary is available from the session", func(t *testing.T) {
		got, ok := e.Session().Summary()
		require.True(t, ok)
		assert.Equal(t, summary, got)
	})
}

func TestEngine_FinishBeforeAnyFrame(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	assert.Equal(t, Summary{}, e.FinishSession())
	assert.Equal(t, StateSummary, e.State())
}

func TestAdvance_DoesNotMutateInput(t *testing.T) {
	s0 := NewSession(DefaultThresholds())
	frames := ankleSequence(0, -30)

	s1, _ := Advance(s0, frames[0], nil)
	s2, snap := Advance(s1, frames[1], nil)

	assert.Equal(t, StateReady, s0.State())
	assert.Equal(t, 0, s1.Metrics().Hops)
	assert.Equal(t, 1, s2.Metrics().Hops)
	assert.Equal(t, s2.Metrics(), snap.Metrics)

	// Replaying from s1 is deterministic.
	s2b, _ := Advance(s1, frames[1], nil)
	assert.Equal(t, s2.Metrics(), s2b.Metrics())

	_, summary := Finish(s2)
	assert.Equal(t, 1, summary.Hops)
	_, ok := s2.Summary()
	assert.False(t, ok)
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	bad := DefaultThresholds()
	bad.StanceAngleDeg = 200
	bad.MinBallConfidence = 1.5
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stance angle")
	assert.Contains(t, err.Error(), "min ball confidence")

	zero := Thresholds{}
	assert.Error(t, zero.Validate())
}

func TestEngine_CustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.HopVelocityPxPerSec = 1000
	e := NewEngine(th)

	_, m := feed(e, ankleSequence(0, -30)...)
	assert.Equal(t, 0, m.Hops, "909 px/s is below a 1000 px/s threshold")
	assert.Equal(t, th, e.Session().Thresholds())
}
