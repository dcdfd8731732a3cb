package app

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/courtside/internal/capture"
	"github.com/ayusman/courtside/internal/pose"
)

var (
	boneColor  = color.RGBA{R: 0, G: 200, B: 255, A: 255}
	jointColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ballColor  = color.RGBA{R: 255, G: 120, B: 0, A: 255}
	textColor  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// skeleton lists the landmark pairs drawn as bones.
var skeleton = [][2]pose.LandmarkType{
	{pose.LeftShoulder, pose.RightShoulder},
	{pose.LeftShoulder, pose.LeftElbow},
	{pose.LeftElbow, pose.LeftWrist},
	{pose.RightShoulder, pose.RightElbow},
	{pose.RightElbow, pose.RightWrist},
	{pose.LeftShoulder, pose.LeftHip},
	{pose.RightShoulder, pose.RightHip},
	{pose.LeftHip, pose.RightHip},
	{pose.LeftHip, pose.LeftKnee},
	{pose.LeftKnee, pose.LeftAnkle},
	{pose.RightHip, pose.RightKnee},
	{pose.RightKnee, pose.RightAnkle},
}

// preview holds the latest annotated frame as JPEG.
type preview struct {
	mu   sync.RWMutex
	jpeg []byte
	seq  uint64
}

func (p *preview) get() ([]byte, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.seq
}

// update draws the analysis onto the frame image and stores it as JPEG.
// The image is modified in place.
func (p *preview) update(f *capture.Frame, frame pose.Frame, ball *pose.BallObservation, snap Snapshot, hasSession bool) {
	img := f.Image
	drawPose(img, frame.Points)
	if ball != nil {
		gocv.Circle(img, image.Pt(int(ball.CenterX), int(ball.CenterY)), int(ball.Radius), ballColor, 2)
	}

	if f.Front {
		gocv.Flip(*img, img, 1)
	}

	if hasSession {
		label := fmt.Sprintf("%s  reps %d  hops %d  x-overs %d", snap.State, snap.Metrics.RepCount, snap.Metrics.Hops, snap.Metrics.CrossoverCount)
		gocv.PutText(img, label, image.Pt(12, 28), gocv.FontHersheySimplex, 0.7, textColor, 2)
		if snap.Metrics.StanceCue != "" {
			gocv.PutText(img, snap.Metrics.StanceCue, image.Pt(12, 58), gocv.FontHersheySimplex, 0.8, textColor, 2)
		}
	}

	buf, err := gocv.IMEncode(".jpg", *img)
	if err != nil {
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	p.mu.Lock()
	p.jpeg = data
	p.seq++
	p.mu.Unlock()
}

func drawPose(img *gocv.Mat, points pose.Landmarks) {
	for _, bone := range skeleton {
		a, okA := points[bone[0]]
		b, okB := points[bone[1]]
		if okA && okB {
			gocv.Line(img, image.Pt(int(a.X), int(a.Y)), image.Pt(int(b.X), int(b.Y)), boneColor, 2)
		}
	}
	for _, p := range points {
		gocv.Circle(img, image.Pt(int(p.X), int(p.Y)), 4, jointColor, -1)
	}
}
