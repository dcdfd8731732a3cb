package capture

import "github.com/ayusman/courtside/internal/config"

// FromConfig builds the source selected by cfg. finite reports a video file,
// which callers should pace to real time when serving live output.
func FromConfig(cfg config.CameraConfig) (src Source, finite bool, err error) {
	if cfg.VideoFile != "" {
		v, err := NewVideoFile(cfg.VideoFile, cfg.Rotation, cfg.Front)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}

	c, err := NewCamera(cfg.Device, CameraOptions{
		Width:    cfg.Width,
		Height:   cfg.Height,
		FPS:      cfg.FPS,
		Rotation: cfg.Rotation,
		Front:    cfg.Front,
	})
	if err != nil {
		return nil, false, err
	}
	return c, false, nil
}
