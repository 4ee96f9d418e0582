package repair

import (
	"context"
	"errors"

	"snapcapsule/internal/mediatypes"
	"snapcapsule/internal/signature"
	"snapcapsule/internal/transcoder"
)

// Classification is the repair decision for one file.
type Classification struct {
	Action    Action
	TargetExt string
	// Detected describes what the file actually holds, for log lines.
	Detected string
	// ProbeErr is set when stream probing failed and a video repair is
	// being forced.
	ProbeErr error
}

// NeedsRepair reports whether the file should be rewritten.
func (c Classification) NeedsRepair() bool {
	return c.Action != ActionNone
}

// Classify decides what repair path needs. Only a missing tool or an
// unreadable file are errors; probe failures force a video repair.
func (p *Planner) Classify(ctx context.Context, path string) (Classification, error) {
	ext := mediatypes.Ext(path)

	switch mediatypes.GetFileType(ext) {
	case mediatypes.FileTypeImage:
		sig, err := signature.Inspect(path)
		if err != nil {
			return Classification{}, newError(ErrProbeFailure, path, err)
		}
		switch {
		case sig.Container:
			return p.probe(ctx, path, false)
		case sig.IsStillImage():
			return Classification{Action: ActionNone, Detected: string(sig.Family)}, nil
		default:
			return Classification{
				Action:    ActionJPEG,
				TargetExt: mediatypes.JPEGTargetExt,
				Detected:  "corrupt jpeg",
			}, nil
		}

	case mediatypes.FileTypeVideo:
		return p.probe(ctx, path, true)

	default:
		return Classification{Action: ActionNone, Detected: "not a repair candidate"}, nil
	}
}

// probe maps the streams inside a container to an action. A file with a
// video extension that holds video is already correct.
func (p *Planner) probe(ctx context.Context, path string, videoExt bool) (Classification, error) {
	streams, err := p.tool.ProbeStreams(ctx, path)
	if errors.Is(err, transcoder.ErrToolNotFound) {
		return Classification{}, newError(ErrProbeFailure, path, err)
	}

	switch {
	case err == nil && streams.HasVideo():
		if videoExt {
			return Classification{Action: ActionNone, Detected: "video"}, nil
		}
		return Classification{Action: ActionVideo, TargetExt: mediatypes.VideoTargetExt, Detected: "video"}, nil

	case err == nil && streams.HasAudio():
		return Classification{Action: ActionAudio, TargetExt: mediatypes.AudioTargetExt, Detected: "audio only"}, nil

	default:
		if err == nil {
			err = errors.New("no audio or video streams")
		}
		return Classification{
			Action:    ActionVideo,
			TargetExt: mediatypes.VideoTargetExt,
			Detected:  "unknown",
			ProbeErr:  err,
		}, nil
	}
}
