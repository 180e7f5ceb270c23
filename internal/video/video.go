package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"sync"
)

// FrameSink consumes rendered frames in presentation order.
type FrameSink interface {
	WriteFrame(frame *image.RGBA) error
	Close() error
}

// Params describes the encoded stream.
type Params struct {
	Width   int
	Height  int
	FPS     int
	Encoder string
	Quality int
}

// FFmpegRecorder pipes raw RGBA frames into an ffmpeg process.
type FFmpegRecorder struct {
	params Params
	path   string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	frames int
	closed bool
}

var _ FrameSink = (*FFmpegRecorder)(nil)

// StartRecorder launches ffmpeg writing to path. The process is killed when
// ctx is cancelled before Close.
func StartRecorder(ctx context.Context, path string, params Params) (*FFmpegRecorder, error) {
	if params.Width <= 0 || params.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", params.Width, params.Height)
	}
	if params.FPS <= 0 {
		return nil, fmt.Errorf("invalid fps %d", params.FPS)
	}

	r := &FFmpegRecorder{params: params, path: path}
	r.cmd = exec.CommandContext(ctx, "ffmpeg", buildFFmpegArgs(path, params)...)
	r.cmd.Stderr = &r.stderr

	stdin, err := r.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	r.stdin = stdin

	if err := r.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return r, nil
}

func buildFFmpegArgs(videoPath string, params Params) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", params.Encoder,
	}

	switch params.Encoder {
	case "h264_videotoolbox":
		bitrate := params.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", params.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", params.Quality), "-preset", "medium")
	}

	args = append(args, videoPath)
	return args
}

// WriteFrame appends one frame. Frames of a different size are drawn onto a
// canvas of the stream size.
func (r *FFmpegRecorder) WriteFrame(frame *image.RGBA) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("recorder closed")
	}
	if err := writeRawRGBA(r.stdin, frame, r.params.Width, r.params.Height); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	r.frames++
	return nil
}

// Frames returns how many frames were written.
func (r *FFmpegRecorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Close flushes stdin and waits for ffmpeg to finish the file.
func (r *FFmpegRecorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.stdin.Close()
	if err := r.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, r.stderr.String())
	}
	return nil
}

func writeRawRGBA(w io.Writer, img *image.RGBA, width, height int) error {
	want := image.Rect(0, 0, width, height)
	rgba := img
	if rgba == nil || rgba.Rect != want || rgba.Stride != width*4 {
		rgba = image.NewRGBA(want)
		if img != nil {
			draw.Draw(rgba, want, img, img.Rect.Min, draw.Src)
		}
	}
	_, err := w.Write(rgba.Pix)
	return err
}
