package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

const frameWaitTimeout = 60 * time.Second

var errFrameTimeout = errors.New("timed out waiting for a frame")

// --- Structs ---

type rawFrame struct {
	Number int
	Image  image.Image
}

type Frame struct {
	Number int
	Data   []byte
}

// --- Video Pipeline ---

// drawFrames renders every frame in order on the calling goroutine. The
// segment is not safe for concurrent drawing, so this is the only place
// frames are drawn.
func drawFrames(ctx context.Context, s *scene, totalFrames int, out chan<- rawFrame) {
	defer close(out)
	for i := 0; i < totalFrames; i++ {
		img := s.renderFrame(i, totalFrames)
		select {
		case out <- rawFrame{Number: i, Image: img}:
		case <-ctx.Done():
			return
		}
	}
}

// encodeFrames turns drawn frames into PNGs on the given number of workers.
// Frames come out of order.
func encodeFrames(in <-chan rawFrame, frameChan chan<- Frame, workers int, logger *zap.Logger) {
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pngBuffer := new(bytes.Buffer)

			for f := range in {
				pngBuffer.Reset()
				if err := png.Encode(pngBuffer, f.Image); err != nil {
					logger.Error("Failed to encode frame", zap.Int("frame", f.Number), zap.Error(err))
					continue
				}

				frameData := make([]byte, pngBuffer.Len())
				copy(frameData, pngBuffer.Bytes())

				frameChan <- Frame{Number: f.Number, Data: frameData}
			}
		}()
	}
	wg.Wait()
}

// writeFrames writes frames to w in frame number order, buffering the ones
// that arrive early.
func writeFrames(frameChan <-chan Frame, w io.Writer, totalFrames int, onFrame func()) error {
	frameBuffer := make(map[int][]byte)
	nextFrameToWrite := 0
	timeout := time.NewTimer(frameWaitTimeout)
	defer timeout.Stop()

	for nextFrameToWrite < totalFrames {
		select {
		case frame, ok := <-frameChan:
			if !ok {
				return fmt.Errorf("frame channel closed after frame %d of %d", nextFrameToWrite, totalFrames)
			}

			frameBuffer[frame.Number] = frame.Data
			if !timeout.Stop() {
				<-timeout.C
			}
			timeout.Reset(frameWaitTimeout)

			for {
				data, found := frameBuffer[nextFrameToWrite]
				if !found {
					break
				}
				if _, err := w.Write(data); err != nil {
					return fmt.Errorf("error writing frame %d: %w", nextFrameToWrite, err)
				}
				onFrame()

				delete(frameBuffer, nextFrameToWrite)
				nextFrameToWrite++
			}

		case <-timeout.C:
			return fmt.Errorf("frame %d after %v: %w", nextFrameToWrite, frameWaitTimeout, errFrameTimeout)
		}
	}
	return nil
}

func runVideoPipeline(ctx context.Context, s *scene, logger *zap.Logger) error {
	args := s.args
	totalFrames := args.totalFrames()

	// --- FFMPEG Setup ---
	ffmpegCmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-f", "image2pipe", "-vcodec", "png", "-r", fmt.Sprintf("%f", args.Framerate), "-i", "-", "-c:v", "libx264", "-b:v", args.Bitrate, "-pix_fmt", "yuv420p", "-r", fmt.Sprintf("%f", args.Framerate), args.OutputFile)
	ffmpegIn, err := ffmpegCmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg stdin pipe: %w", err)
	}
	ffmpegCmd.Stderr = os.Stderr
	if err := ffmpegCmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	logger.Info("Rendering video",
		zap.Int("frames", totalFrames),
		zap.Float64("zoomFrom", s.zoomAt(0, totalFrames)),
		zap.Float64("zoomTo", s.zoomAt(totalFrames-1, totalFrames)),
		zap.String("output", args.OutputFile))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// --- Concurrency Setup ---
	var wg sync.WaitGroup
	drawn := make(chan rawFrame, args.Workers)
	frameChan := make(chan Frame, int(args.Framerate)*2)

	// --- Encoder Goroutine (with reordering and timeout) ---
	var writeErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ffmpegIn.Close()

		bar := progressbar.Default(int64(totalFrames), "Encoding")
		writeErr = writeFrames(frameChan, ffmpegIn, totalFrames, func() { _ = bar.Add(1) })
		if writeErr != nil {
			cancel()
			// unblock the encoders
			for range frameChan {
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		encodeFrames(drawn, frameChan, args.Workers, logger)
		close(frameChan)
	}()

	// --- Frame Drawing ---
	drawFrames(ctx, s, totalFrames, drawn)

	wg.Wait()
	if writeErr != nil {
		_ = ffmpegCmd.Wait()
		return writeErr
	}
	if err := ffmpegCmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg command failed: %w", err)
	}
	return nil
}
