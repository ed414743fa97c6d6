package imageresize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"os"
	"strings"

	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/logger"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp" // register decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

const (
	TaskID     = "process_image"
	Alias      = "B7"
	InputFile  = "credit-card.png"
	OutputFile = "credit-card-resized.jpg"
)

// Definition halves the source image and re-encodes it as JPEG.
func Definition(env task.Environment) task.Definition {
	quality := env.Config.Tasks.Image.Quality
	return task.Definition{
		ID:          TaskID,
		Aliases:     []string{Alias},
		Description: "Resize an image to half its dimensions and save it as JPEG.",
		Outputs:     []string{OutputFile},
		Precondition: func(context.Context) error {
			_, err := task.RequireFile(env.Guard, InputFile)
			return err
		},
		Execute: func(ctx context.Context) (*task.Envelope, error) {
			return execute(ctx, env, quality)
		},
	}
}

func execute(ctx context.Context, env task.Environment, quality int) (*task.Envelope, error) {
	srcPath, err := task.RequireFile(env.Guard, InputFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, task.Internal(fmt.Errorf("failed to read image: %w", err), map[string]any{"path": srcPath})
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, task.InvalidInput(
			fmt.Errorf("%s is not an image", srcPath),
			map[string]any{"path": srcPath, "mime": mime.String()},
		)
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, task.InvalidInput(
			fmt.Errorf("failed to decode image: %w", err),
			map[string]any{"path": srcPath, "mime": mime.String()},
		)
	}
	resized, err := Halve(src)
	if err != nil {
		return nil, task.InvalidInput(err, map[string]any{"path": srcPath})
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, task.Internal(fmt.Errorf("failed to encode jpeg: %w", err), nil)
	}
	path, err := task.WriteArtifact(ctx, env.Guard, OutputFile, buf.Bytes())
	if err != nil {
		return nil, err
	}
	bounds := resized.Bounds()
	logger.FromContext(ctx).Info(
		"Resized image",
		"source_format", format,
		"width", bounds.Dx(),
		"height", bounds.Dy(),
		"path", path,
	)
	return &task.Envelope{Message: Alias + " executed: image resized and saved."}, nil
}

// Halve scales src to floor(W/2) x floor(H/2). Transparent pixels are
// flattened onto white since JPEG has no alpha channel.
func Halve(src image.Image) (image.Image, error) {
	bounds := src.Bounds()
	width, height := bounds.Dx()/2, bounds.Dy()/2
	if width == 0 || height == 0 {
		return nil, errors.New("image is too small to halve")
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst, nil
}
