// Command genimages writes the synthetic verification captures used for
// manual end-to-end checks against a running analyzer: a good enclosure shot
// with a blue glow, ambient-light failures, and wrong-color controls.
package main

import (
	"flag"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"go-luminol-analyzer/internal/testimg"
)

type frame struct {
	name  string
	build func() *image.NRGBA
}

var frames = []frame{
	{"glow_blue.jpg", func() *image.NRGBA {
		return testimg.GlowFrame(500, 500, 100, color.NRGBA{0, 50, 255, 255})
	}},
	{"glow_dim.jpg", func() *image.NRGBA {
		return testimg.GlowFrame(500, 500, 100, color.NRGBA{0, 20, 140, 255})
	}},
	{"glow_small.jpg", func() *image.NRGBA {
		return testimg.GlowFrame(500, 500, 10, color.NRGBA{0, 50, 255, 255})
	}},
	{"glow_with_reflection.jpg", func() *image.NRGBA {
		img := testimg.GlowFrame(500, 500, 80, color.NRGBA{0, 50, 255, 255})
		testimg.DrawDisc(img, 450, 50, 10, color.NRGBA{0, 50, 255, 255})
		return img
	}},
	{"control_red.jpg", func() *image.NRGBA {
		return testimg.GlowFrame(500, 500, 100, color.NRGBA{255, 50, 0, 255})
	}},
	{"ambient_gray.jpg", func() *image.NRGBA {
		return testimg.UniformFrame(500, 500, color.NRGBA{100, 100, 100, 255})
	}},
	{"ambient_bright.jpg", func() *image.NRGBA {
		return testimg.UniformFrame(500, 500, color.NRGBA{230, 230, 230, 255})
	}},
	{"black_empty.jpg", func() *image.NRGBA {
		return testimg.BlackFrame(500, 500)
	}},
}

func main() {
	outDir := flag.String("out", "testdata", "output directory for generated frames")
	quality := flag.Int("quality", 90, "JPEG quality")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("creating %s: %v", *outDir, err)
	}

	var g errgroup.Group
	for _, f := range frames {
		f := f
		g.Go(func() error {
			path := filepath.Join(*outDir, f.name)
			data := testimg.EncodeJPEG(f.build(), *quality)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			log.Printf("wrote %s (%d bytes)", path, len(data))
			return nil
		})
	}
	// One 16-bit TIFF for the raw capture path.
	g.Go(func() error {
		path := filepath.Join(*outDir, "glow_blue_raw.tiff")
		data := testimg.EncodeTIFF16(testimg.GlowFrame(500, 500, 100, color.NRGBA{0, 50, 255, 255}))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		log.Printf("wrote %s (%d bytes)", path, len(data))
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("generating frames: %v", err)
	}
}
