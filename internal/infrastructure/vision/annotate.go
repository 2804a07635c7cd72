package vision

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"pothole-scan/internal/domain/entity"
)

var (
	boxColor   = color.RGBA{R: 255, G: 56, B: 56, A: 255}
	labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	labelFont  *truetype.Font
)

func init() {
	var err error
	labelFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Annotate рисует рамки и подписи "класс уверенность" поверх копии снимка
func Annotate(img image.Image, detections []entity.Detection) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(truetype.NewFace(labelFont, &truetype.Options{Size: 14}))

	for _, d := range detections {
		r := d.Box.Rect()

		dc.SetColor(boxColor)
		dc.SetLineWidth(3)
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()

		label := fmt.Sprintf("%s %.2f", d.Class, d.Confidence)
		w, h := dc.MeasureString(label)
		top := float64(r.Min.Y) - h - 6
		if top < 0 {
			top = float64(r.Min.Y)
		}
		dc.DrawRectangle(float64(r.Min.X), top, w+6, h+6)
		dc.Fill()

		dc.SetColor(labelColor)
		dc.DrawString(label, float64(r.Min.X)+3, top+h+2)
	}

	return dc.Image()
}
