package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeepClass_OtherClassCannotShadowTarget(t *testing.T) {
	classes := []string{"road-crack", "road-pothole"}
	// трещина с большей оценкой почти целиком перекрывает яму
	cands := []candidate{
		{box: image.Rect(100, 100, 200, 200), score: 0.9, classID: 0},
		{box: image.Rect(110, 110, 210, 210), score: 0.8, classID: 1},
		{box: image.Rect(300, 300, 340, 340), score: 0.6, classID: 1},
	}

	kept := keepClass(cands, classes, "road-pothole")

	require.Equal(t, []candidate{cands[1], cands[2]}, kept)
}

func TestKeepClass_UnknownClassIDs(t *testing.T) {
	cands := []candidate{
		{box: image.Rect(0, 0, 10, 10), score: 0.7, classID: 5},
		{box: image.Rect(0, 0, 10, 10), score: 0.7, classID: -1},
	}

	require.Empty(t, keepClass(cands, []string{"road-pothole"}, "road-pothole"))
	require.Len(t, keepClass(cands, nil, "class_5"), 1)
}

func TestClipRect(t *testing.T) {
	frame := image.Rect(0, 0, 640, 640)

	tests := []struct {
		name string
		in   image.Rectangle
		want image.Rectangle
	}{
		{"inside", image.Rect(10, 20, 30, 40), image.Rect(10, 20, 30, 40)},
		{"negative corner", image.Rect(-12, -3, 50, 60), image.Rect(0, 0, 50, 60)},
		{"past the edge", image.Rect(600, 610, 700, 655), image.Rect(600, 610, 640, 640)},
		{"outside", image.Rect(700, 700, 720, 720), image.Rectangle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clipRect(tt.in, frame)
			require.Equal(t, tt.want, got)
		})
	}
}
