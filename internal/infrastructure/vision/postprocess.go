package vision

import (
	"fmt"
	"image"
)

// candidate рамка модели до подавления пересечений
type candidate struct {
	box     image.Rectangle
	score   float32
	classID int
}

func className(classes []string, id int) string {
	if id >= 0 && id < len(classes) {
		return classes[id]
	}
	return fmt.Sprintf("class_%d", id)
}

// keepClass оставляет кандидатов целевого класса в исходном порядке.
// Вызывается до NMS, чтобы рамка другого класса не подавила целевую.
func keepClass(cands []candidate, classes []string, target string) []candidate {
	kept := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if className(classes, c.classID) == target {
			kept = append(kept, c)
		}
	}
	return kept
}

// clipRect обрезает рамку по границам кадра; пустой результат означает рамку целиком вне кадра
func clipRect(r, frame image.Rectangle) image.Rectangle {
	return r.Canon().Intersect(frame)
}
