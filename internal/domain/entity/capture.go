package entity

import "image"

// CaptureRequest точка и направление камеры для одного снимка
type CaptureRequest struct {
	Index      int        // порядковый номер точки в прогоне
	Coordinate Coordinate // где снимать
	Heading    int        // направление камеры в градусах, [0, 360)
}

// CapturedImage полученный снимок, живёт только между съёмкой и детекцией
type CapturedImage struct {
	Request CaptureRequest
	Image   image.Image // растр, приведённый к непрозрачному цвету
}
