package vision

// ONNXOptions параметры локальной модели YOLOv8 в формате ONNX
type ONNXOptions struct {
	ModelPath    string
	Classes      []string // имена классов в порядке обучения модели
	TargetClass  string
	InputSize    int     // сторона квадратного входа сети
	NMSThreshold float32 // порог IoU для подавления пересекающихся рамок
}

// DefaultONNXOptions вход 640x640 и NMS 0.45, как у стандартного экспорта YOLOv8
func DefaultONNXOptions(modelPath string, classes []string, targetClass string) ONNXOptions {
	return ONNXOptions{
		ModelPath:    modelPath,
		Classes:      classes,
		TargetClass:  targetClass,
		InputSize:    640,
		NMSThreshold: 0.45,
	}
}
