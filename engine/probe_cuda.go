//go:build cuda

package engine

import "gocv.io/x/gocv/cuda"

// DeviceProbe counts the CUDA devices visible to OpenCV.
func DeviceProbe() int {
	return cuda.GetCudaEnabledDeviceCount()
}
