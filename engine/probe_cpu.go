//go:build !cuda

package engine

// DeviceProbe reports no acceleration devices when built without the cuda tag.
func DeviceProbe() int {
	return 0
}
