package engine

import (
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

const (
	ModeAuto = "auto"
	ModeCUDA = "cuda"
	ModeCPU  = "cpu"
)

// Backend is the execution path shared by every detector of a run.
type Backend struct {
	Name        string
	Accelerated bool
	NetBackend  gocv.NetBackendType
	NetTarget   gocv.NetTargetType
}

var (
	CUDABackend = Backend{
		Name:        ModeCUDA,
		Accelerated: true,
		NetBackend:  gocv.NetBackendCUDA,
		NetTarget:   gocv.NetTargetCUDA,
	}
	CPUBackend = Backend{
		Name:       ModeCPU,
		NetBackend: gocv.NetBackendOpenCV,
		NetTarget:  gocv.NetTargetCPU,
	}
)

// Probe reports the number of usable acceleration devices.
type Probe func() int

func ParseMode(s string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(s)); m {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeCUDA, ModeCPU:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported backend: %s", s)
	}
}

// SelectBackend picks the backend once for the whole run. In auto mode probe is called exactly once.
func SelectBackend(mode string, probe Probe) Backend {
	switch mode {
	case ModeCUDA:
		return CUDABackend
	case ModeCPU:
		return CPUBackend
	}
	if probe != nil && probe() > 0 {
		return CUDABackend
	}
	return CPUBackend
}

// ApplyBackend configures every detector with b, stopping at the first failure.
func ApplyBackend(b Backend, detectors ...*Detector) error {
	for _, d := range detectors {
		if err := d.SetBackend(b); err != nil {
			return err
		}
	}
	return nil
}
