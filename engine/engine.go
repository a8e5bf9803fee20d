package engine

import (
	"errors"
	"fmt"
	"image"
	"os"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	iface "DetBlur/interface"
)

const UNREGISTERED = 0x0001
const IDLE = 0x0003
const BUSY = 0x0004

const DefaultInputSize = 416

var (
	ErrNotLoaded        = errors.New("detector model not loaded")
	ErrBusy             = errors.New("detector is busy")
	ErrUnsupportedFrame = errors.New("frame is not backed by a gocv.Mat")
)

type EngineConfig struct {
	Name        string
	ConfigPath  string
	WeightsPath string
	InputSize   int
	Backend     string
}

// Detector runs one darknet/onnx network through the OpenCV dnn module.
type Detector struct {
	name        string
	ConfigPath  string
	WeightsPath string
	InputSize   int
	State       int
	backend     Backend
	net         gocv.Net
	outNames    []string
	log         *zap.Logger
}

func NewDetector(name string, log *zap.Logger) *Detector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Detector{
		name:      name,
		InputSize: DefaultInputSize,
		State:     UNREGISTERED,
		log:       log,
	}
}

func (d *Detector) Name() string {
	return d.name
}

func checkReadable(path string) error {
	if path == "" {
		return fmt.Errorf("model path cannot be empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// LoadModel reads the network from its config and weights files. Both must exist and be readable.
func (d *Detector) LoadModel(configPath, weightsPath string) error {
	if err := checkReadable(configPath); err != nil {
		return fmt.Errorf("%s: config: %w", d.name, err)
	}
	if err := checkReadable(weightsPath); err != nil {
		return fmt.Errorf("%s: weights: %w", d.name, err)
	}
	net := gocv.ReadNet(weightsPath, configPath)
	if net.Empty() {
		_ = net.Close()
		return fmt.Errorf("%s: could not load the neural network from %s and %s", d.name, configPath, weightsPath)
	}
	d.net = net
	d.ConfigPath = configPath
	d.WeightsPath = weightsPath
	d.outNames = outputNames(&d.net)
	d.State = IDLE
	d.log.Info("Loaded model",
		zap.String("detector", d.name),
		zap.String("config", configPath),
		zap.String("weights", weightsPath),
		zap.Strings("outputs", d.outNames))
	return nil
}

func outputNames(net *gocv.Net) []string {
	var names []string
	for _, id := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(id)
		if name := layer.GetName(); name != "_input" {
			names = append(names, name)
		}
		_ = layer.Close()
	}
	return names
}

// SetBackend configures the execution backend. Every detector of a run gets the same Backend.
func (d *Detector) SetBackend(b Backend) error {
	if d.State == UNREGISTERED {
		return ErrNotLoaded
	}
	if err := d.net.SetPreferableBackend(b.NetBackend); err != nil {
		return fmt.Errorf("%s: set backend %s: %w", d.name, b.Name, err)
	}
	if err := d.net.SetPreferableTarget(b.NetTarget); err != nil {
		return fmt.Errorf("%s: set target %s: %w", d.name, b.Name, err)
	}
	d.backend = b
	return nil
}

func (d *Detector) SetInputSize(size int) {
	if size > 0 {
		d.InputSize = size
	}
}

func (d *Detector) CheckConfig() EngineConfig {
	return EngineConfig{
		Name:        d.name,
		ConfigPath:  d.ConfigPath,
		WeightsPath: d.WeightsPath,
		InputSize:   d.InputSize,
		Backend:     d.backend.Name,
	}
}

// Forward runs the network on f and returns one tensor per output layer.
func (d *Detector) Forward(f iface.Frame) ([]iface.Tensor, error) {
	switch d.State {
	case UNREGISTERED:
		return nil, ErrNotLoaded
	case BUSY:
		return nil, ErrBusy
	}
	mf, ok := f.(*MatFrame)
	if !ok {
		return nil, ErrUnsupportedFrame
	}
	d.State = BUSY
	defer func() { d.State = IDLE }()

	blob := gocv.BlobFromImage(mf.Mat(), 1/255.0, image.Pt(d.InputSize, d.InputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()
	d.net.SetInput(blob, "")
	outs := d.net.ForwardLayers(d.outNames)
	defer func() {
		for i := range outs {
			_ = outs[i].Close()
		}
	}()

	tensors := make([]iface.Tensor, 0, len(outs))
	for i := range outs {
		t, err := matToTensor(outs[i])
		if err != nil {
			return nil, fmt.Errorf("%s: output %d: %w", d.name, i, err)
		}
		tensors = append(tensors, t)
	}
	return tensors, nil
}

// matToTensor copies a CV_32F output blob. 3D blobs (1 x rows x cols) are flattened to their last two dims.
func matToTensor(m gocv.Mat) (iface.Tensor, error) {
	rows, cols := m.Rows(), m.Cols()
	if sizes := m.Size(); len(sizes) == 3 {
		rows, cols = sizes[1], sizes[2]
	}
	data, err := m.DataPtrFloat32()
	if err != nil {
		return iface.Tensor{}, err
	}
	if rows < 0 || cols < 0 || len(data) < rows*cols {
		return iface.Tensor{}, fmt.Errorf("unexpected blob shape %v with %d values", m.Size(), len(data))
	}
	return iface.NewTensor(rows, cols, append([]float32(nil), data[:rows*cols]...))
}

func (d *Detector) Close() error {
	if d.State == UNREGISTERED {
		return nil
	}
	err := d.net.Close()
	d.ConfigPath = ""
	d.WeightsPath = ""
	d.outNames = nil
	d.backend = Backend{}
	d.State = UNREGISTERED
	return err
}
