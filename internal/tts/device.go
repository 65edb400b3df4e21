package tts

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Device names understood by the engines.
const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
	DeviceXPU  = "xpu"
	DeviceMPS  = "mps"
	DeviceROCm = "rocm"
)

// Probe reports facts about the host. Tests replace it.
type Probe struct {
	LookPath func(file string) (string, error)
	GOOS     string
	GOARCH   string
}

// HostProbe inspects the running machine.
func HostProbe() Probe {
	return Probe{LookPath: exec.LookPath, GOOS: runtime.GOOS, GOARCH: runtime.GOARCH}
}

func (p Probe) has(tool string) bool {
	if p.LookPath == nil {
		return false
	}
	_, err := p.LookPath(tool)
	return err == nil
}

// ResolveDevice turns a configured device name into a concrete one. "auto"
// (or an empty value) picks the first available accelerator in the order
// CUDA, XPU, MPS, ROCm and falls back to CPU. It is called once at startup
// and the result is handed to engine constructors.
func ResolveDevice(name string, p Probe) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", DeviceAuto:
	case DeviceCPU, DeviceCUDA, DeviceXPU, DeviceMPS, DeviceROCm:
		return name, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDevice, name)
	}

	switch {
	case p.has("nvidia-smi"):
		return DeviceCUDA, nil
	case p.has("xpu-smi"):
		return DeviceXPU, nil
	case p.GOOS == "darwin" && p.GOARCH == "arm64":
		return DeviceMPS, nil
	case p.has("rocm-smi"):
		return DeviceROCm, nil
	default:
		return DeviceCPU, nil
	}
}
