package identity

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/benmeehan/fingerprint-agent/pkg/platform"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
)

// HardwareInfo renders the build properties as a single comma-separated line.
func HardwareInfo(b platform.BuildInfo) string {
	return fmt.Sprintf("Device Model: %s, Manufacturer: %s, Brand: %s, OS Version: %s, SDK: %d, Hardware: %s, Device: %s, Product: %s",
		b.Model, b.Manufacturer, b.Brand, b.Release, b.SDK, b.Hardware, b.Device, b.Product)
}

// HostBuildSource reports host properties in place of device build properties:
// the platform version is the release and the kernel major version the SDK level.
type HostBuildSource struct{}

var _ platform.BuildSource = HostBuildSource{}

// BuildInfo reads host information through gopsutil.
func (HostBuildSource) BuildInfo() (platform.BuildInfo, error) {
	info, err := host.Info()
	if err != nil {
		return platform.BuildInfo{}, fmt.Errorf("failed to read host info: %w", err)
	}

	b := platform.BuildInfo{
		Model:        info.Hostname,
		Manufacturer: info.PlatformFamily,
		Brand:        info.Platform,
		Release:      info.PlatformVersion,
		Hardware:     info.KernelArch,
		Device:       info.HostID,
		Product:      info.OS,
	}
	if v, err := semver.NewVersion(info.KernelVersion); err == nil {
		b.SDK = int(v.Major())
	}
	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 && cpus[0].ModelName != "" {
		b.Hardware = fmt.Sprintf("%s (%s)", cpus[0].ModelName, info.KernelArch)
	}
	return b, nil
}
