package acquisition

import (
	"path/filepath"
	"sort"
	"strings"
)

// PortInfo describes a candidate serial device node.
type PortInfo struct {
	Device      string
	IsBluetooth bool
}

// Device node patterns that USB serial and Bluetooth SPP bridges show up as.
var portGlobs = []string{
	"/dev/ttyUSB*",
	"/dev/ttyACM*",
	"/dev/rfcomm*",
	"/dev/cu.*",
}

// AvailablePorts lists candidate serial ports. Ports matching the given
// Bluetooth device name are flagged and sorted first so auto-detection
// prefers the headset.
func AvailablePorts(bluetoothName string) []PortInfo {
	var ports []PortInfo
	seen := make(map[string]bool)

	for _, pattern := range portGlobs {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, dev := range matches {
			if seen[dev] {
				continue
			}
			seen[dev] = true
			ports = append(ports, PortInfo{
				Device:      dev,
				IsBluetooth: bluetoothName != "" && strings.Contains(dev, bluetoothName),
			})
		}
	}

	sort.SliceStable(ports, func(i, j int) bool {
		return ports[i].IsBluetooth && !ports[j].IsBluetooth
	})

	return ports
}

// FindDevice picks the port to connect to: the Bluetooth device when
// preferred and present, otherwise the configured default.
func FindDevice(defaultPort, bluetoothName string, preferBluetooth bool) string {
	if preferBluetooth && bluetoothName != "" {
		for _, p := range AvailablePorts(bluetoothName) {
			if p.IsBluetooth {
				return p.Device
			}
		}
	}
	return defaultPort
}
