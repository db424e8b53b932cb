package zwserial

/*
Copyright (C) 2017 Jan Kasiak

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// USBSpec is a parsed "vid:pid[:serial]" device specifier.
type USBSpec struct {
	VendorID  uint16
	ProductID uint16
	Serial    string // optional, empty if not given
}

// ParseUSBSpec parses a "vid:pid" or "vid:pid:serial" specifier, hex values
// without a leading "0x".
func ParseUSBSpec(spec string) (USBSpec, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return USBSpec{}, fmt.Errorf("zwserial: bad USB spec %q", spec)
	}

	vid, err := strconv.ParseUint(parts[0], 16, 16)
	if err != nil {
		return USBSpec{}, fmt.Errorf("zwserial: bad vendor id in %q: %w", spec, err)
	}
	pid, err := strconv.ParseUint(parts[1], 16, 16)
	if err != nil {
		return USBSpec{}, fmt.Errorf("zwserial: bad product id in %q: %w", spec, err)
	}

	out := USBSpec{VendorID: uint16(vid), ProductID: uint16(pid)}
	if len(parts) == 3 {
		out.Serial = parts[2]
	}
	return out, nil
}

// USBDevice describes one enumerated candidate device path.
type USBDevice struct {
	Path      string
	VendorID  uint16
	ProductID uint16
	Serial    string
}

// Enumerator lists candidate USB serial devices present on the host. This
// package ships no implementation; ResolvePath uses whichever one its
// caller passes.
type Enumerator func() ([]USBDevice, error)

// ResolvePath resolves a vid:pid[:serial] specifier to a device path using
// the given Enumerator. If spec does not parse as a USB spec, it is
// returned unchanged (it is assumed to already be a device path such as
// /dev/ttyACM0 or COM3).
func ResolvePath(spec string, enumerate Enumerator) (string, error) {
	usb, err := ParseUSBSpec(spec)
	if err != nil {
		return spec, nil
	}

	devices, err := enumerate()
	if err != nil {
		return "", fmt.Errorf("zwserial: enumerate USB devices: %w", err)
	}

	for _, d := range devices {
		if d.VendorID != usb.VendorID || d.ProductID != usb.ProductID {
			continue
		}
		if usb.Serial != "" && d.Serial != usb.Serial {
			continue
		}
		return filepath.Clean(d.Path), nil
	}

	return "", fmt.Errorf("zwserial: no device matching %s", spec)
}
