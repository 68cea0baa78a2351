package link

import (
	"fmt"
	"strings"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

// DeviceFactory creates ble.Device instances (can be overridden in tests).
var DeviceFactory = func() (ble.Device, error) {
	dev, err := linux.NewDevice()
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			return nil, fmt.Errorf("insufficient permissions for HCI access - run with CAP_NET_ADMIN or as root")
		}
		return nil, err
	}
	return dev, nil
}
