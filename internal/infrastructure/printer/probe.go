package printer

import (
	"fmt"
	"strconv"
	"strings"
)

// excludedUnits are unit codes that never have a printer on their subnet.
var excludedUnits = map[int]struct{}{
	200: {},
	201: {},
}

// ProbeSet maps a unit routing key to the candidate printer addresses on
// its subnet, 192.168.<unit>.1 through 192.168.<unit>.254. Non-numeric
// keys, keys outside the valid octet range and excluded units produce an
// empty set.
func ProbeSet(routingKey string) []string {
	unit, err := strconv.Atoi(strings.TrimSpace(routingKey))
	if err != nil {
		return nil
	}
	if unit < 0 || unit > 254 {
		return nil
	}
	if _, excluded := excludedUnits[unit]; excluded {
		return nil
	}

	addrs := make([]string, 0, 254)
	for host := 1; host <= 254; host++ {
		addrs = append(addrs, fmt.Sprintf("192.168.%d.%d", unit, host))
	}
	return addrs
}
