// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// cpuModelsByAPICID maps each processor's apicid to its model name
// from /proc/cpuinfo. CPU topology nodes record the APIC id of their
// first core in cpu_core_id_base, which joins against this map.
//
// Returns an empty map on any read failure: a CPU node without a
// model name still renders with its sysfs name.
func cpuModelsByAPICID(procRoot string) map[uint32]string {
	models := make(map[uint32]string)

	file, err := os.Open(filepath.Join(procRoot, "cpuinfo"))
	if err != nil {
		return models
	}
	defer file.Close()

	var model string
	var apicID uint32
	var haveAPIC bool

	flush := func() {
		if haveAPIC && model != "" {
			models[apicID] = model
		}
		model = ""
		haveAPIC = false
	}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "model name":
			model = value
		case "apicid":
			id, err := strconv.ParseUint(value, 10, 32)
			if err == nil {
				apicID = uint32(id)
				haveAPIC = true
			}
		}
	}
	flush()
	return models
}
