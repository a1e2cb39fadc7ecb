// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"os"

	"sigs.k8s.io/yaml"
)

// config is the optional -config file's shape: a YAML document read
// with sigs.k8s.io/yaml, sitting
// between the CS165_UNIX_SOCKET/DB_PERSIST_DIR environment variables
// and an explicit CLI flag in resolveSettings' precedence chain.
// Either field may be omitted, in which case the next-lower source
// wins.
type config struct {
	SocketPath string `json:"socket_path,omitempty"`
	PersistDir string `json:"persist_dir,omitempty"`
}

// loadConfig reads and parses path as YAML. A path of "" returns a
// zero config (no override) rather than an error.
func loadConfig(path string) (config, error) {
	if path == "" {
		return config{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return config{}, err
	}
	var c config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return config{}, err
	}
	return c, nil
}
