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
	"path/filepath"
	"testing"
)

func TestResolveSettingsDefaults(t *testing.T) {
	sock, dir, err := resolveSettings("", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if sock != defaultSockPath || dir != defaultPersistDir {
		t.Fatalf("expected compiled defaults, got sock=%q dir=%q", sock, dir)
	}
}

func TestResolveSettingsEnvOverridesDefault(t *testing.T) {
	t.Setenv("CS165_UNIX_SOCKET", "/tmp/env.sock")
	t.Setenv("DB_PERSIST_DIR", "/tmp/env_db")

	sock, dir, err := resolveSettings("", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if sock != "/tmp/env.sock" || dir != "/tmp/env_db" {
		t.Fatalf("expected env overrides, got sock=%q dir=%q", sock, dir)
	}
}

func TestResolveSettingsConfigOverridesEnv(t *testing.T) {
	t.Setenv("CS165_UNIX_SOCKET", "/tmp/env.sock")
	t.Setenv("DB_PERSIST_DIR", "/tmp/env_db")

	configPath := filepath.Join(t.TempDir(), "coldbd.yaml")
	writeFile(t, configPath, "socket_path: /tmp/config.sock\npersist_dir: /tmp/config_db\n")

	sock, dir, err := resolveSettings("", "", configPath)
	if err != nil {
		t.Fatal(err)
	}
	if sock != "/tmp/config.sock" || dir != "/tmp/config_db" {
		t.Fatalf("expected config overrides, got sock=%q dir=%q", sock, dir)
	}
}

func TestResolveSettingsFlagOverridesConfig(t *testing.T) {
	t.Setenv("CS165_UNIX_SOCKET", "/tmp/env.sock")

	configPath := filepath.Join(t.TempDir(), "coldbd.yaml")
	writeFile(t, configPath, "socket_path: /tmp/config.sock\n")

	sock, _, err := resolveSettings("/tmp/flag.sock", "", configPath)
	if err != nil {
		t.Fatal(err)
	}
	if sock != "/tmp/flag.sock" {
		t.Fatalf("expected flag to win, got sock=%q", sock)
	}
}

func TestLoadConfigMissingPathIsZeroValue(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != (config{}) {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
}
