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

// Command coldbd launches the column-store server: it loads (or
// freshly creates) a database from its persist directory, listens on
// a local unix socket, and serves one client connection at a time
// until a client sends "shutdown". Modeled on
// original_source/rustsrc/src/bin/server.rs's main, following
// cmd/snellerd/run_daemon.go's own flag/logger conventions.
package main

import (
	"flag"
	"log"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/SnellerInc/coldb/catalog"
	"github.com/SnellerInc/coldb/server"
)

// defaultSockPath and defaultPersistDir are the compiled-in fallbacks,
// matching original_source/rustsrc/src/consts.rs's SOCK_PATH/
// DB_PERSIST_DIR (there overridable at build time via option_env!;
// here the equivalent override chain is runtime, via environment
// variable, -config file, and finally CLI flag -- see resolveSettings).
const (
	defaultSockPath   = "cs165_unix_socket"
	defaultPersistDir = ".cs165_db"
)

// resolveSettings layers the socket path and persist dir from lowest
// to highest precedence: compiled default, then CS165_UNIX_SOCKET/
// DB_PERSIST_DIR environment variables, then the -config YAML file (if
// given), then an explicitly-passed -sock/-persist-dir flag.
func resolveSettings(flagSock, flagPersistDir, configPath string) (sockPath, persistDir string, err error) {
	sockPath, persistDir = defaultSockPath, defaultPersistDir
	if v := os.Getenv("CS165_UNIX_SOCKET"); v != "" {
		sockPath = v
	}
	if v := os.Getenv("DB_PERSIST_DIR"); v != "" {
		persistDir = v
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return "", "", err
	}
	if cfg.SocketPath != "" {
		sockPath = cfg.SocketPath
	}
	if cfg.PersistDir != "" {
		persistDir = cfg.PersistDir
	}

	if flagSock != "" {
		sockPath = flagSock
	}
	if flagPersistDir != "" {
		persistDir = flagPersistDir
	}
	return sockPath, persistDir, nil
}

func main() {
	flagSock := flag.String("sock", "", "unix socket path to listen on (overrides config/env/default)")
	flagPersistDir := flag.String("persist-dir", "", "directory holding the on-disk catalog (overrides config/env/default)")
	configPath := flag.String("config", "", "optional YAML config file (socket_path, persist_dir)")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.Lshortfile)

	sockPath, persistDir, err := resolveSettings(*flagSock, *flagPersistDir, *configPath)
	if err != nil {
		logger.Fatalf("failed to load config %q: %v", *configPath, err)
	}

	start := time.Now()
	db, err := catalog.Load(persistDir)
	if err != nil {
		logger.Fatalf("database failed to launch: %v", err)
	}
	if len(db.Tables) == 0 {
		logger.Println("database launched freshly (no catalog found)")
	} else {
		logger.Printf("database launched in %v", time.Since(start))
	}

	if err := os.Remove(sockPath); err != nil && !os.IsNotExist(err) {
		logger.Fatalf("failed to unlink stale socket file: %v", err)
	}
	l, err := net.Listen("unix", sockPath)
	if err != nil {
		logger.Fatalf("failed to bind to socket %q: %v", sockPath, err)
	}
	// A unix socket file inherits umask-restricted permissions; pin it
	// down explicitly to owner-only, matching the single-client,
	// single-operator deployment model of a local stream socket.
	if err := unix.Chmod(sockPath, 0o600); err != nil {
		logger.Printf("warning: failed to chmod socket %q: %v", sockPath, err)
	}

	srv := server.New(db, logger)
	logger.Printf("waiting for client connections on %s", sockPath)
	if err := srv.Serve(l); err != nil {
		l.Close()
		logger.Fatalf("server exited: %v", err)
	}
	l.Close()

	start = time.Now()
	if err := db.Persist(persistDir); err != nil {
		logger.Fatalf("database failed to shut down: %v", err)
	}
	logger.Printf("database shutdown in %v", time.Since(start))
}
