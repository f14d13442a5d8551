package server

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	versionre = regexp.MustCompile(`^([^,]+),\s+Version:\s+([0-9\.]+)([A-Za-z0-9-]*)\s+\((.*)\)\. started`)
	netre     = regexp.MustCompile(`Tcp port:\s+(\d+)(?:\s+Unix socket:\s+(\S+))?`)
)

// Server holds the SQL server informations that are parsed from the header
type Server struct {
	Binary             string
	Port               int
	Socket             string
	Version            string
	VersionShort       string
	VersionDescription string
}

// Known returns true when the header could be parsed
func (s Server) Known() bool {
	return s.Binary != ""
}

// Parse reads the lines written by the server when it opens the slow log:
//
//	/usr/sbin/mysqld, Version: 5.7.33-log (MySQL Community Server (GPL)). started with:
//	Tcp port: 3306  Unix socket: /var/run/mysqld/mysqld.sock
//
// Unrecognised lines are ignored, so a log without header gives a zero Server.
func Parse(lines []string) Server {
	var srv Server

	for _, line := range lines {
		line = strings.TrimSpace(line)

		if matches := versionre.FindStringSubmatch(line); len(matches) == 5 {
			srv.Binary = matches[1]
			srv.VersionShort = matches[2]
			srv.Version = srv.VersionShort + matches[3]
			srv.VersionDescription = matches[4]
			continue
		}

		if matches := netre.FindStringSubmatch(line); len(matches) == 3 {
			srv.Port, _ = strconv.Atoi(matches[1])
			srv.Socket = matches[2]
		}
	}

	return srv
}
