package server

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		refSrv Server
	}{
		{
			name: "mysql",
			lines: []string{
				"/usr/sbin/mysqld, Version: 5.7.33-log (MySQL Community Server (GPL)). started with:",
				"Tcp port: 3306  Unix socket: /var/run/mysqld/mysqld.sock",
				"Time                 Id Command    Argument",
			},
			refSrv: Server{
				Binary:             "/usr/sbin/mysqld",
				Port:               3306,
				Socket:             "/var/run/mysqld/mysqld.sock",
				Version:            "5.7.33-log",
				VersionShort:       "5.7.33",
				VersionDescription: "MySQL Community Server (GPL)",
			},
		},
		{
			name: "mariadb",
			lines: []string{
				"/opt/bitnami/mariadb/sbin/mysqld, Version: 10.5.9-MariaDB (Source distribution). started with:",
				"Tcp port: 3306  Unix socket: /opt/bitnami/mariadb/tmp/mysql.sock",
				"Time		    Id Command	Argument",
			},
			refSrv: Server{
				Binary:             "/opt/bitnami/mariadb/sbin/mysqld",
				Port:               3306,
				Socket:             "/opt/bitnami/mariadb/tmp/mysql.sock",
				Version:            "10.5.9-MariaDB",
				VersionShort:       "10.5.9",
				VersionDescription: "Source distribution",
			},
		},
		{
			name: "no suffix, no socket",
			lines: []string{
				"/usr/sbin/mysqld, Version: 8.0.23 (MySQL Community Server - GPL). started with:",
				"Tcp port: 0",
			},
			refSrv: Server{
				Binary:             "/usr/sbin/mysqld",
				Version:            "8.0.23",
				VersionShort:       "8.0.23",
				VersionDescription: "MySQL Community Server - GPL",
			},
		},
		{
			name:   "unparsable",
			lines:  []string{"Version: 8.0.23 (MySQL Community Server - GPL). started with:"},
			refSrv: Server{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := Parse(tt.lines)
			if srv != tt.refSrv {
				t.Errorf("got = %v, want = %v", srv, tt.refSrv)
			}
			if srv.Known() != (tt.refSrv.Binary != "") {
				t.Errorf("Known() = %v", srv.Known())
			}
		})
	}
}
