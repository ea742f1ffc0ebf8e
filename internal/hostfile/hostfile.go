// Package hostfile parses the two on-disk host list formats pssh
// accepts: a bare line list of addresses, and a two-column CSV of
// address plus per-host command.
package hostfile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// ResolvePort returns the Port an entry in the user's ~/.ssh/config
// declares for addr, or 22 if there is no config, no matching Host
// block, or no Port directive. A host file only ever carries bare
// IPv4 addresses, but operators frequently run SSH on a non-default
// port behind a per-host ~/.ssh/config override keyed by IP — this
// lets that override still apply instead of silently forcing :22.
func ResolvePort(addr string) int {
	val, err := ssh_config.GetStrict(addr, "Port")
	if err != nil || val == "" {
		return 22
	}
	port, err := strconv.Atoi(val)
	if err != nil || port <= 0 {
		return 22
	}
	return port
}

// ParseList reads a UTF-8 text stream, one host per line. Lines are
// stripped of surrounding single/double quotes. A line may carry an
// explicit "host:port" (the form discover.Addrs emits, for hosts
// found listening on a non-default port) or a bare IPv4 dotted-quad
// address, in which case the port is taken from ~/.ssh/config via
// ResolvePort, defaulting to 22. Lines that are neither are silently
// skipped, matching the source tool's tolerance for stray blank lines
// or comments in hand-edited host files.
func ParseList(r io.Reader) ([]string, error) {
	var hosts []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.NewReplacer(`"`, "", `'`, "").Replace(line)
		if line == "" {
			continue
		}
		if host, port, err := net.SplitHostPort(line); err == nil {
			if ip := net.ParseIP(host); ip == nil || ip.To4() == nil {
				continue
			}
			hosts = append(hosts, net.JoinHostPort(host, port))
			continue
		}
		if ip := net.ParseIP(line); ip == nil || ip.To4() == nil {
			continue
		}
		port := strconv.Itoa(ResolvePort(line))
		hosts = append(hosts, net.JoinHostPort(line, port))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read host list: %w", err)
	}
	return hosts, nil
}

// ParseCSV reads a two-column CSV (address, command), skipping a
// header row. Rows whose first column doesn't parse as an IPv4
// address are skipped rather than aborting the whole read, since a
// single malformed row in a few-thousand-host file shouldn't lose the
// rest.
func ParseCSV(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read host csv: %w", err)
	}

	result := make(map[string]string)
	for i, rec := range records {
		if i == 0 {
			continue // header row
		}
		if len(rec) < 2 {
			continue
		}
		addr := strings.TrimSpace(rec[0])
		if ip := net.ParseIP(addr); ip == nil || strings.Contains(addr, ":") {
			continue
		}
		key := net.JoinHostPort(addr, strconv.Itoa(ResolvePort(addr)))
		result[key] = rec[1]
	}
	return result, nil
}
